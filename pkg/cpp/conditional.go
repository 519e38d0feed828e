package cpp

import "fmt"

// CondType is the directive that pushed a ConditionalStack frame.
type CondType int

const (
	CondIf CondType = iota
	CondIfdef
	CondIfndef
	CondElif
	CondElse
)

// CondFrame is spec.md section 3's conditional frame: one entry per
// nesting level of #if/#ifdef/#ifndef/#elif/#else. ParentState tracks
// whether a future #elif/#else at this level is still eligible to
// activate: it goes false the moment a branch at this level succeeds,
// and is forced false for the life of the level when the enclosing
// context was already inactive at the initiating #if/#ifdef/#ifndef
// (so later #elif/#else never re-evaluate a condition in dead code).
type CondFrame struct {
	Type        CondType
	SkipBody    bool
	ParentState bool
}

// ConditionalStack drives conditional compilation per spec.md section
// 4.4. A running counter mirrors the number of stacked frames with
// SkipBody set; while it is positive the main preprocessing loop
// discards tokens and most directives, since an inactive frame anywhere
// in the stack (not just the top) makes everything beneath it inactive.
type ConditionalStack struct {
	frames    []CondFrame
	skipCount int
}

// NewConditionalStack creates an empty stack.
func NewConditionalStack() *ConditionalStack {
	return &ConditionalStack{}
}

// IsActive reports whether tokens at the current position should be
// emitted and non-conditional directives processed.
func (cs *ConditionalStack) IsActive() bool {
	return cs.skipCount == 0
}

// Depth returns the current nesting depth.
func (cs *ConditionalStack) Depth() int {
	return len(cs.frames)
}

func (cs *ConditionalStack) push(f CondFrame) {
	cs.frames = append(cs.frames, f)
	if f.SkipBody {
		cs.skipCount++
	}
}

func (cs *ConditionalStack) pop() (CondFrame, error) {
	if len(cs.frames) == 0 {
		return CondFrame{}, &StateError{Msg: "conditional directive with no matching #if/#ifdef/#ifndef"}
	}
	f := cs.frames[len(cs.frames)-1]
	cs.frames = cs.frames[:len(cs.frames)-1]
	if f.SkipBody {
		cs.skipCount--
	}
	return f, nil
}

// PushSkipped pushes a frame for #if/#ifdef/#ifndef encountered while
// the enclosing context is already inactive: the caller must not
// evaluate the condition in this case.
func (cs *ConditionalStack) PushSkipped(typ CondType) {
	cs.push(CondFrame{Type: typ, SkipBody: true, ParentState: false})
}

// PushResult pushes a frame for #if/#ifdef/#ifndef whose condition was
// evaluated to result (the enclosing context was active).
func (cs *ConditionalStack) PushResult(typ CondType, result bool) {
	skip := !result
	cs.push(CondFrame{Type: typ, SkipBody: skip, ParentState: skip})
}

// Elif pops the previous frame at this level and pushes a new one for
// #elif. evalCond is called only if evaluation is actually needed (the
// enclosing context is active and no earlier branch at this level has
// already succeeded).
func (cs *ConditionalStack) Elif(evalCond func() (bool, error)) error {
	prev, err := cs.pop()
	if err != nil {
		return err
	}
	if prev.Type == CondElse {
		return &StateError{Msg: "#elif after #else"}
	}
	if !prev.ParentState || !prev.SkipBody {
		cs.push(CondFrame{Type: CondElif, SkipBody: true, ParentState: false})
		return nil
	}
	result, err := evalCond()
	if err != nil {
		return err
	}
	skip := !result
	cs.push(CondFrame{Type: CondElif, SkipBody: skip, ParentState: skip})
	return nil
}

// Else pops the previous frame at this level and pushes the #else frame.
func (cs *ConditionalStack) Else() error {
	prev, err := cs.pop()
	if err != nil {
		return err
	}
	if prev.Type == CondElse {
		return &StateError{Msg: "duplicate #else"}
	}
	skip := !prev.SkipBody || !prev.ParentState
	cs.push(CondFrame{Type: CondElse, SkipBody: skip, ParentState: false})
	return nil
}

// Endif pops the current level's frame.
func (cs *ConditionalStack) Endif() error {
	_, err := cs.pop()
	return err
}

// CheckBalanced reports unterminated conditionals at end-of-input.
func (cs *ConditionalStack) CheckBalanced() error {
	if len(cs.frames) > 0 {
		return &StateError{Msg: fmt.Sprintf("unterminated conditional directive, %d level(s) unclosed", len(cs.frames))}
	}
	return nil
}
