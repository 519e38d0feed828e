package cpp

import (
	"os"
	"path/filepath"
)

// IncludeKind distinguishes `"file"` from `<file>` includes.
type IncludeKind int

const (
	IncludeQuoted IncludeKind = iota
	IncludeAngled
)

// IncludeStack is spec.md section 3's stack of nested Scanners: the top
// is the currently active source. Pushing opens a new Scanner; popping
// (on EOF, or on a #pragma once repeat) resumes the parent.
type IncludeStack struct {
	scanners    []*Scanner
	SearchPaths []string // default search paths for <file> includes

	// included records every file name ever pushed, and is never shrunk
	// on pop. #pragma once needs this: two sequential (non-nested)
	// #include "a" directives never have "a" on the live stack twice, so
	// counting occurrences there would never trip on the common case of
	// a header guarding itself against being read twice in a row.
	included []string
}

// NewIncludeStack creates an empty stack with the given default <file>
// search paths.
func NewIncludeStack(searchPaths []string) *IncludeStack {
	return &IncludeStack{SearchPaths: searchPaths}
}

// Top returns the currently active Scanner, or nil if the stack is empty.
func (is *IncludeStack) Top() *Scanner {
	if len(is.scanners) == 0 {
		return nil
	}
	return is.scanners[len(is.scanners)-1]
}

// Push makes s the active Scanner.
func (is *IncludeStack) Push(s *Scanner) {
	is.scanners = append(is.scanners, s)
	is.included = append(is.included, s.FileName())
}

// Pop discards the active Scanner and resumes its parent. It returns the
// popped Scanner, or nil if the stack was already empty.
func (is *IncludeStack) Pop() *Scanner {
	if len(is.scanners) == 0 {
		return nil
	}
	top := is.scanners[len(is.scanners)-1]
	is.scanners = is.scanners[:len(is.scanners)-1]
	return top
}

// Depth returns the number of nested sources, including the top.
func (is *IncludeStack) Depth() int {
	return len(is.scanners)
}

// fileNameOccurrences counts how many times name has ever been pushed,
// across the whole lifetime of this stack, not just the currently live
// frames.
func (is *IncludeStack) fileNameOccurrences(name string) int {
	n := 0
	for _, included := range is.included {
		if included == name {
			n++
		}
	}
	return n
}

// ProcessPragmaOnce implements #pragma once: if the active Scanner's
// file name has been pushed before (at any time during this run, not only
// on the live stack), the active Scanner is popped immediately (the rest
// of this inclusion is skipped). It returns true if it popped.
func (is *IncludeStack) ProcessPragmaOnce() bool {
	top := is.Top()
	if top == nil {
		return false
	}
	if is.fileNameOccurrences(top.FileName()) > 1 {
		is.Pop()
		return true
	}
	return false
}

// Resolve finds the file system path for an include. Quoted includes
// search only the directory of the including file; angled includes
// search is.SearchPaths in order.
func (is *IncludeStack) Resolve(name string, kind IncludeKind) (string, bool) {
	var dirs []string
	if kind == IncludeQuoted {
		if top := is.Top(); top != nil {
			dirs = append(dirs, filepath.Dir(top.FileName()))
		}
	} else {
		dirs = append(dirs, is.SearchPaths...)
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
