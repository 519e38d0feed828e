package cpp

import (
	"fmt"
	"strings"
	"time"
)

// PPFlag configures a Preprocessor, per spec.md section 6.
type PPFlag uint32

const (
	PPNoErrors PPFlag = 1 << iota
	PPNoWarnings
	PPNoFatalErrors
	PPNoDollarPreproc
	PPNoBaseIncludes
	PPNoIncludes
	PPWarnMacroRedefinitions
)

// PreprocessorOptions configures a new Preprocessor.
type PreprocessorOptions struct {
	Defines      []string // "NAME" or "NAME=VALUE", applied before scanning starts
	Undefines    []string
	IncludePaths []string
	ScanFlags    ScanFlag
	Flags        PPFlag
	EvalFlags    EvalFlag
	LineHint     int
	Clock        BuiltinClock // nil uses the wall clock
}

// Preprocessor drives the full pipeline of spec.md section 3 over one
// translation unit: Scanner -> Expander -> ConditionalStack -> Minifier,
// with IncludeStack supplying nested sources.
type Preprocessor struct {
	Options  PreprocessorOptions
	macros   *MacroTable
	expander *Expander
	cond     *ConditionalStack
	includes *IncludeStack
	out      *Minifier
	pending  []Token

	errorCount   int
	warningCount int
}

// systemClock is the default BuiltinClock, backed by wall time.
type systemClock struct{}

func (systemClock) Date() string { return time.Now().Format("Jan 02 2006") }
func (systemClock) Time() string { return time.Now().Format("15:04:05") }

// NewPreprocessor creates a Preprocessor, registers the default builtin
// macros, and applies opts.Defines/opts.Undefines.
func NewPreprocessor(opts PreprocessorOptions) *Preprocessor {
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	macros := NewMacroTable()
	macros.RegisterDefaultBuiltins(clock)

	pp := &Preprocessor{
		Options:  opts,
		macros:   macros,
		expander: NewExpander(macros),
		cond:     NewConditionalStack(),
		includes: NewIncludeStack(opts.IncludePaths),
		out:      NewMinifier(opts.LineHint),
	}

	for _, d := range opts.Defines {
		pp.applyCommandLineDefine(d)
	}
	for _, u := range opts.Undefines {
		macros.Undef(u)
	}
	return pp
}

// applyCommandLineDefine implements a "-D NAME" / "-D NAME=VALUE" define,
// mirroring the command line convention of a C compiler's preprocessor.
func (pp *Preprocessor) applyCommandLineDefine(def string) {
	name, value := def, "1"
	if idx := strings.IndexByte(def, '='); idx != -1 {
		name, value = def[:idx], def[idx+1:]
	}
	var body []Token
	if value != "" {
		s := NewScannerFromBuffer([]byte(value), "<command-line>", ScanNoErrors|ScanNoWarnings, 1)
		var tok Token
		for s.NextToken(&tok) {
			body = append(body, tok)
		}
	}
	pp.macros.DefineObject(name, body)
}

// PreprocessFile reads path and returns its fully preprocessed, minified
// output.
func (pp *Preprocessor) PreprocessFile(path string) (string, error) {
	s, err := OpenFile(path, pp.Options.ScanFlags)
	if err != nil {
		return "", err
	}
	return pp.run(s)
}

// PreprocessString preprocesses src as though it were read from filename
// (used for diagnostics and __FILE__).
func (pp *Preprocessor) PreprocessString(src, filename string) (string, error) {
	s := NewScannerFromBuffer([]byte(src), filename, pp.Options.ScanFlags, 1)
	return pp.run(s)
}

func (pp *Preprocessor) run(root *Scanner) (string, error) {
	pp.includes.Push(root)
	atBOL := true

	for pp.includes.Depth() > 0 {
		s := pp.includes.Top()

		var tok Token
		if !s.NextToken(&tok) {
			pp.includes.Pop()
			atBOL = true
			continue
		}
		ctx := BuiltinContext{FileName: s.FileName(), Line: tok.Line}

		isIntroducer := (atBOL || tok.LinesCrossed > 0) && tok.Cat == CatPunctuation &&
			(tok.PunctID() == PunctHash || (tok.PunctID() == PunctDollar && pp.Options.Flags&PPNoDollarPreproc == 0))
		atBOL = false

		if isIntroducer {
			if err := pp.handleDirective(s, tok); err != nil {
				return pp.out.String(), err
			}
			for _, t := range pp.flushPending() {
				pp.out.Emit(t)
			}
			atBOL = true
			continue
		}

		if !pp.cond.IsActive() {
			continue
		}

		expanded, err := pp.expander.ExpandStream(s, tok, ctx)
		if err != nil {
			if werr := pp.errorf(s, "%v", err); werr != nil {
				return pp.out.String(), werr
			}
			continue
		}
		for _, t := range expanded {
			pp.out.Emit(t)
		}
	}

	if err := pp.cond.CheckBalanced(); err != nil {
		return pp.out.String(), err
	}
	return pp.out.String(), nil
}

func (pp *Preprocessor) flushPending() []Token {
	t := pp.pending
	pp.pending = nil
	return t
}

func (pp *Preprocessor) queueEmit(toks ...Token) {
	pp.pending = append(pp.pending, toks...)
}

// errorf reports a fatal diagnostic against s. Per spec.md section 6, when
// PPNoFatalErrors is set the diagnostic is still counted (and reported,
// unless PPNoErrors is set) but nil is returned so the caller continues.
func (pp *Preprocessor) errorf(s *Scanner, format string, args ...interface{}) error {
	pp.errorCount++
	msg := fmt.Sprintf(format, args...)
	if pp.Options.Flags&PPNoErrors == 0 {
		s.callbacks.Error(fmt.Sprintf("%s:%d: %s", s.FileName(), s.Line(), msg), pp.Options.Flags&PPNoFatalErrors == 0)
	}
	if pp.Options.Flags&PPNoFatalErrors != 0 {
		return nil
	}
	return &StateError{Msg: msg}
}

func (pp *Preprocessor) warnf(s *Scanner, format string, args ...interface{}) {
	pp.warningCount++
	if pp.Options.Flags&PPNoWarnings == 0 {
		s.callbacks.Warning(fmt.Sprintf("%s:%d: %s", s.FileName(), s.Line(), fmt.Sprintf(format, args...)))
	}
}

func (pp *Preprocessor) wrapErr(s *Scanner, err error) error {
	if err == nil {
		return nil
	}
	return pp.errorf(s, "%v", err)
}

// ErrorCount and WarningCount report the diagnostics raised by the
// Preprocessor itself (directives, expansion, evaluation). Lexical
// diagnostics are counted by each Scanner's own ErrorCount/WarningCount.
func (pp *Preprocessor) ErrorCount() int   { return pp.errorCount }
func (pp *Preprocessor) WarningCount() int { return pp.warningCount }

// macroLookup adapts a Preprocessor to the ConstLookup interface $eval
// uses to resolve identifiers (#if/#elif evaluate without it): a defined
// object-like macro whose
// body is a single number token evaluates to that number, matching how a
// real preprocessor resolves a numeric #define inside a constant expression.
type macroLookup struct {
	pp *Preprocessor
}

func (l macroLookup) IsDefined(name string) bool {
	return l.pp.macros.IsDefined(name)
}

func (l macroLookup) LookupValue(name string) (Value, bool) {
	m := l.pp.macros.Lookup(name)
	if m == nil || m.Kind != MacroObject {
		return Value{}, false
	}
	body := m.Body(l.pp.macros)
	if len(body) != 1 || body[0].Cat != CatNumber {
		return Value{}, false
	}
	if body[0].Flags&FlagFloatingPoint != 0 {
		return floatValue(body[0].AsFloat()), true
	}
	return intValue(body[0].AsInt()), true
}
