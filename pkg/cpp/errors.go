package cpp

import (
	"fmt"
	"os"
)

// ErrorCallbacks is the pluggable error-reporting sink used by Scanner and
// Preprocessor. The concrete sink (stderr printer, exception thrower, test
// collector) is an external collaborator; this package only defines the
// interface and a stderr-writing default.
type ErrorCallbacks interface {
	Error(message string, fatal bool)
	Warning(message string)
}

// stderrErrorCallbacks is the default ErrorCallbacks: it writes every
// message to os.Stderr and never panics, regardless of fatal.
type stderrErrorCallbacks struct{}

func (stderrErrorCallbacks) Error(message string, fatal bool) {
	prefix := "error"
	if fatal {
		prefix = "fatal error"
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, message)
}

func (stderrErrorCallbacks) Warning(message string) {
	fmt.Fprintf(os.Stderr, "warning: %s\n", message)
}

var defaultErrorCallbacks ErrorCallbacks = stderrErrorCallbacks{}

// SetDefaultErrorCallbacks replaces the process-wide default sink used by
// Scanners and Preprocessors that do not set their own. Not reentrant with
// in-flight scanning, mirroring the process-wide punctuation table.
func SetDefaultErrorCallbacks(cb ErrorCallbacks) {
	if cb == nil {
		defaultErrorCallbacks = stderrErrorCallbacks{}
		return
	}
	defaultErrorCallbacks = cb
}

// SyntaxError reports a lexical-level problem: unknown character, unclosed
// string, newline in string, invalid escape.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error: %s", e.File, e.Line, e.Msg)
}

// GrammarError reports an unexpected token kind, a trailing operator, or
// mismatched parentheses in an expression.
type GrammarError struct {
	Msg string
}

func (e *GrammarError) Error() string { return "grammar error: " + e.Msg }

// SemanticError reports an undefined constant, a self-referential macro, a
// division by zero, or a wrong macro argument count.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string { return "semantic error: " + e.Msg }

// StateError reports misuse of preprocessor state: two scripts loaded at
// once, a misplaced #else/#elif/#endif.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return "state error: " + e.Msg }
