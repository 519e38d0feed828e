package cpp

import (
	"fmt"
	"os"
)

// ScanFlag is the Scanner configuration bitmask of spec.md section 6.
type ScanFlag uint32

const (
	ScanNoErrors ScanFlag = 1 << iota
	ScanNoWarnings
	ScanNoFatalErrors
	ScanNoStringConcat
	ScanNoStringEscapeChars
	ScanAllowPathNames
	ScanAllowNumberNames
	ScanAllowIPAddresses
	ScanAllowFloatExceptions
	ScanAllowMultiCharLiterals
	ScanAllowBackslashStringConcat
	ScanOnlyStrings
)

// Scanner consumes a character buffer and emits a stream of Tokens. It
// owns the buffer when opened from a file path, or borrows it (and must
// not outlive it) when opened from an external buffer.
type Scanner struct {
	buf      []byte // NUL-terminated: buf[len(buf)-1] == 0
	owned    bool
	pos      int
	fileName string
	flags    ScanFlag
	punct    *PunctTable

	line int

	// Pushback: a single unread slot.
	pushed      Token
	pushedValid bool

	// Last-read position, for the one-token pushback/peek family.
	lastPos  int
	lastLine int

	errorCount   int
	warningCount int
	callbacks    ErrorCallbacks
}

// NewScannerFromBuffer creates a Scanner over an external buffer. A buf
// whose last byte is NUL is used in place and must remain valid for the
// Scanner's lifetime; any other buf is copied into a NUL-terminated
// buffer first. The caller retains ownership (Clear never frees it).
func NewScannerFromBuffer(buf []byte, name string, flags ScanFlag, startLine int) *Scanner {
	nulTerminated := buf
	if len(buf) == 0 || buf[len(buf)-1] != 0 {
		nulTerminated = make([]byte, len(buf)+1)
		copy(nulTerminated, buf)
	}
	if startLine <= 0 {
		startLine = 1
	}
	return &Scanner{
		buf:       nulTerminated,
		owned:     false,
		fileName:  name,
		flags:     flags,
		punct:     defaultPunctTable,
		line:      startLine,
		callbacks: defaultErrorCallbacks,
	}
}

// OpenFile creates a Scanner that owns a buffer read from path.
func OpenFile(path string, flags ScanFlag) (*Scanner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cpp: open %s: %w", path, err)
	}
	s := NewScannerFromBuffer(data, path, flags, 1)
	s.owned = true
	return s, nil
}

// SetPunctTable overrides the punctuation table used by this Scanner.
func (s *Scanner) SetPunctTable(t *PunctTable) { s.punct = t }

// SetErrorCallbacks overrides the error/warning sink used by this Scanner.
func (s *Scanner) SetErrorCallbacks(cb ErrorCallbacks) { s.callbacks = cb }

// FileName returns the name associated with this Scanner's source.
func (s *Scanner) FileName() string { return s.fileName }

// Line returns the current line number.
func (s *Scanner) Line() int { return s.line }

// Flags returns the active scanner flag bitmask.
func (s *Scanner) Flags() ScanFlag { return s.flags }

// SetFlags replaces the active scanner flag bitmask (used by
// #pragma warning:(enable|disable) to toggle ScanNoWarnings per file).
func (s *Scanner) SetFlags(f ScanFlag) { s.flags = f }

// SetLine overrides the current line number, used by #line. If a token has
// already been scanned ahead into the pushback slot (readLogicalLine peeks
// one token past the directive to find its end), that token's Line is
// retargeted too, since it was stamped before the override took effect.
func (s *Scanner) SetLine(n int) {
	if s.pushedValid {
		s.pushed.Line = n + s.pushed.LinesCrossed - 1
	}
	s.line = n
}

// SetFileName overrides the name associated with this Scanner's source,
// used by #line's optional filename argument.
func (s *Scanner) SetFileName(name string) { s.fileName = name }

// PeekRawByte returns the next unread byte without skipping whitespace
// or comments. Used by directive handling that needs to distinguish
// adjacency (e.g. '(' immediately after a macro name) or that reads raw
// text the tokenizer wouldn't run together (e.g. #include <a/b.h>).
func (s *Scanner) PeekRawByte() byte { return s.peekByte(0) }

// ReadRawUntil consumes raw bytes with no tokenization, stopping after
// consuming stop or upon reaching lineStop/EOF (neither is consumed).
func (s *Scanner) ReadRawUntil(stop, lineStop byte) string {
	start := s.pos
	for {
		c := s.peekByte(0)
		if c == 0 || c == lineStop {
			break
		}
		s.advanceByte()
		if c == stop {
			break
		}
	}
	return string(s.buf[start:s.pos])
}

// ErrorCount and WarningCount are monotonically non-decreasing counters.
func (s *Scanner) ErrorCount() int   { return s.errorCount }
func (s *Scanner) WarningCount() int { return s.warningCount }

// Reset rewinds the Scanner to the start of its buffer.
func (s *Scanner) Reset(startLine int) {
	s.pos = 0
	if startLine <= 0 {
		startLine = 1
	}
	s.line = startLine
	s.pushedValid = false
}

// Clear releases buffer ownership. Borrowed buffers are simply forgotten.
func (s *Scanner) Clear() {
	s.buf = nil
	s.owned = false
	s.pos = 0
}

func (s *Scanner) errorf(format string, args ...interface{}) bool {
	s.errorCount++
	msg := fmt.Sprintf("%s:%d: %s", s.fileName, s.line, fmt.Sprintf(format, args...))
	fatal := s.flags&ScanNoFatalErrors == 0
	if s.flags&ScanNoErrors == 0 {
		s.callbacks.Error(msg, fatal)
	}
	return false
}

func (s *Scanner) warnf(format string, args ...interface{}) {
	s.warningCount++
	if s.flags&ScanNoWarnings == 0 {
		msg := fmt.Sprintf("%s:%d: %s", s.fileName, s.line, fmt.Sprintf(format, args...))
		s.callbacks.Warning(msg)
	}
}

// --- low level buffer access -------------------------------------------------

func (s *Scanner) peekByte(offset int) byte {
	i := s.pos + offset
	if i < 0 || i >= len(s.buf) {
		return 0
	}
	return s.buf[i]
}

func (s *Scanner) advanceByte() byte {
	c := s.peekByte(0)
	if c == 0 {
		return 0
	}
	s.pos++
	if c == '\n' {
		s.line++
	}
	return c
}

func (s *Scanner) remaining() string {
	if s.pos >= len(s.buf) {
		return ""
	}
	end := len(s.buf)
	if end > 0 && s.buf[end-1] == 0 {
		end--
	}
	return string(s.buf[s.pos:end])
}

func (s *Scanner) atEOF() bool {
	return s.peekByte(0) == 0
}

// --- whitespace and comments -------------------------------------------------

// skipWhitespace skips blanks, tabs, CR and newlines (tracking line
// count) but does not skip comments; it returns false if it consumed
// nothing (used by the string-concatenation lookahead).
func (s *Scanner) skipWhitespace() bool {
	start := s.pos
	for {
		switch s.peekByte(0) {
		case ' ', '\t', '\r', '\v', '\f', '\n':
			s.advanceByte()
		default:
			return s.pos != start
		}
	}
}

// skipWhitespaceAndComments skips runs of whitespace, "// line" comments,
// and "/* block */" comments (warning on nested "/*" inside a block).
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch {
		case s.skipWhitespace():
			continue
		case s.peekByte(0) == '/' && s.peekByte(1) == '/':
			for s.peekByte(0) != 0 && s.peekByte(0) != '\n' {
				s.advanceByte()
			}
		case s.peekByte(0) == '/' && s.peekByte(1) == '*':
			s.advanceByte()
			s.advanceByte()
			warned := false
			for {
				if s.peekByte(0) == 0 {
					s.errorf("unterminated block comment")
					return
				}
				if s.peekByte(0) == '/' && s.peekByte(1) == '*' && !warned {
					s.warnf("nested comment marker '/*' found inside a block comment")
					warned = true
				}
				if s.peekByte(0) == '*' && s.peekByte(1) == '/' {
					s.advanceByte()
					s.advanceByte()
					break
				}
				s.advanceByte()
			}
		default:
			return
		}
	}
}

// --- token dispatch -----------------------------------------------------------

// NextToken implements the core scanning algorithm of spec.md section 4.2.
func (s *Scanner) NextToken(out *Token) bool {
	if s.pushedValid {
		*out = s.pushed
		s.pushedValid = false
		return true
	}

	s.lastPos, s.lastLine = s.pos, s.line

	startLineBeforeSkip := s.line
	s.skipWhitespaceAndComments()

	*out = Token{}
	out.Line = s.line
	out.LinesCrossed = s.line - startLineBeforeSkip

	if s.atEOF() {
		return false
	}

	if s.flags&ScanOnlyStrings != 0 {
		return s.scanOnlyStringsToken(out)
	}

	c := s.peekByte(0)
	switch {
	case c == '"' || c == '\'':
		return s.scanStringOrLiteral(out, c)

	case isDigit(c) || (c == '.' && isDigit(s.peekByte(1))):
		if !s.scanNumber(out) {
			return false
		}
		if s.flags&ScanAllowNumberNames != 0 && isIdentStart(s.peekByte(0)) {
			return s.continueAsIdentifier(out)
		}
		return true

	case isIdentStart(c):
		return s.scanIdentifier(out)

	case (c == '/' || c == '\\' || c == '.') && s.flags&ScanAllowPathNames != 0:
		return s.scanIdentifier(out)

	default:
		if s.scanPunctuation(out) {
			return true
		}
		return s.errorf("unexpected character %q", c)
	}
}

// continueAsIdentifier is used when allow_number_names lets a token that
// started as a number continue into an identifier (e.g. "1st"); the
// resulting token is reclassified as an identifier.
func (s *Scanner) continueAsIdentifier(out *Token) bool {
	prefix := out.Text
	var ident Token
	if !s.scanIdentifier(&ident) {
		return false
	}
	out.Cat = CatIdentifier
	out.SetFlags(0)
	out.SetText(prefix + ident.Text)
	return true
}

// scanOnlyStringsToken implements the only_strings mode: every
// whitespace-delimited run becomes a single string token, stopping only
// at whitespace or EOF (never at interior punctuation, unlike the normal
// identifier dispatch); quoted runs keep their quoting semantics via
// scanStringOrLiteral.
func (s *Scanner) scanOnlyStringsToken(out *Token) bool {
	c := s.peekByte(0)
	if c == '"' || c == '\'' {
		return s.scanStringOrLiteral(out, c)
	}
	out.Cat = CatString
	for !isRunWhitespace(s.peekByte(0)) && !s.atEOF() {
		out.Append(s.advanceByte())
	}
	return true
}

func isRunWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\v', '\f', '\n':
		return true
	default:
		return false
	}
}

// PushBack returns tok to the Scanner so the next NextToken call returns
// it verbatim. Pushing a second token before it is consumed overwrites the
// slot and emits a warning.
func (s *Scanner) PushBack(tok Token) {
	if s.pushedValid {
		s.warnf("pushing back a second token overwrites the pending one")
	}
	s.pushed = tok
	s.pushedValid = true
}

// --- peek/check/expect helpers ------------------------------------------------

// PeekToken returns the next token without consuming it.
func (s *Scanner) PeekToken(out *Token) bool {
	if s.pushedValid {
		*out = s.pushed
		return true
	}
	ok := s.NextToken(out)
	if ok {
		s.PushBack(*out)
	}
	return ok
}

// CheckPunctuation consumes the next token and returns true only if it is
// the given punctuation; it rewinds on a miss.
func (s *Scanner) CheckPunctuation(id PunctuationID) bool {
	var tok Token
	if !s.NextToken(&tok) {
		return false
	}
	if tok.Cat == CatPunctuation && tok.PunctID() == id {
		return true
	}
	s.PushBack(tok)
	return false
}

// ExpectPunctuation consumes the next token, failing with a descriptive
// error if it is not the given punctuation.
func (s *Scanner) ExpectPunctuation(id PunctuationID) bool {
	if s.CheckPunctuation(id) {
		return true
	}
	return s.errorf("expected '%s'", s.punct.TextForID(id))
}

// ExpectAnyToken consumes and returns the next token, failing if input is
// exhausted.
func (s *Scanner) ExpectAnyToken(out *Token) bool {
	if s.NextToken(out) {
		return true
	}
	return s.errorf("unexpected end of input")
}

// NextTokenOnLine returns the next token only if it did not cross a
// newline; otherwise it rewinds and returns false.
func (s *Scanner) NextTokenOnLine(out *Token) bool {
	if !s.NextToken(out) {
		return false
	}
	if out.LinesCrossed > 0 {
		s.PushBack(*out)
		return false
	}
	return true
}

// SkipBracketedSection skips a {...} section, tracking nesting depth. The
// opening '{' must not have been consumed yet: tokens are read up to and
// including the '}' that balances the first '{' read here.
func (s *Scanner) SkipBracketedSection() bool {
	depth := 0
	var tok Token
	for {
		if !s.NextToken(&tok) {
			if depth != 0 {
				return s.errorf("unexpected end of file inside bracketed section")
			}
			return true
		}
		if tok.Cat == CatPunctuation {
			switch tok.PunctID() {
			case PunctOpenCurly:
				depth++
			case PunctCloseCurly:
				depth--
				if depth <= 0 {
					return true
				}
			}
		}
	}
}

// ScanBracketedSectionExact returns the raw source text of a {...} section,
// including the braces and original indentation.
func (s *Scanner) ScanBracketedSectionExact() (string, bool) {
	if !s.ExpectPunctuation(PunctOpenCurly) {
		return "", false
	}
	start := s.pos
	depth := 1
	for depth > 0 {
		c := s.peekByte(0)
		if c == 0 {
			return "", s.errorf("unexpected end of file inside bracketed section")
		}
		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
		}
		s.advanceByte()
	}
	end := s.pos - 1 // exclude the final '}'
	return "{" + string(s.buf[start:end]) + "}", true
}

// scanMatrixNd family: thin wrappers expecting the given open/close
// punctuation with comma-separated elements (trailing comma optional).

// ScanMatrix1D reads x comma-separated numbers between open and close.
func (s *Scanner) ScanMatrix1D(x int, open, close PunctuationID) ([]float64, bool) {
	if !s.ExpectPunctuation(open) {
		return nil, false
	}
	out := make([]float64, 0, x)
	for i := 0; i < x; i++ {
		var tok Token
		if !s.ExpectAnyToken(&tok) {
			return nil, false
		}
		out = append(out, tok.AsFloat())
		if i != x-1 {
			s.CheckPunctuation(PunctComma)
		}
	}
	s.CheckPunctuation(PunctComma) // optional trailing comma
	if !s.ExpectPunctuation(close) {
		return nil, false
	}
	return out, true
}

// ScanMatrix2D reads a y-by-x matrix of comma-separated rows.
func (s *Scanner) ScanMatrix2D(y, x int, open, close PunctuationID) ([][]float64, bool) {
	if !s.ExpectPunctuation(open) {
		return nil, false
	}
	out := make([][]float64, 0, y)
	for i := 0; i < y; i++ {
		row, ok := s.ScanMatrix1D(x, open, close)
		if !ok {
			return nil, false
		}
		out = append(out, row)
		if i != y-1 {
			s.CheckPunctuation(PunctComma)
		}
	}
	s.CheckPunctuation(PunctComma)
	if !s.ExpectPunctuation(close) {
		return nil, false
	}
	return out, true
}

// ScanMatrix3D reads a z-by-y-by-x matrix of comma-separated planes.
func (s *Scanner) ScanMatrix3D(z, y, x int, open, close PunctuationID) ([][][]float64, bool) {
	if !s.ExpectPunctuation(open) {
		return nil, false
	}
	out := make([][][]float64, 0, z)
	for i := 0; i < z; i++ {
		plane, ok := s.ScanMatrix2D(y, x, open, close)
		if !ok {
			return nil, false
		}
		out = append(out, plane)
		if i != z-1 {
			s.CheckPunctuation(PunctComma)
		}
	}
	s.CheckPunctuation(PunctComma)
	if !s.ExpectPunctuation(close) {
		return nil, false
	}
	return out, true
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
