package cpp

import (
	"fmt"
	"strings"
)

// Expander performs macro expansion per spec.md section 4.4: parameter
// binding, '#' stringize, '##' paste, __VA_ARGS__, and recursive
// expansion with self-reference detection via a hideset ("blue paint").
type Expander struct {
	macros *MacroTable
}

// NewExpander creates an Expander bound to a macro table.
func NewExpander(macros *MacroTable) *Expander {
	return &Expander{macros: macros}
}

// Expand macro-expands tokens at the given source position.
func (e *Expander) Expand(tokens []Token, ctx BuiltinContext) ([]Token, error) {
	return e.expand(tokens, map[string]bool{}, ctx)
}

func cloneHideset(h map[string]bool) map[string]bool {
	n := make(map[string]bool, len(h)+1)
	for k, v := range h {
		n[k] = v
	}
	return n
}

func (e *Expander) expand(tokens []Token, hideset map[string]bool, ctx BuiltinContext) ([]Token, error) {
	var out []Token
	i := 0
	for i < len(tokens) {
		tok := tokens[i]

		if tok.Cat != CatIdentifier {
			out = append(out, tok)
			i++
			continue
		}

		if tok.Text == "__VA_ARGS__" {
			return nil, &SemanticError{Msg: "__VA_ARGS__ used outside a variadic macro expansion"}
		}

		m := e.macros.Lookup(tok.Text)
		if m == nil {
			out = append(out, tok)
			i++
			continue
		}
		if hideset[tok.Text] {
			return nil, &SemanticError{Msg: fmt.Sprintf("macro expansion references itself: %s", tok.Text)}
		}

		switch m.Kind {
		case MacroBuiltin:
			out = append(out, m.Builtin(ctx)...)
			i++

		case MacroFunction:
			j := i + 1
			if j >= len(tokens) || tokens[j].Cat != CatPunctuation || tokens[j].PunctID() != PunctOpenParen {
				out = append(out, tok)
				i++
				continue
			}
			args, endIdx, err := e.collectArgs(tokens, j)
			if err != nil {
				return nil, err
			}
			if err := e.validateArgCount(m, args); err != nil {
				return nil, err
			}
			replaced, err := e.substituteFunction(m, args, hideset, ctx)
			if err != nil {
				return nil, err
			}
			nh := cloneHideset(hideset)
			nh[tok.Text] = true
			rep, err := e.expand(replaced, nh, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, rep...)
			i = endIdx + 1

		default: // MacroObject
			body := append([]Token{}, m.Body(e.macros)...)
			if err := checkPasteEdges(body); err != nil {
				return nil, err
			}
			pasted, err := pasteTokens(body)
			if err != nil {
				return nil, err
			}
			nh := cloneHideset(hideset)
			nh[tok.Text] = true
			rep, err := e.expand(pasted, nh, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, rep...)
			i++
		}
	}
	return out, nil
}

// ExpandStream resolves a single identifier token pulled from the main
// preprocessing loop, which may be a function-like macro invocation
// whose '(' and arguments have not been scanned yet. It reads directly
// from s (with pushback on a non-call lookahead miss) rather than from a
// pre-collected slice, since the call's argument list can span tokens
// the main loop has not yet produced.
func (e *Expander) ExpandStream(s *Scanner, tok Token, ctx BuiltinContext) ([]Token, error) {
	return e.expandStream(s, tok, map[string]bool{}, ctx)
}

func (e *Expander) expandStream(s *Scanner, tok Token, hideset map[string]bool, ctx BuiltinContext) ([]Token, error) {
	if tok.Cat != CatIdentifier {
		return []Token{tok}, nil
	}
	if tok.Text == "__VA_ARGS__" {
		return nil, &SemanticError{Msg: "__VA_ARGS__ used outside a variadic macro expansion"}
	}
	m := e.macros.Lookup(tok.Text)
	if m == nil {
		return []Token{tok}, nil
	}
	if hideset[tok.Text] {
		return nil, &SemanticError{Msg: fmt.Sprintf("macro expansion references itself: %s", tok.Text)}
	}

	switch m.Kind {
	case MacroBuiltin:
		return m.Builtin(ctx), nil

	case MacroFunction:
		var next Token
		if !s.NextToken(&next) {
			return []Token{tok}, nil
		}
		if !(next.Cat == CatPunctuation && next.PunctID() == PunctOpenParen) {
			s.PushBack(next)
			return []Token{tok}, nil
		}
		args, err := e.collectArgsFromScanner(s)
		if err != nil {
			return nil, err
		}
		if err := e.validateArgCount(m, args); err != nil {
			return nil, err
		}
		replaced, err := e.substituteFunction(m, args, hideset, ctx)
		if err != nil {
			return nil, err
		}
		nh := cloneHideset(hideset)
		nh[tok.Text] = true
		return e.expand(replaced, nh, ctx)

	default: // MacroObject
		body := append([]Token{}, m.Body(e.macros)...)
		if err := checkPasteEdges(body); err != nil {
			return nil, err
		}
		pasted, err := pasteTokens(body)
		if err != nil {
			return nil, err
		}
		nh := cloneHideset(hideset)
		nh[tok.Text] = true
		return e.expand(pasted, nh, ctx)
	}
}

// collectArgsFromScanner reads a function-like macro invocation's
// arguments directly from the scanner; the opening '(' must already
// have been consumed by the caller.
func (e *Expander) collectArgsFromScanner(s *Scanner) ([][]Token, error) {
	depth := 1
	var args [][]Token
	var cur []Token

	for {
		var t Token
		if !s.ExpectAnyToken(&t) {
			return nil, &GrammarError{Msg: "unterminated macro argument list"}
		}
		if t.Cat == CatPunctuation {
			switch t.PunctID() {
			case PunctOpenParen:
				depth++
				cur = append(cur, t)
			case PunctCloseParen:
				depth--
				if depth == 0 {
					if len(cur) > 0 || len(args) > 0 {
						args = append(args, cur)
					}
					return args, nil
				}
				cur = append(cur, t)
			case PunctComma:
				if depth == 1 {
					args = append(args, cur)
					cur = nil
				} else {
					cur = append(cur, t)
				}
			default:
				cur = append(cur, t)
			}
		} else {
			cur = append(cur, t)
		}
	}
}

// collectArgs reads a function-like macro invocation's arguments
// starting at tokens[openIdx] == '('. It splits on every top-level
// comma; callers that need __VA_ARGS__ re-join args beyond the fixed
// parameter count.
func (e *Expander) collectArgs(tokens []Token, openIdx int) (args [][]Token, endIdx int, err error) {
	i := openIdx + 1
	depth := 1
	var cur []Token

	for i < len(tokens) {
		t := tokens[i]
		if t.Cat == CatPunctuation {
			switch t.PunctID() {
			case PunctOpenParen:
				depth++
				cur = append(cur, t)
			case PunctCloseParen:
				depth--
				if depth == 0 {
					if len(cur) > 0 || len(args) > 0 {
						args = append(args, cur)
					}
					return args, i, nil
				}
				cur = append(cur, t)
			case PunctComma:
				if depth == 1 {
					args = append(args, cur)
					cur = nil
				} else {
					cur = append(cur, t)
				}
			default:
				cur = append(cur, t)
			}
		} else {
			cur = append(cur, t)
		}
		i++
	}
	return nil, 0, &GrammarError{Msg: "unterminated macro argument list"}
}

func (e *Expander) validateArgCount(m *Macro, args [][]Token) error {
	params := m.Params(e.macros)
	if m.IsVariadic {
		if len(args) < len(params) {
			return &SemanticError{Msg: fmt.Sprintf("macro %s requires at least %d arguments, got %d", m.Name, len(params), len(args))}
		}
		return nil
	}
	if len(args) != len(params) {
		return &SemanticError{Msg: fmt.Sprintf("macro %s requires %d arguments, got %d", m.Name, len(params), len(args))}
	}
	return nil
}

func joinWithComma(groups [][]Token) []Token {
	var out []Token
	for i, g := range groups {
		if i > 0 {
			out = append(out, Token{Cat: CatPunctuation, Text: ",", Flags: NumberFlag(PunctComma)})
		}
		out = append(out, g...)
	}
	return out
}

// substituteFunction binds params to args in the macro body, handling
// '#' stringize and '##' paste, and returns the (not yet recursively
// expanded) replacement list.
func (e *Expander) substituteFunction(m *Macro, args [][]Token, hideset map[string]bool, ctx BuiltinContext) ([]Token, error) {
	body := m.Body(e.macros)
	if err := checkPasteEdges(body); err != nil {
		return nil, err
	}

	params := m.Params(e.macros)
	paramIndex := make(map[string]int, len(params))
	for i, p := range params {
		paramIndex[p] = i
	}

	var vaArgsRaw []Token
	if m.IsVariadic && len(args) > len(params) {
		vaArgsRaw = joinWithComma(args[len(params):])
	}

	argFor := func(name string) ([]Token, bool) {
		if name == "__VA_ARGS__" && m.IsVariadic {
			return vaArgsRaw, true
		}
		if idx, ok := paramIndex[name]; ok {
			return args[idx], true
		}
		return nil, false
	}

	var out []Token
	for i := 0; i < len(body); i++ {
		tok := body[i]

		if tok.Cat == CatPunctuation && tok.PunctID() == PunctHash {
			if i+1 >= len(body) || body[i+1].Cat != CatIdentifier {
				return nil, &GrammarError{Msg: "'#' is not followed by a macro parameter"}
			}
			argToks, ok := argFor(body[i+1].Text)
			if !ok {
				return nil, &GrammarError{Msg: fmt.Sprintf("'#' is not followed by a macro parameter: %s", body[i+1].Text)}
			}
			out = append(out, stringizeTokens(argToks))
			i++
			continue
		}

		if tok.Cat == CatIdentifier {
			if argToks, ok := argFor(tok.Text); ok {
				beforePaste := i > 0 && isHashHashTok(body[i-1])
				afterPaste := i+1 < len(body) && isHashHashTok(body[i+1])
				if beforePaste || afterPaste {
					out = append(out, argToks...)
				} else {
					expanded, err := e.expand(argToks, hideset, ctx)
					if err != nil {
						return nil, err
					}
					out = append(out, expanded...)
				}
				continue
			}
		}

		out = append(out, tok)
	}

	return pasteTokens(out)
}

func isHashHashTok(t Token) bool {
	return t.Cat == CatPunctuation && t.PunctID() == PunctHashHash
}

// checkPasteEdges rejects a replacement list that begins or ends with
// '##'. A single '#' at either edge is not rejected here.
func checkPasteEdges(body []Token) error {
	if len(body) == 0 {
		return nil
	}
	first, last := body[0], body[len(body)-1]
	if isHashHashTok(first) || isHashHashTok(last) {
		return &GrammarError{Msg: "'##' cannot appear at the start or end of a macro body"}
	}
	return nil
}

// pasteTokens applies the '##' operator: each pasted run is concatenated
// textually and re-scanned into a single fresh token.
func pasteTokens(tokens []Token) ([]Token, error) {
	var out []Token
	i := 0
	for i < len(tokens) {
		if i+1 < len(tokens) && isHashHashTok(tokens[i+1]) {
			var sb strings.Builder
			sb.WriteString(tokens[i].Text)
			j := i + 1
			for j < len(tokens) && isHashHashTok(tokens[j]) {
				j++
				if j >= len(tokens) {
					return nil, &GrammarError{Msg: "'##' cannot appear at the end of a replacement list"}
				}
				sb.WriteString(tokens[j].Text)
				j++
			}
			pasted, ok := rescanOne(sb.String())
			if !ok {
				return nil, &SemanticError{Msg: fmt.Sprintf("pasted token %q does not form a valid token", sb.String())}
			}
			out = append(out, pasted)
			i = j
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out, nil
}

// rescanOne re-tokenizes a pasted string, returning its first token.
func rescanOne(text string) (Token, bool) {
	s := NewScannerFromBuffer([]byte(text), "<paste>", ScanNoErrors|ScanNoWarnings, 1)
	var tok Token
	if !s.NextToken(&tok) {
		return Token{}, false
	}
	return tok, true
}

// stringizeTokens implements the '#' operator: the tokens' source forms are
// joined with one space into a single CatString token. As with every
// CatString token the Text is unquoted (renderTokenText adds the outer
// quotes on output); nested string/literal tokens keep their own quotes,
// with embedded quotes/backslashes re-escaped.
func stringizeTokens(tokens []Token) Token {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch t.Cat {
		case CatString, CatLiteral:
			q := byte('"')
			if t.Cat == CatLiteral {
				q = '\''
			}
			sb.WriteByte(q)
			for j := 0; j < len(t.Text); j++ {
				c := t.Text[j]
				if c == '"' || c == '\\' {
					sb.WriteByte('\\')
				}
				sb.WriteByte(c)
			}
			sb.WriteByte(q)
		default:
			sb.WriteString(t.Text)
		}
	}
	return Token{Cat: CatString, Text: sb.String()}
}
