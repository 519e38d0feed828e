package cpp

import "strings"

// handleDirective dispatches on the directive name following a '#' or '$'
// introducer token already consumed from s.
func (pp *Preprocessor) handleDirective(s *Scanner, introducer Token) error {
	var name Token
	if !s.NextTokenOnLine(&name) {
		return nil // a bare '#'/'$' on its own line is a no-op
	}
	if name.Cat != CatIdentifier {
		return pp.errorf(s, "expected a preprocessor directive name, got %q", name.Text)
	}

	if introducer.PunctID() == PunctDollar {
		return pp.handleDollarDirective(s, name)
	}

	switch name.Text {
	case "if":
		return pp.handleIf(s)
	case "ifdef":
		return pp.handleIfdef(s, CondIfdef, true)
	case "ifndef":
		return pp.handleIfdef(s, CondIfndef, false)
	case "elif":
		return pp.handleElif(s)
	case "else":
		skipRestOfLine(s)
		return pp.wrapErr(s, pp.cond.Else())
	case "endif":
		skipRestOfLine(s)
		return pp.wrapErr(s, pp.cond.Endif())
	}

	if !pp.cond.IsActive() {
		skipRestOfLine(s)
		return nil
	}

	switch name.Text {
	case "include":
		return pp.handleInclude(s)
	case "define":
		return pp.handleDefine(s)
	case "undef":
		return pp.handleUndef(s)
	case "line":
		return pp.handleLine(s)
	case "error":
		return pp.handleError(s)
	case "warning", "warn":
		return pp.handleWarning(s)
	case "pragma":
		return pp.handlePragma(s)
	default:
		skipRestOfLine(s)
		if strings.HasPrefix(name.Text, "eval") {
			return pp.errorf(s, "unknown preprocessor directive %q; did you mean '$%s'?", name.Text, name.Text)
		}
		return pp.errorf(s, "unknown preprocessor directive %q", name.Text)
	}
}

// handleDollarDirective dispatches the `$eval`/`$evalint`/`$evalfloat`
// family, per spec.md section 6.
func (pp *Preprocessor) handleDollarDirective(s *Scanner, name Token) error {
	if pp.Options.Flags&PPNoDollarPreproc != 0 {
		skipRestOfLine(s)
		return pp.errorf(s, "$ directives are disabled")
	}

	var flags EvalFlag
	switch name.Text {
	case "eval":
		flags = EvalDetectType
	case "evalint":
		flags = EvalForceInt
	case "evalfloat":
		flags = EvalForceFloat
	default:
		skipRestOfLine(s)
		return pp.errorf(s, "unknown $ directive %q", name.Text)
	}
	flags |= pp.Options.EvalFlags &^ (EvalForceInt | EvalForceFloat | EvalDetectType)

	tokens, err := pp.collectParenExpr(s)
	if err != nil {
		return pp.wrapErr(s, err)
	}
	expanded, err := pp.expander.Expand(tokens, BuiltinContext{FileName: s.FileName(), Line: s.Line()})
	if err != nil {
		return pp.wrapErr(s, err)
	}
	ev := NewEvaluator(flags, macroLookup{pp})
	v, err := ev.Eval(expanded)
	if err != nil {
		return pp.wrapErr(s, err)
	}
	pp.queueEmit(ev.RenderToken(v))
	return nil
}

// collectParenExpr reads a single balanced-parenthesis expression
// immediately following a $eval-family directive name, returning its
// interior tokens without the enclosing parens.
func (pp *Preprocessor) collectParenExpr(s *Scanner) ([]Token, error) {
	if !s.ExpectPunctuation(PunctOpenParen) {
		return nil, &GrammarError{Msg: "expected '(' after $eval directive"}
	}
	depth := 1
	var out []Token
	for {
		var t Token
		if !s.ExpectAnyToken(&t) {
			return nil, &GrammarError{Msg: "unterminated $eval expression"}
		}
		if t.Cat == CatPunctuation {
			switch t.PunctID() {
			case PunctOpenParen:
				depth++
			case PunctCloseParen:
				depth--
				if depth == 0 {
					return out, nil
				}
			}
		}
		out = append(out, t)
	}
}

// handleIf implements #if: the condition is evaluated only if the
// enclosing context is currently active, per spec.md section 4.4.
func (pp *Preprocessor) handleIf(s *Scanner) error {
	tokens := readLogicalLine(s)
	if !pp.cond.IsActive() {
		pp.cond.PushSkipped(CondIf)
		return nil
	}
	result, err := pp.evalCondition(s, tokens)
	if err != nil {
		return pp.wrapErr(s, err)
	}
	pp.cond.PushResult(CondIf, result)
	return nil
}

// handleIfdef implements #ifdef (wantDefined true) and #ifndef
// (wantDefined false).
func (pp *Preprocessor) handleIfdef(s *Scanner, typ CondType, wantDefined bool) error {
	var name Token
	if !s.NextTokenOnLine(&name) || name.Cat != CatIdentifier {
		return pp.errorf(s, "expected an identifier after #ifdef/#ifndef")
	}
	skipRestOfLine(s)
	if !pp.cond.IsActive() {
		pp.cond.PushSkipped(typ)
		return nil
	}
	result := pp.macros.IsDefined(name.Text) == wantDefined
	pp.cond.PushResult(typ, result)
	return nil
}

// handleElif implements #elif. The ConditionalStack itself decides
// whether evaluation is actually needed; pp.evalCondition is only invoked
// when it is.
func (pp *Preprocessor) handleElif(s *Scanner) error {
	tokens := readLogicalLine(s)
	var evalErr error
	err := pp.cond.Elif(func() (bool, error) {
		r, e := pp.evalCondition(s, tokens)
		evalErr = e
		return r, e
	})
	if evalErr != nil {
		return pp.wrapErr(s, evalErr)
	}
	return pp.wrapErr(s, err)
}

// evalCondition evaluates a #if/#elif expression: defined(X)/defined X
// spans are protected from macro expansion (replaced with their literal
// 0/1 result) before the remainder is fully expanded, since standard
// preprocessor semantics require defined to see its operand unexpanded.
func (pp *Preprocessor) evalCondition(s *Scanner, tokens []Token) (bool, error) {
	protected := pp.replaceDefined(tokens)
	expanded, err := pp.expander.Expand(protected, BuiltinContext{FileName: s.FileName(), Line: s.Line()})
	if err != nil {
		return false, err
	}
	ev := NewEvaluator(pp.Options.EvalFlags|EvalAllowMathFuncs|EvalAllowMathConsts, nil)
	v, err := ev.Eval(expanded)
	if err != nil {
		return false, err
	}
	return v.truthy(), nil
}

// replaceDefined rewrites every `defined(NAME)` / `defined NAME` span in
// tokens into a literal 0/1 number token, leaving everything else
// untouched for the Expander to macro-expand afterward.
func (pp *Preprocessor) replaceDefined(tokens []Token) []Token {
	var out []Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if !(t.Cat == CatIdentifier && t.Text == "defined") {
			out = append(out, t)
			continue
		}
		j := i + 1
		paren := j < len(tokens) && tokens[j].Cat == CatPunctuation && tokens[j].PunctID() == PunctOpenParen
		if paren {
			j++
		}
		if j >= len(tokens) || tokens[j].Cat != CatIdentifier {
			out = append(out, t)
			continue
		}
		name := tokens[j].Text
		j++
		if paren {
			if j >= len(tokens) || tokens[j].Cat != CatPunctuation || tokens[j].PunctID() != PunctCloseParen {
				out = append(out, t)
				continue
			}
			j++
		}
		out = append(out, boolToken(pp.macros.IsDefined(name)))
		i = j - 1
	}
	return out
}

func boolToken(b bool) Token {
	text := "0"
	if b {
		text = "1"
	}
	return Token{Cat: CatNumber, Text: text, Flags: FlagDecimal | FlagInteger | FlagSignedInteger}
}

// handleDefine implements #define for both object-like and function-like
// macros, detecting the latter by an immediately-adjacent '(' (no
// intervening whitespace), per spec.md section 4.4.
func (pp *Preprocessor) handleDefine(s *Scanner) error {
	var name Token
	if !s.NextTokenOnLine(&name) || name.Cat != CatIdentifier {
		return pp.errorf(s, "macro names must be identifiers")
	}

	if s.PeekRawByte() != '(' {
		body := readLogicalLine(s)
		if err := checkPasteEdges(body); err != nil {
			return pp.wrapErr(s, err)
		}
		redefined := pp.macros.DefineObject(name.Text, body)
		pp.warnRedefinition(s, name.Text, redefined)
		return nil
	}

	var open Token
	s.NextToken(&open) // consume '('

	var params []string
	variadic := false
	emptyParen := false

	if s.CheckPunctuation(PunctCloseParen) {
		emptyParen = true
	} else {
		for {
			var p Token
			if !s.ExpectAnyToken(&p) {
				return pp.errorf(s, "unterminated macro parameter list")
			}
			if p.Cat == CatPunctuation && p.PunctID() == PunctEllipsis {
				variadic = true
				if !s.ExpectPunctuation(PunctCloseParen) {
					return pp.errorf(s, "expected ')' after '...' in macro parameter list")
				}
				break
			}
			if p.Cat != CatIdentifier {
				return pp.errorf(s, "expected a parameter name, got %q", p.Text)
			}
			params = append(params, p.Text)

			var sep Token
			if !s.ExpectAnyToken(&sep) {
				return pp.errorf(s, "unterminated macro parameter list")
			}
			if sep.Cat == CatPunctuation && sep.PunctID() == PunctCloseParen {
				break
			}
			if !(sep.Cat == CatPunctuation && sep.PunctID() == PunctComma) {
				return pp.errorf(s, "expected ',' or ')' in macro parameter list")
			}
		}
	}

	body := readLogicalLine(s)
	if err := checkPasteEdges(body); err != nil {
		return pp.wrapErr(s, err)
	}
	redefined := pp.macros.DefineFunction(name.Text, params, variadic, emptyParen, body)
	pp.warnRedefinition(s, name.Text, redefined)
	return nil
}

func (pp *Preprocessor) warnRedefinition(s *Scanner, name string, redefined bool) {
	if redefined && pp.Options.Flags&PPWarnMacroRedefinitions != 0 {
		pp.warnf(s, "macro %q redefined", name)
	}
}

// handleUndef implements #undef.
func (pp *Preprocessor) handleUndef(s *Scanner) error {
	var name Token
	if !s.NextTokenOnLine(&name) || name.Cat != CatIdentifier {
		return pp.errorf(s, "macro names must be identifiers")
	}
	skipRestOfLine(s)
	pp.macros.Undef(name.Text)
	return nil
}

// handleLine implements #line: a line number followed by an optional
// quoted file name.
func (pp *Preprocessor) handleLine(s *Scanner) error {
	tokens := readLogicalLine(s)
	if len(tokens) == 0 || tokens[0].Cat != CatNumber {
		return pp.errorf(s, "#line requires a line number")
	}
	s.SetLine(int(tokens[0].AsInt()))
	if len(tokens) > 1 && tokens[1].Cat == CatString {
		s.SetFileName(tokens[1].Text)
	}
	return nil
}

// handleError implements #error: it always reports, and is fatal unless
// PPNoFatalErrors is set.
func (pp *Preprocessor) handleError(s *Scanner) error {
	tokens := readLogicalLine(s)
	return pp.errorf(s, "#error %s", renderDirectiveText(tokens))
}

// handleWarning implements #warning/#warn.
func (pp *Preprocessor) handleWarning(s *Scanner) error {
	tokens := readLogicalLine(s)
	pp.warnf(s, "#warning %s", renderDirectiveText(tokens))
	return nil
}

// handlePragma implements `#pragma once` and
// `#pragma warning:(enable|disable)`; unrecognized pragmas are ignored.
func (pp *Preprocessor) handlePragma(s *Scanner) error {
	// The rest of the line is read raw and tokenized on its own, so that
	// the next line is not scanned before a warning toggle takes effect.
	raw := s.ReadRawUntil('\n', '\n')
	ls := NewScannerFromBuffer([]byte(raw), s.FileName(), ScanNoErrors|ScanNoWarnings, s.Line())
	var tokens []Token
	for {
		var tok Token
		if !ls.NextToken(&tok) {
			break
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 || tokens[0].Cat != CatIdentifier {
		return nil
	}

	switch tokens[0].Text {
	case "once":
		pp.includes.ProcessPragmaOnce()

	case "warning":
		var mode string
		for _, t := range tokens[1:] {
			if t.Cat == CatIdentifier {
				mode = t.Text
			}
		}
		switch mode {
		case "enable":
			s.SetFlags(s.Flags() &^ ScanNoWarnings)
		case "disable":
			s.SetFlags(s.Flags() | ScanNoWarnings)
		}
	}
	return nil
}

// handleInclude implements #include "file" and #include <file>.
func (pp *Preprocessor) handleInclude(s *Scanner) error {
	if pp.Options.Flags&PPNoIncludes != 0 {
		skipRestOfLine(s)
		return pp.errorf(s, "#include is disabled")
	}

	var first Token
	if !s.ExpectAnyToken(&first) {
		return pp.errorf(s, "#include expects a filename")
	}

	var target string
	var kind IncludeKind
	switch {
	case first.Cat == CatString:
		target, kind = first.Text, IncludeQuoted
	case first.Cat == CatPunctuation && first.PunctID() == PunctLogicLess:
		raw := s.ReadRawUntil('>', '\n')
		target, kind = strings.TrimSuffix(raw, ">"), IncludeAngled
	default:
		return pp.errorf(s, "expected \"FILENAME\" or <FILENAME> after #include")
	}
	skipRestOfLine(s)

	if kind == IncludeAngled && pp.Options.Flags&PPNoBaseIncludes != 0 {
		return pp.errorf(s, "#include <%s>: base includes are disabled", target)
	}

	path, ok := pp.includes.Resolve(target, kind)
	if !ok {
		return pp.errorf(s, "cannot find include file %q", target)
	}
	child, err := OpenFile(path, pp.Options.ScanFlags)
	if err != nil {
		return pp.errorf(s, "%v", err)
	}
	pp.includes.Push(child)
	return nil
}

// readLogicalLine collects tokens up to (but not including) the next
// newline, honoring a trailing '\' as a line-continuation marker: the
// backslash token itself is dropped and scanning continues as though no
// line break occurred.
func readLogicalLine(s *Scanner) []Token {
	var out []Token
	for {
		var tok Token
		if !s.NextToken(&tok) {
			return out
		}
		if tok.LinesCrossed > 0 {
			if n := len(out); n > 0 && isBackslashTok(out[n-1]) {
				out = out[:n-1]
			} else {
				s.PushBack(tok)
				return out
			}
		}
		out = append(out, tok)
	}
}

func skipRestOfLine(s *Scanner) {
	readLogicalLine(s)
}

func isBackslashTok(t Token) bool {
	return t.Cat == CatPunctuation && t.PunctID() == PunctBackslash
}

func renderDirectiveText(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}
