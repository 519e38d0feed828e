package cpp

import "testing"

func tokenizeAll(t *testing.T, src string) []Token {
	t.Helper()
	s := NewScannerFromBuffer([]byte(src), "test.c", 0, 1)
	var toks []Token
	var tok Token
	for s.NextToken(&tok) {
		toks = append(toks, tok)
	}
	return toks
}

func renderTokens(toks []Token) string {
	m := NewMinifier(DefaultOutputLineHint)
	for _, t := range toks {
		m.Emit(t)
	}
	return m.String()
}

func TestExpandObjectLike(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineObject("GREETING", tokenizeAll(t, `"hi"`))
	exp := NewExpander(mt)
	out, err := exp.Expand(tokenizeAll(t, "GREETING"), BuiltinContext{})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if got := renderTokens(out); got != `"hi"` {
		t.Errorf("Expand(GREETING) = %q, want %q", got, `"hi"`)
	}
}

func TestExpandSelfReferenceIsError(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineObject("X", tokenizeAll(t, "X"))
	exp := NewExpander(mt)
	if _, err := exp.Expand(tokenizeAll(t, "X"), BuiltinContext{}); err == nil {
		t.Errorf("Expand(X) with a self-referential body succeeded, want error")
	}
}

func TestExpandFunctionLikeTextual(t *testing.T) {
	// End-to-end scenario 1: SQUARE(3+1) does textual substitution, not
	// pre-evaluation of the argument.
	mt := NewMacroTable()
	mt.DefineFunction("SQUARE", []string{"x"}, false, false, tokenizeAll(t, "((x) * (x))"))
	exp := NewExpander(mt)
	out, err := exp.Expand(tokenizeAll(t, "SQUARE(3+1)"), BuiltinContext{})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if got, want := renderTokens(out), "((3+1)*(3+1))"; got != want {
		t.Errorf("Expand(SQUARE(3+1)) = %q, want %q", got, want)
	}
}

func TestExpandPaste(t *testing.T) {
	// End-to-end scenario 2: A(foo) -> foo_tag as a single identifier.
	mt := NewMacroTable()
	mt.DefineFunction("A", []string{"x"}, false, false, tokenizeAll(t, "x##_tag"))
	exp := NewExpander(mt)
	out, err := exp.Expand(tokenizeAll(t, "A(foo)"), BuiltinContext{})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if len(out) != 1 || out[0].Cat != CatIdentifier || out[0].Text != "foo_tag" {
		t.Errorf("Expand(A(foo)) = %+v, want a single identifier foo_tag", out)
	}
}

func TestExpandStringize(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineFunction("STR", []string{"x"}, false, false, tokenizeAll(t, "#x"))
	exp := NewExpander(mt)
	out, err := exp.Expand(tokenizeAll(t, "STR(hello world)"), BuiltinContext{})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if len(out) != 1 || out[0].Cat != CatString || out[0].Text != `hello world` {
		t.Errorf("Expand(STR(hello world)) = %+v, want a single string token with text hello world", out)
	}
}

func TestExpandVariadic(t *testing.T) {
	// End-to-end scenario 4: V(1, 2, 3) -> f(1, 2, 3).
	mt := NewMacroTable()
	mt.DefineFunction("V", []string{"x"}, true, false, tokenizeAll(t, "f(x, __VA_ARGS__)"))
	exp := NewExpander(mt)
	out, err := exp.Expand(tokenizeAll(t, "V(1, 2, 3)"), BuiltinContext{})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if got, want := renderTokens(out), "f(1,2,3)"; got != want {
		t.Errorf("Expand(V(1, 2, 3)) = %q, want %q", got, want)
	}
}

func TestExpandVariadicTooFewArgsIsError(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineFunction("V", []string{"x"}, true, false, tokenizeAll(t, "f(x, __VA_ARGS__)"))
	exp := NewExpander(mt)
	if _, err := exp.Expand(tokenizeAll(t, "V()"), BuiltinContext{}); err == nil {
		t.Errorf("Expand(V()) succeeded, want error (missing required argument)")
	}
}

func TestExpandArgCountMismatch(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineFunction("ADD", []string{"x", "y"}, false, false, tokenizeAll(t, "x + y"))
	exp := NewExpander(mt)
	if _, err := exp.Expand(tokenizeAll(t, "ADD(1)"), BuiltinContext{}); err == nil {
		t.Errorf("Expand(ADD(1)) succeeded, want error")
	}
}

func TestExpandEmptyFunctionLikeRequiresParens(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineFunction("EMPTY", nil, false, true, tokenizeAll(t, "replaced"))
	exp := NewExpander(mt)
	out, err := exp.Expand(tokenizeAll(t, "EMPTY()"), BuiltinContext{})
	if err != nil {
		t.Fatalf("Expand(EMPTY()) error: %v", err)
	}
	if renderTokens(out) != "replaced" {
		t.Errorf("Expand(EMPTY()) = %q, want %q", renderTokens(out), "replaced")
	}

	// Without a call, a function-like macro name is left untouched.
	out, err = exp.Expand(tokenizeAll(t, "EMPTY"), BuiltinContext{})
	if err != nil {
		t.Fatalf("Expand(EMPTY) error: %v", err)
	}
	if renderTokens(out) != "EMPTY" {
		t.Errorf("Expand(EMPTY) = %q, want unexpanded EMPTY", renderTokens(out))
	}
}

func TestExpandBuiltins(t *testing.T) {
	mt := NewMacroTable()
	mt.RegisterDefaultBuiltins(fixedClock{date: "Jan 01 2024", time: "00:00:00"})
	exp := NewExpander(mt)
	out, err := exp.Expand(tokenizeAll(t, "__LINE__"), BuiltinContext{FileName: "a.c", Line: 3})
	if err != nil {
		t.Fatalf("Expand(__LINE__) error: %v", err)
	}
	if len(out) != 1 || out[0].Text != "3" {
		t.Errorf("Expand(__LINE__) = %+v, want [3]", out)
	}
}

func TestExpandStreamFunctionLikeAcrossScannerTokens(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineFunction("SQUARE", []string{"x"}, false, false, tokenizeAll(t, "((x) * (x))"))
	exp := NewExpander(mt)

	s := NewScannerFromBuffer([]byte("SQUARE(3+1) tail"), "test.c", 0, 1)
	var tok Token
	s.NextToken(&tok) // SQUARE
	out, err := exp.ExpandStream(s, tok, BuiltinContext{})
	if err != nil {
		t.Fatalf("ExpandStream error: %v", err)
	}
	if got, want := renderTokens(out), "((3+1)*(3+1))"; got != want {
		t.Errorf("ExpandStream(SQUARE(3+1)) = %q, want %q", got, want)
	}
	var next Token
	if !s.NextToken(&next) || next.Text != "tail" {
		t.Errorf("scanner position after ExpandStream = %+v, want \"tail\" still pending", next)
	}
}

func TestExpandStreamFunctionLikeWithoutCallLeavesScannerPositioned(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineFunction("F", []string{"x"}, false, false, tokenizeAll(t, "x"))
	exp := NewExpander(mt)

	s := NewScannerFromBuffer([]byte("F + 1"), "test.c", 0, 1)
	var tok Token
	s.NextToken(&tok) // F
	out, err := exp.ExpandStream(s, tok, BuiltinContext{})
	if err != nil {
		t.Fatalf("ExpandStream error: %v", err)
	}
	if len(out) != 1 || out[0].Text != "F" {
		t.Errorf("ExpandStream(F without call) = %+v, want unexpanded F", out)
	}
	var next Token
	if !s.NextToken(&next) || next.Text != "+" {
		t.Errorf("scanner position after ExpandStream = %+v, want '+' still pending", next)
	}
}
