package cpp

import "testing"

func TestMacroTableDefineObjectAndLookup(t *testing.T) {
	mt := NewMacroTable()
	body := []Token{{Cat: CatNumber, Text: "42", Flags: FlagDecimal | FlagInteger}}
	if redefined := mt.DefineObject("FOO", body); redefined {
		t.Errorf("DefineObject(FOO) first time reported redefined")
	}
	if !mt.IsDefined("FOO") {
		t.Fatalf("IsDefined(FOO) = false after define")
	}
	m := mt.Lookup("FOO")
	if m == nil || m.Kind != MacroObject {
		t.Fatalf("Lookup(FOO) = %+v, want an object-like macro", m)
	}
	got := m.Body(mt)
	if len(got) != 1 || got[0].Text != "42" {
		t.Errorf("Body(FOO) = %+v, want [42]", got)
	}
}

func TestMacroTableRedefinitionReported(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineObject("FOO", nil)
	if redefined := mt.DefineObject("FOO", nil); !redefined {
		t.Errorf("DefineObject(FOO) second time reported not redefined")
	}
}

func TestMacroTableArenaStableAcrossAppend(t *testing.T) {
	// Append-only arena: a macro's slice must stay valid after another
	// macro is defined afterward (no relocation on growth).
	mt := NewMacroTable()
	mt.DefineObject("A", []Token{{Cat: CatIdentifier, Text: "a"}})
	aBefore := mt.Lookup("A").Body(mt)
	for i := 0; i < 64; i++ {
		mt.DefineObject("PAD", []Token{{Cat: CatIdentifier, Text: "x"}})
	}
	aAfter := mt.Lookup("A").Body(mt)
	if len(aBefore) != 1 || len(aAfter) != 1 || aBefore[0].Text != aAfter[0].Text {
		t.Errorf("macro A's body changed after unrelated defines: before=%+v after=%+v", aBefore, aAfter)
	}
}

func TestMacroTableFunctionLikeParams(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineFunction("ADD", []string{"x", "y"}, false, false, []Token{
		{Cat: CatIdentifier, Text: "x"},
		{Cat: CatPunctuation, Text: "+", Flags: NumberFlag(PunctAdd)},
		{Cat: CatIdentifier, Text: "y"},
	})
	m := mt.Lookup("ADD")
	if m.Kind != MacroFunction {
		t.Fatalf("Lookup(ADD).Kind = %v, want MacroFunction", m.Kind)
	}
	params := m.Params(mt)
	if len(params) != 2 || params[0] != "x" || params[1] != "y" {
		t.Errorf("Params(ADD) = %v, want [x y]", params)
	}
}

func TestMacroTableUndefTombstones(t *testing.T) {
	mt := NewMacroTable()
	mt.DefineObject("FOO", []Token{{Cat: CatIdentifier, Text: "bar"}})
	mt.Undef("FOO")
	if mt.IsDefined("FOO") {
		t.Errorf("IsDefined(FOO) = true after Undef")
	}
	if mt.Lookup("FOO") != nil {
		t.Errorf("Lookup(FOO) != nil after Undef")
	}
}

func TestMacroTableBuiltins(t *testing.T) {
	mt := NewMacroTable()
	mt.RegisterDefaultBuiltins(fixedClock{date: "Jan 01 2024", time: "00:00:00"})

	ctx := BuiltinContext{FileName: "a.c", Line: 7}
	if m := mt.Lookup("__LINE__"); m == nil || m.Builtin(ctx)[0].Text != "7" {
		t.Errorf("__LINE__ = %+v, want [7]", mt.Lookup("__LINE__").Builtin(ctx))
	}
	// Builtin string macros store unquoted content, like any other
	// CatString token; the minifier adds quotes on render.
	if m := mt.Lookup("__FILE__"); m == nil || m.Builtin(ctx)[0].Text != "a.c" {
		t.Errorf("__FILE__ = %+v, want [a.c]", mt.Lookup("__FILE__").Builtin(ctx))
	}
	if m := mt.Lookup("__DATE__"); m == nil || m.Builtin(ctx)[0].Text != "Jan 01 2024" {
		t.Errorf("__DATE__ = %+v, want [Jan 01 2024]", mt.Lookup("__DATE__").Builtin(ctx))
	}
	// Undefining a builtin removes it, like a user macro.
	mt.Undef("__FILE__")
	if mt.IsDefined("__FILE__") {
		t.Errorf("IsDefined(__FILE__) = true after Undef")
	}
}

type fixedClock struct{ date, time string }

func (c fixedClock) Date() string { return c.date }
func (c fixedClock) Time() string { return c.time }

func TestJenkinsHashStable(t *testing.T) {
	if JenkinsHash("FOO") != JenkinsHash("FOO") {
		t.Errorf("JenkinsHash not deterministic")
	}
	if JenkinsHash("FOO") == JenkinsHash("BAR") {
		t.Errorf("JenkinsHash(FOO) == JenkinsHash(BAR), want distinct hashes")
	}
}
