package cpp

import "testing"

func TestPunctTableLongestMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
		id    PunctuationID
	}{
		{"+", "+", PunctAdd},
		{"++", "++", PunctIncrement},
		{"+=", "+=", PunctAddAssign},
		{"<<=", "<<=", PunctLShiftAssign},
		{"<<", "<<", PunctLShift},
		{"<", "<", PunctLogicLess},
		{"...", "...", PunctEllipsis},
		{"..", ".", PunctDot}, // no two-dot punctuator; longest prefix match is "."
		{"#", "#", PunctHash},
		{"##", "##", PunctHashHash},
		{"###", "##", PunctHashHash},
	}
	for _, tc := range tests {
		d, ok := defaultPunctTable.Match(tc.input)
		if !ok {
			t.Errorf("Match(%q): no match, want %q", tc.input, tc.want)
			continue
		}
		if d.Text != tc.want || d.ID != tc.id {
			t.Errorf("Match(%q) = %q/%v, want %q/%v", tc.input, d.Text, d.ID, tc.want, tc.id)
		}
	}
}

func TestPunctTableNoMatch(t *testing.T) {
	if _, ok := defaultPunctTable.Match("@"); ok {
		t.Errorf("Match(%q): got a match, want none", "@")
	}
	if _, ok := defaultPunctTable.Match(""); ok {
		t.Errorf("Match(\"\"): got a match, want none")
	}
}

func TestPunctTableTextForID(t *testing.T) {
	if got := defaultPunctTable.TextForID(PunctArrow); got != "->" {
		t.Errorf("TextForID(PunctArrow) = %q, want \"->\"", got)
	}
	if got := defaultPunctTable.TextForID(PunctNone); got != "" {
		t.Errorf("TextForID(PunctNone) = %q, want \"\"", got)
	}
}

func TestPunctTableIDForText(t *testing.T) {
	if got := defaultPunctTable.IDForText("::"); got != PunctColonColon {
		t.Errorf("IDForText(\"::\") = %v, want PunctColonColon", got)
	}
	if got := defaultPunctTable.IDForText("nope"); got != PunctNone {
		t.Errorf("IDForText(\"nope\") = %v, want PunctNone", got)
	}
}

func TestNewPunctTableTieBreakOnOrder(t *testing.T) {
	// Two same-length entries for the same leading byte ("%" twice):
	// first-defined wins; the longer "%!" still matches ahead of both.
	defs := []PunctDef{
		{"", PunctNone},
		{"%", PunctMod},
		{"%", PunctDiv},
		{"%!", PunctMulAssign}, // arbitrary distinct id, just exercising the chain
	}
	tbl := NewPunctTable(defs)
	d, ok := tbl.Match("%!")
	if !ok || d.Text != "%!" {
		t.Fatalf("Match(%%!) = %v/%v, want the longer entry", d, ok)
	}
	d, ok = tbl.Match("%x")
	if !ok || d.Text != "%" || d.ID != PunctMod {
		t.Fatalf("Match(%%x) = %v/%v, want the first-defined shorter entry (PunctMod)", d, ok)
	}
}
