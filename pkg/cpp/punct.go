package cpp

// PunctuationID identifies a single punctuator variant. The zero value is
// the sentinel "no punctuation matched".
type PunctuationID uint32

const (
	PunctNone PunctuationID = iota
	PunctAssign
	PunctAdd
	PunctSub
	PunctMul
	PunctDiv
	PunctMod
	PunctRShift
	PunctLShift
	PunctAddAssign
	PunctSubAssign
	PunctMulAssign
	PunctDivAssign
	PunctModAssign
	PunctRShiftAssign
	PunctLShiftAssign
	PunctLogicAnd
	PunctLogicOr
	PunctLogicNot
	PunctLogicEq
	PunctLogicNotEq
	PunctLogicGreater
	PunctLogicLess
	PunctLogicGreaterEq
	PunctLogicLessEq
	PunctIncrement
	PunctDecrement
	PunctBitwiseAnd
	PunctBitwiseOr
	PunctBitwiseXor
	PunctBitwiseNot
	PunctBitwiseAndAssign
	PunctBitwiseOrAssign
	PunctBitwiseXorAssign
	PunctDot
	PunctArrow
	PunctColonColon
	PunctDotStar
	PunctComma
	PunctSemicolon
	PunctColon
	PunctQuestionMark
	PunctEllipsis
	PunctBackslash
	PunctOpenParen
	PunctCloseParen
	PunctOpenBracket
	PunctCloseBracket
	PunctOpenCurly
	PunctCloseCurly
	PunctHash
	PunctHashHash
	PunctDollar
)

// PunctDef is one entry of a punctuation set: the literal text and the
// id it maps to. The first entry (index 0) must be the {"", PunctNone}
// sentinel.
type PunctDef struct {
	Text string
	ID   PunctuationID
}

// DefaultPunctuations is the 52-entry C/C++ punctuator set described in
// spec.md section 6.
var DefaultPunctuations = []PunctDef{
	{"", PunctNone},
	{"=", PunctAssign},
	{"+", PunctAdd},
	{"-", PunctSub},
	{"*", PunctMul},
	{"/", PunctDiv},
	{"%", PunctMod},
	{">>", PunctRShift},
	{"<<", PunctLShift},
	{"+=", PunctAddAssign},
	{"-=", PunctSubAssign},
	{"*=", PunctMulAssign},
	{"/=", PunctDivAssign},
	{"%=", PunctModAssign},
	{">>=", PunctRShiftAssign},
	{"<<=", PunctLShiftAssign},
	{"&&", PunctLogicAnd},
	{"||", PunctLogicOr},
	{"!", PunctLogicNot},
	{"==", PunctLogicEq},
	{"!=", PunctLogicNotEq},
	{">", PunctLogicGreater},
	{"<", PunctLogicLess},
	{">=", PunctLogicGreaterEq},
	{"<=", PunctLogicLessEq},
	{"++", PunctIncrement},
	{"--", PunctDecrement},
	{"&", PunctBitwiseAnd},
	{"|", PunctBitwiseOr},
	{"^", PunctBitwiseXor},
	{"~", PunctBitwiseNot},
	{"&=", PunctBitwiseAndAssign},
	{"|=", PunctBitwiseOrAssign},
	{"^=", PunctBitwiseXorAssign},
	{".", PunctDot},
	{"->", PunctArrow},
	{"::", PunctColonColon},
	{".*", PunctDotStar},
	{",", PunctComma},
	{";", PunctSemicolon},
	{":", PunctColon},
	{"?", PunctQuestionMark},
	{"...", PunctEllipsis},
	{"\\", PunctBackslash},
	{"(", PunctOpenParen},
	{")", PunctCloseParen},
	{"[", PunctOpenBracket},
	{"]", PunctCloseBracket},
	{"{", PunctOpenCurly},
	{"}", PunctCloseCurly},
	{"#", PunctHash},
	{"##", PunctHashHash},
	{"$", PunctDollar},
}

// PunctTable is an ASCII-indexed lookup structure mapping the first byte of
// a punctuator to a chain of candidate definitions ordered by strictly
// decreasing length. Scanning walks the chain for the current byte and
// accepts the first definition whose text is a prefix of the remaining
// input — which is, by construction, the longest match.
type PunctTable struct {
	defs  []PunctDef
	head  [256]int32 // head[c] = index into defs of first candidate, or -1
	next  []int32    // next[i] = index of next candidate in the same chain, or -1
}

// NewPunctTable builds a PunctTable from an ordered definition list. defs[0]
// must be the {"", PunctNone} sentinel. Ties in length resolve by
// definition order (first-defined wins).
func NewPunctTable(defs []PunctDef) *PunctTable {
	t := &PunctTable{
		defs: defs,
		next: make([]int32, len(defs)),
	}
	for i := range t.head {
		t.head[i] = -1
	}
	for i := range t.next {
		t.next[i] = -1
	}

	for i, d := range defs {
		if i == 0 {
			continue // sentinel, never chained
		}
		if d.Text == "" {
			panic("cpp: malformed punctuation table: empty text for non-sentinel id")
		}
		c := d.Text[0]
		// Walk the existing chain for this byte; insert before the
		// first strictly shorter entry, or at the tail.
		prev := int32(-1)
		cur := t.head[c]
		for cur != -1 && len(t.defs[cur].Text) >= len(d.Text) {
			prev = cur
			cur = t.next[cur]
		}
		if prev == -1 {
			t.next[i] = t.head[c]
			t.head[c] = int32(i)
		} else {
			t.next[i] = t.next[prev]
			t.next[prev] = int32(i)
		}
	}
	return t
}

// defaultPunctTable is the process-wide punctuation table used by Scanners
// that do not specify their own. Replacing it (see SetDefaultPunctTable)
// is not reentrant with in-flight scanning.
var defaultPunctTable = NewPunctTable(DefaultPunctuations)

// SetDefaultPunctTable replaces the process-wide default punctuation table.
func SetDefaultPunctTable(t *PunctTable) {
	defaultPunctTable = t
}

// DefaultPunctTableInstance returns the active process-wide punctuation table.
func DefaultPunctTableInstance() *PunctTable {
	return defaultPunctTable
}

// Match finds the longest punctuator in defs whose text is a prefix of s,
// starting the chain search at s[0]. It returns the matched definition and
// true, or the zero PunctDef and false if nothing in the table matches.
func (t *PunctTable) Match(s string) (PunctDef, bool) {
	if s == "" {
		return PunctDef{}, false
	}
	c := s[0]
	for i := t.head[c]; i != -1; i = t.next[i] {
		d := t.defs[i]
		if len(d.Text) <= len(s) && s[:len(d.Text)] == d.Text {
			return d, true
		}
	}
	return PunctDef{}, false
}

// TextForID returns the punctuator text registered for id, or "" if none.
func (t *PunctTable) TextForID(id PunctuationID) string {
	for _, d := range t.defs {
		if d.ID == id {
			return d.Text
		}
	}
	return ""
}

// IDForText returns the PunctuationID registered for an exact text match,
// or PunctNone if none.
func (t *PunctTable) IDForText(s string) PunctuationID {
	for _, d := range t.defs {
		if d.Text == s {
			return d.ID
		}
	}
	return PunctNone
}
