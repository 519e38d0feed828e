package cpp

// MacroKind classifies a Macro record.
type MacroKind int

const (
	MacroObject MacroKind = iota
	MacroFunction
	MacroBuiltin
)

// BuiltinContext carries the information a builtin macro body needs to
// materialize its replacement (the current scan position).
type BuiltinContext struct {
	FileName string
	Line     int
}

// BuiltinFunc produces the replacement tokens for a builtin macro.
type BuiltinFunc func(ctx BuiltinContext) []Token

// Macro is one record of spec.md section 3's macro definition: a hashed
// name, parameter and body slices into the table's append-only token
// arena, and the empty-function-like/variadic flags.
type Macro struct {
	Name        string
	Hash        uint32
	Kind        MacroKind
	paramsFirst int
	paramsCount int
	bodyFirst   int
	bodyCount   int
	IsVariadic  bool
	// EmptyFunctionLike records that this macro was defined with an
	// explicit, empty parameter list (`#define FOO()`), as opposed to an
	// object-like macro. It carries no information validateArgCount
	// doesn't already get from Params being empty and IsVariadic being
	// false; it exists so tooling built on this table (e.g. a pretty
	// printer reconstructing `#define FOO()` vs `#define FOO`) can tell
	// the two apart without Kind alone.
	EmptyFunctionLike bool
	Builtin           BuiltinFunc
}

// Params returns the macro's formal parameter names.
func (m *Macro) Params(t *MacroTable) []string {
	toks := t.arena[m.paramsFirst : m.paramsFirst+m.paramsCount]
	names := make([]string, len(toks))
	for i, tok := range toks {
		names[i] = tok.Text
	}
	return names
}

// Body returns the macro's replacement token list.
func (m *Macro) Body(t *MacroTable) []Token {
	return t.arena[m.bodyFirst : m.bodyFirst+m.bodyCount]
}

// MacroTable stores macro records in an append-only token arena (per
// spec.md's "Append-only macro token pool" design note): parameter and
// body ranges are stable [first,count) slices into one growing vector,
// so redefinition and #undef never relocate anyone else's tokens.
// Undefining a macro removes its record from the name index but leaves
// its arena slice in place, tombstoned rather than compacted.
type MacroTable struct {
	arena  []Token
	byName map[string]*Macro
}

// NewMacroTable creates an empty table.
func NewMacroTable() *MacroTable {
	return &MacroTable{byName: make(map[string]*Macro)}
}

// JenkinsHash is the Jenkins one-at-a-time hash of s, published per
// spec.md section 4.4 as the lookup utility macro names are hashed with.
func JenkinsHash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h += uint32(s[i])
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}

func (t *MacroTable) appendTokens(tokens []Token) (first, count int) {
	first = len(t.arena)
	t.arena = append(t.arena, tokens...)
	return first, len(tokens)
}

// DefineObject defines (or redefines) an object-like macro. It reports
// whether a macro of that name already existed, even if the new body is
// identical.
func (t *MacroTable) DefineObject(name string, body []Token) (redefined bool) {
	_, redefined = t.byName[name]
	bodyFirst, bodyCount := t.appendTokens(body)
	t.byName[name] = &Macro{
		Name: name, Hash: JenkinsHash(name), Kind: MacroObject,
		bodyFirst: bodyFirst, bodyCount: bodyCount,
	}
	return redefined
}

// DefineFunction defines (or redefines) a function-like macro.
func (t *MacroTable) DefineFunction(name string, params []string, variadic, emptyParen bool, body []Token) (redefined bool) {
	_, redefined = t.byName[name]
	paramToks := make([]Token, len(params))
	for i, p := range params {
		paramToks[i] = Token{Cat: CatIdentifier, Text: p}
	}
	paramsFirst, paramsCount := t.appendTokens(paramToks)
	bodyFirst, bodyCount := t.appendTokens(body)
	t.byName[name] = &Macro{
		Name: name, Hash: JenkinsHash(name), Kind: MacroFunction,
		paramsFirst: paramsFirst, paramsCount: paramsCount,
		bodyFirst: bodyFirst, bodyCount: bodyCount,
		IsVariadic: variadic, EmptyFunctionLike: emptyParen,
	}
	return redefined
}

// DefineBuiltin registers a builtin macro such as __FILE__ or __LINE__.
func (t *MacroTable) DefineBuiltin(name string, fn BuiltinFunc) {
	t.byName[name] = &Macro{Name: name, Hash: JenkinsHash(name), Kind: MacroBuiltin, Builtin: fn}
}

// RegisterDefaultBuiltins installs __FILE__, __LINE__, __DATE__ and
// __TIME__. __VA_ARGS__ is not registered here: it only resolves inside a
// variadic function-like macro's own body, where the Expander binds it
// like any other parameter.
func (t *MacroTable) RegisterDefaultBuiltins(now BuiltinClock) {
	t.DefineBuiltin("__FILE__", func(ctx BuiltinContext) []Token {
		return []Token{{Cat: CatString, Text: ctx.FileName}}
	})
	t.DefineBuiltin("__LINE__", func(ctx BuiltinContext) []Token {
		return []Token{numberToken(ctx.Line)}
	})
	t.DefineBuiltin("__DATE__", func(ctx BuiltinContext) []Token {
		return []Token{{Cat: CatString, Text: now.Date()}}
	})
	t.DefineBuiltin("__TIME__", func(ctx BuiltinContext) []Token {
		return []Token{{Cat: CatString, Text: now.Time()}}
	})
}

// BuiltinClock supplies __DATE__/__TIME__ text, kept as a seam so tests
// can fix the clock instead of depending on wall time.
type BuiltinClock interface {
	Date() string
	Time() string
}

func numberToken(n int) Token {
	tok := Token{Cat: CatNumber, Flags: FlagDecimal | FlagInteger | FlagSignedInteger}
	tok.SetText(itoa(n))
	return tok
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Lookup returns the macro named name, or nil if undefined.
func (t *MacroTable) Lookup(name string) *Macro {
	return t.byName[name]
}

// IsDefined reports whether name currently names a macro.
func (t *MacroTable) IsDefined(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Undef removes name's record from the index. The arena slice it
// referenced is left in place, tombstoned.
func (t *MacroTable) Undef(name string) {
	delete(t.byName, name)
}
