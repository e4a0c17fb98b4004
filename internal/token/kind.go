package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	LowerIdent // foo
	UpperIdent // Foo
	IntLit     // 42, 0x2A
	FloatLit   // 1.5, 1e3
	StringLit  // "s", """s"""
	CharLit    // 'c'

	Operator  // + - * / ++ :: |> <| == ...
	Equals    // =
	Colon     // :
	Pipe      // |
	Arrow     // ->
	Dot       // .
	DotDot    // ..
	Comma     // ,
	Backslash // \
	Underscore
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace

	KwModule
	KwExposing
	KwImport
	KwAs
	KwType
	KwAlias
	KwLet
	KwIn
	KwIf
	KwThen
	KwElse
	KwCase
	KwOf
	KwPort
)

var kindNames = map[Kind]string{
	Invalid:    "invalid",
	EOF:        "end of file",
	LowerIdent: "lower-case identifier",
	UpperIdent: "upper-case identifier",
	IntLit:     "integer literal",
	FloatLit:   "float literal",
	StringLit:  "string literal",
	CharLit:    "char literal",
	Operator:   "operator",
	Equals:     "'='",
	Colon:      "':'",
	Pipe:       "'|'",
	Arrow:      "'->'",
	Dot:        "'.'",
	DotDot:     "'..'",
	Comma:      "','",
	Backslash:  "'\\'",
	Underscore: "'_'",
	LParen:     "'('",
	RParen:     "')'",
	LBracket:   "'['",
	RBracket:   "']'",
	LBrace:     "'{'",
	RBrace:     "'}'",
}

// String returns a human-readable name used in parse errors.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	for word, kw := range keywords {
		if kw == k {
			return "'" + word + "'"
		}
	}
	return "unknown"
}
