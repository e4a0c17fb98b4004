package token

var keywords = map[string]Kind{
	"module":   KwModule,
	"exposing": KwExposing,
	"import":   KwImport,
	"as":       KwAs,
	"type":     KwType,
	"alias":    KwAlias,
	"let":      KwLet,
	"in":       KwIn,
	"if":       KwIf,
	"then":     KwThen,
	"else":     KwElse,
	"case":     KwCase,
	"of":       KwOf,
	"port":     KwPort,
}

// LookupKeyword returns the keyword kind for word, if it is one.
func LookupKeyword(word string) (Kind, bool) {
	k, ok := keywords[word]
	return k, ok
}
