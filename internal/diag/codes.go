package diag

import (
	"sort"
)

// Codes produced by the analysis sources.
const (
	CodeSyntaxError           = "syntax_error"
	CodeTypeMismatch          = "type_mismatch"
	CodeUnresolvedReference   = "unresolved_reference"
	CodeUnresolvedImport      = "unresolved_import"
	CodeMissingTypeAnnotation = "missing_type_annotation"
	CodeUnusedImport          = "unused_import"
	CodeUnnecessaryParens     = "unnecessary_parens"
)

// CodeInfo describes a catalogued code.
type CodeInfo struct {
	Title    string
	Severity Severity
	Lint     bool
}

var codeCatalogue = map[string]CodeInfo{
	CodeSyntaxError:           {Title: "Syntax error", Severity: SevError},
	CodeTypeMismatch:          {Title: "Type mismatch", Severity: SevError},
	CodeUnresolvedReference:   {Title: "Unresolved reference", Severity: SevError},
	CodeUnresolvedImport:      {Title: "Unknown module", Severity: SevError},
	CodeMissingTypeAnnotation: {Title: "Missing type annotation", Severity: SevWarning},
	CodeUnusedImport:          {Title: "Unused import", Severity: SevWarning},
	CodeUnnecessaryParens:     {Title: "Unnecessary parentheses", Severity: SevHint, Lint: true},
}

// Lookup returns catalogue information about code.
func Lookup(code string) (CodeInfo, bool) {
	info, ok := codeCatalogue[code]
	return info, ok
}

// KnownCodes lists catalogued codes in lexical order.
func KnownCodes() []string {
	out := make([]string, 0, len(codeCatalogue))
	for code := range codeCatalogue {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
