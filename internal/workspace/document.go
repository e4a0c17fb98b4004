package workspace

import (
	"elmls/internal/diag"
	"elmls/internal/source"
	"elmls/internal/syntax"
	"elmls/internal/types"
)

// Document is the analysed state of one file. Documents are replaced, never
// mutated, so a *Document handed out stays consistent.
type Document struct {
	URI     string
	Path    string
	Version int
	// Open is set while an editor owns the text.
	Open bool

	Tree        *syntax.Tree
	Checker     *types.Checker
	Diagnostics []diag.Diagnostic
}

// Module returns the declared module name.
func (d *Document) Module() string {
	if d == nil || d.Tree == nil {
		return ""
	}
	return d.Tree.ModuleName()
}

// Text returns the current content.
func (d *Document) Text() string {
	if d == nil || d.Tree == nil {
		return ""
	}
	return string(d.Tree.File.Content)
}

// Hash returns the content hash.
func (d *Document) Hash() [32]byte {
	if d == nil || d.Tree == nil {
		return [32]byte{}
	}
	return d.Tree.File.Hash
}

func parseDocument(uri, path string, version int, content []byte, open bool) *Document {
	normalized, flags := source.Normalize(content)
	file := source.NewFile(uri, normalized, flags)
	return &Document{
		URI:     uri,
		Path:    path,
		Version: version,
		Open:    open,
		Tree:    syntax.Parse(file),
	}
}
