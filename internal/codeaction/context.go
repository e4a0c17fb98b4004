package codeaction

import (
	"elmls/internal/diag"
	"elmls/internal/source"
	"elmls/internal/syntax"
	"elmls/internal/types"
)

// Snapshot is the analysed state of one document.
type Snapshot struct {
	URI         string
	Version     int
	Tree        *syntax.Tree
	Checker     types.TypeChecker
	Diagnostics []diag.Diagnostic
}

// Forest resolves documents for the dispatcher and for multi-file actions.
type Forest interface {
	// Snapshot returns the state of an open or loaded document.
	Snapshot(uri string) (*Snapshot, bool)
	// SnapshotByModule finds the document declaring a module.
	SnapshotByModule(module string) (*Snapshot, bool)
}

// ModuleLister is implemented by forests that can enumerate their modules.
// Move refactors are offered once per listed destination.
type ModuleLister interface {
	Modules() []string
}

// ScopeQuerier is implemented by checkers that can list the names visible
// at a node. Refactors use it to tell unresolved references apart.
type ScopeQuerier interface {
	NamesInScope(n *syntax.Node) []string
}

// Context is what a provider sees for one diagnostic.
type Context struct {
	URI string
	// Range is the working range: the diagnostic range for providers, the
	// request range for refactors.
	Range      source.Range
	Diagnostic diag.Diagnostic
	// Diagnostics holds every diagnostic known for the document, request
	// diagnostics included.
	Diagnostics []diag.Diagnostic
	Snapshot    *Snapshot
	Forest      Forest
}

// Tree returns the document tree.
func (c *Context) Tree() *syntax.Tree {
	if c == nil || c.Snapshot == nil {
		return nil
	}
	return c.Snapshot.Tree
}

// Checker returns the document type checker, possibly nil.
func (c *Context) Checker() types.TypeChecker {
	if c == nil || c.Snapshot == nil {
		return nil
	}
	return c.Snapshot.Checker
}

// Node returns the smallest node enclosing the working range.
func (c *Context) Node() *syntax.Node {
	return syntax.NamedNodeForRange(c.Tree(), c.Range)
}

// NodeFor returns the smallest node enclosing d's range.
func (c *Context) NodeFor(d diag.Diagnostic) *syntax.Node {
	return syntax.NamedNodeForRange(c.Tree(), d.Range)
}

// WithCode returns the document diagnostics whose string code is code, in
// document order.
func (c *Context) WithCode(code string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range c.Diagnostics {
		if s, ok := d.Code.Str(); ok && s == code {
			out = append(out, d)
		}
	}
	return out
}
