package syntax

import (
	"strings"

	"elmls/internal/source"
)

// Node is one element of a parsed tree. Trees are never mutated once Parse
// returns, so nodes may be shared freely between goroutines.
type Node struct {
	Kind Kind
	Span source.Span
	// Text holds the identifier, literal or operator spelling for leaf-like
	// nodes and the qualified name for references.
	Text     string
	Parent   *Node
	Children []*Node

	fields []fieldRef
}

type fieldRef struct {
	field Field
	node  *Node
}

// Error is a lexical or syntactic problem found while parsing.
type Error struct {
	Span source.Span
	Msg  string
}

// Tree is the result of parsing one file.
type Tree struct {
	File   *source.File
	Root   *Node
	Errors []Error
}

// Field returns the child stored in slot f, or nil.
func (n *Node) Field(f Field) *Node {
	if n == nil {
		return nil
	}
	for _, ref := range n.fields {
		if ref.field == f {
			return ref.node
		}
	}
	return nil
}

// FieldOf returns the slot that child occupies in n.
func (n *Node) FieldOf(child *Node) Field {
	for _, ref := range n.fields {
		if ref.node == child {
			return ref.field
		}
	}
	return FieldNone
}

// Args returns the children that do not occupy a named slot: parameters of
// a declaration or lambda, call arguments, list items, let bindings.
func (n *Node) Args() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if n.FieldOf(c) == FieldNone {
			out = append(out, c)
		}
	}
	return out
}

// ChildrenOf returns the direct children whose kind is one of kinds.
func (n *Node) ChildrenOf(kinds ...Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if hasKind(c, kinds) {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct child of the given kind.
func (n *Node) FirstChild(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Index returns the position of n among its parent's children, or -1.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

func (n *Node) PrevSibling() *Node {
	i := n.Index()
	if i <= 0 {
		return nil
	}
	return n.Parent.Children[i-1]
}

func (n *Node) NextSibling() *Node {
	i := n.Index()
	if i < 0 || i+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[i+1]
}

// Name returns the declared name of a declaration-like node, or "".
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	if name := n.Field(FieldName); name != nil {
		return name.Text
	}
	return ""
}

// LocalName strips the module qualifier from a reference: "List.map" -> "map".
func (n *Node) LocalName() string {
	if i := strings.LastIndexByte(n.Text, '.'); i >= 0 {
		return n.Text[i+1:]
	}
	return n.Text
}

// Qualifier returns the module part of a qualified reference, or "".
func (n *Node) Qualifier() string {
	if i := strings.LastIndexByte(n.Text, '.'); i >= 0 {
		return n.Text[:i]
	}
	return ""
}

// Inspect traverses the subtree rooted at n in depth-first order. When f
// returns false the children of that node are skipped.
func Inspect(n *Node, f func(*Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range n.Children {
		Inspect(c, f)
	}
}

// ModuleName returns the declared module name, defaulting to "Main".
func (t *Tree) ModuleName() string {
	if decl := t.Root.FirstChild(KindModuleDecl); decl != nil {
		if name := decl.Field(FieldName); name != nil {
			return name.Text
		}
	}
	return "Main"
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *Node) string {
	return t.File.Text(n.Span)
}

// Range returns the LSP range of n.
func (t *Tree) Range(n *Node) source.Range {
	return t.File.Range(n.Span)
}

// Imports returns the import clauses in source order.
func (t *Tree) Imports() []*Node {
	return t.Root.ChildrenOf(KindImportDecl)
}

// Declarations returns the top-level items after the module header and imports.
func (t *Tree) Declarations() []*Node {
	var out []*Node
	for _, c := range t.Root.Children {
		if c.Kind.IsDeclaration() {
			out = append(out, c)
		}
	}
	return out
}

func hasKind(n *Node, kinds []Kind) bool {
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

func newNode(kind Kind, span source.Span) *Node {
	return &Node{Kind: kind, Span: span}
}

func (n *Node) add(child *Node) {
	if child == nil {
		return
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	if child.Span.End > n.Span.End {
		n.Span.End = child.Span.End
	}
}

func (n *Node) set(f Field, child *Node) {
	if child == nil {
		return
	}
	n.add(child)
	n.fields = append(n.fields, fieldRef{field: f, node: child})
}
