package syntax

import (
	"elmls/internal/source"
)

// NodeAt returns the deepest node whose span contains off, ends included.
// When two siblings touch at off the earlier one wins.
func (t *Tree) NodeAt(off uint32) *Node {
	n := t.Root
	for {
		next := childContaining(n, source.Span{Start: off, End: off})
		if next == nil {
			return n
		}
		n = next
	}
}

// NodeCovering returns the smallest node whose span encloses sp.
func (t *Tree) NodeCovering(sp source.Span) *Node {
	n := t.Root
	for {
		next := childContaining(n, sp)
		if next == nil {
			return n
		}
		n = next
	}
}

func childContaining(n *Node, sp source.Span) *Node {
	for _, c := range n.Children {
		if c.Span.Start <= sp.Start && sp.End <= c.Span.End && !(c.Span.Empty() && c.Kind == KindError) {
			return c
		}
	}
	return nil
}

// NamedNodeForPosition returns the most specific node at an LSP position.
func NamedNodeForPosition(t *Tree, pos source.Position) *Node {
	if t == nil {
		return nil
	}
	return t.NodeAt(t.File.Offset(pos))
}

// NamedNodeForRange returns the smallest node enclosing an LSP range.
func NamedNodeForRange(t *Tree, r source.Range) *Node {
	if t == nil {
		return nil
	}
	return t.NodeCovering(t.File.Span(r))
}

// FindAncestor returns the nearest strict ancestor of n with one of kinds.
func FindAncestor(n *Node, kinds ...Kind) *Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if hasKind(p, kinds) {
			return p
		}
	}
	return nil
}

// TopLevelDeclaration returns the top-level item containing n, n included.
func TopLevelDeclaration(n *Node) *Node {
	for ; n != nil; n = n.Parent {
		if n.Parent != nil && n.Parent.Kind == KindFile {
			return n
		}
	}
	return nil
}

// IsInsideLet reports whether n sits below a let expression.
func IsInsideLet(n *Node) bool {
	return FindAncestor(n, KindLet) != nil
}

// IsQualified reports whether a reference carries a module qualifier.
func IsQualified(n *Node) bool {
	switch n.Kind {
	case KindValueRef, KindConstructorRef, KindTypeRef, KindConstructorPattern:
		return n.Qualifier() != ""
	}
	return false
}

// ExposingList returns the module header's exposing list, or nil when the
// file has no header.
func ExposingList(t *Tree) *Node {
	decl := t.Root.FirstChild(KindModuleDecl)
	if decl == nil {
		return nil
	}
	return decl.Field(FieldExposing)
}

// ExposingAll reports whether the module exposes everything. A file without
// a module header behaves as `exposing (..)`.
func ExposingAll(t *Tree) bool {
	list := ExposingList(t)
	if list == nil {
		return t.Root.FirstChild(KindModuleDecl) == nil
	}
	return list.FirstChild(KindDoubleDot) != nil
}

// ExposedItem returns the exposing-list entry for name, or nil.
func ExposedItem(t *Tree, name string) *Node {
	list := ExposingList(t)
	if list == nil {
		return nil
	}
	for _, item := range list.ChildrenOf(KindExposedValue, KindExposedType, KindExposedOperator) {
		if item.Text == name {
			return item
		}
	}
	return nil
}

// IsExposed reports whether name is visible to importers of the module.
func IsExposed(t *Tree, name string) bool {
	return ExposingAll(t) || ExposedItem(t, name) != nil
}

// FindTopLevel returns the top-level value, type or alias declaration
// named name. Annotations are not returned; see AnnotationFor.
func FindTopLevel(t *Tree, name string) *Node {
	for _, c := range t.Root.Children {
		switch c.Kind {
		case KindValueDecl, KindTypeDecl, KindTypeAliasDecl:
			if c.Name() == name {
				return c
			}
		}
	}
	return nil
}

// FindVariant returns the union variant named name declared at top level.
func FindVariant(t *Tree, name string) *Node {
	for _, decl := range t.Root.ChildrenOf(KindTypeDecl) {
		for _, v := range decl.ChildrenOf(KindUnionVariant) {
			if v.Name() == name {
				return v
			}
		}
	}
	return nil
}

// AnnotationFor returns the type annotation directly preceding a value
// declaration, at top level or inside a let block.
func AnnotationFor(decl *Node) *Node {
	if decl == nil || decl.Kind != KindValueDecl {
		return nil
	}
	prev := decl.PrevSibling()
	if prev != nil && prev.Kind == KindTypeAnnotation && prev.Name() == decl.Name() {
		return prev
	}
	return nil
}

// DeclarationFor returns the value declaration an annotation belongs to.
func DeclarationFor(ann *Node) *Node {
	if ann == nil || ann.Kind != KindTypeAnnotation {
		return nil
	}
	next := ann.NextSibling()
	if next != nil && next.Kind == KindValueDecl && next.Name() == ann.Name() {
		return next
	}
	return nil
}

// Params returns the parameter patterns of a value declaration or lambda.
func Params(n *Node) []*Node {
	var out []*Node
	for _, c := range n.Args() {
		if c.Kind.IsPattern() || c.Kind.IsLiteral() || c.Kind == KindError {
			out = append(out, c)
		}
	}
	return out
}

// FindImport returns the import of module name, or nil.
func FindImport(t *Tree, module string) *Node {
	for _, imp := range t.Imports() {
		if imp.Name() == module {
			return imp
		}
	}
	return nil
}

// IsBinder reports whether n introduces a name: a declaration name or a
// variable pattern.
func IsBinder(n *Node) bool {
	switch n.Kind {
	case KindVarPattern:
		return true
	case KindLowerName:
		return n.Parent != nil && (n.Parent.Kind == KindValueDecl || n.Parent.Kind == KindAliasPattern ||
			n.Parent.Kind == KindRecordPattern)
	}
	return false
}
