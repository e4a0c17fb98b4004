package fix

import (
	"fmt"
	"strings"

	"elmls/internal/source"
	"elmls/internal/syntax"
	"elmls/internal/types"
)

// StubBody is the body written for generated declarations.
const StubBody = `Debug.todo "TODO"`

// InsertDeclaration creates a top-level declaration for an unresolved usage.
// The declaration goes after the top-level item containing the usage, or at
// the end of the file. A call target gets one stub parameter per argument.
func InsertDeclaration(tree *syntax.Tree, checker types.TypeChecker, usage *syntax.Node) (TextEdit, bool) {
	if tree == nil || usage == nil || usage.Kind != syntax.KindValueRef || syntax.IsQualified(usage) {
		return TextEdit{}, false
	}
	name := usage.Text
	if declaresTopLevel(tree, name) {
		return TextEdit{}, false
	}

	var b strings.Builder
	b.WriteString("\n\n\n")
	if checker != nil {
		if t, ok := checker.Infer(usage); ok {
			fmt.Fprintf(&b, "%s : %s\n", name, checker.Render(t, tree))
		}
	}
	b.WriteString(name)
	for i := range callArity(usage) {
		fmt.Fprintf(&b, " arg%d", i+1)
	}
	b.WriteString(" =\n    " + StubBody)

	at := tree.File.Len()
	if top := syntax.TopLevelDeclaration(usage); top != nil {
		at = tree.File.LineEnd(tree.File.LineOf(top.Span.End))
	}
	return insertAt(tree.File, at, b.String()), true
}

// declaresTopLevel reports whether name is already bound at top level by a
// declaration or an annotation.
func declaresTopLevel(tree *syntax.Tree, name string) bool {
	if syntax.FindTopLevel(tree, name) != nil {
		return true
	}
	for _, ann := range tree.Root.ChildrenOf(syntax.KindTypeAnnotation) {
		if ann.Name() == name {
			return true
		}
	}
	return false
}

func callArity(usage *syntax.Node) int {
	call := usage.Parent
	if call == nil || call.Kind != syntax.KindCall || call.Field(syntax.FieldTarget) != usage {
		return 0
	}
	return len(call.Args())
}

// InsertParameter appends ident as a new parameter of decl. When decl has an
// annotation, the inferred type of ident is inserted before the return type,
// parenthesized when the rendered type contains a space.
func InsertParameter(tree *syntax.Tree, checker types.TypeChecker, decl, ident *syntax.Node) ([]TextEdit, bool) {
	if tree == nil || decl == nil || decl.Kind != syntax.KindValueDecl || ident == nil {
		return nil, false
	}
	nameNode := decl.Field(syntax.FieldName)
	if nameNode == nil {
		return nil, false
	}
	after := nameNode.Span.End
	if params := syntax.Params(decl); len(params) > 0 {
		after = params[len(params)-1].Span.End
	}
	edits := []TextEdit{insertAt(tree.File, after, " "+ident.Text)}

	ann := syntax.AnnotationFor(decl)
	if ann == nil {
		return edits, true
	}
	if checker == nil {
		return nil, false
	}
	t, ok := checker.Infer(ident)
	if !ok {
		return nil, false
	}
	rendered := ParenthesizeType(checker.Render(t, tree))
	at, ok := returnTypeInsertion(tree.File, ann)
	if !ok {
		return nil, false
	}
	if at.prefixSpace {
		edits = append(edits, insertAt(tree.File, at.off, " "+rendered+" ->"))
	} else {
		edits = append(edits, insertAt(tree.File, at.off, rendered+" -> "))
	}
	return edits, true
}

// ParenthesizeType wraps a rendered type in parentheses when it contains a
// space, so it can stand as one parameter of a function type.
func ParenthesizeType(rendered string) string {
	if strings.Contains(rendered, " ") {
		return "(" + rendered + ")"
	}
	return rendered
}

type insertion struct {
	off         uint32
	prefixSpace bool
}

// returnTypeInsertion finds where a new parameter type goes: right after
// the last arrow of a function type, or right after the colon otherwise.
func returnTypeInsertion(file *source.File, ann *syntax.Node) (insertion, bool) {
	typ := ann.Field(syntax.FieldType)
	name := ann.Field(syntax.FieldName)
	if typ == nil || name == nil {
		return insertion{}, false
	}
	if typ.Kind == syntax.KindFunctionType && len(typ.Children) >= 2 {
		ret := typ.Children[len(typ.Children)-1]
		prev := typ.Children[len(typ.Children)-2]
		between := file.Text(source.Span{Start: prev.Span.End, End: ret.Span.Start})
		i := strings.LastIndex(between, "->")
		if i < 0 {
			return insertion{}, false
		}
		return insertion{off: prev.Span.End + uint32(i+2), prefixSpace: true}, true
	}
	head := file.Text(source.Span{Start: name.Span.End, End: ann.Span.End})
	i := strings.IndexByte(head, ':')
	if i < 0 {
		return insertion{}, false
	}
	off := name.Span.End + uint32(i+1)
	for off < file.Len() && (file.Content[off] == ' ' || file.Content[off] == '\t') {
		off++
	}
	return insertion{off: off}, true
}

// AddAnnotation writes `name : type` on the line above a binding, indented
// to the binding's column.
func AddAnnotation(tree *syntax.Tree, checker types.TypeChecker, decl *syntax.Node) (TextEdit, bool) {
	if tree == nil || checker == nil || decl == nil || decl.Kind != syntax.KindValueDecl {
		return TextEdit{}, false
	}
	name := decl.Name()
	if name == "" || syntax.AnnotationFor(decl) != nil {
		return TextEdit{}, false
	}
	t, ok := checker.Infer(decl)
	if !ok {
		return TextEdit{}, false
	}
	return AnnotateWith(tree, decl, name+" : "+checker.Render(t, tree))
}

// AnnotateWith writes a ready-made annotation above decl. The annotation
// must name decl.
func AnnotateWith(tree *syntax.Tree, decl *syntax.Node, annotation string) (TextEdit, bool) {
	if tree == nil || decl == nil || decl.Kind != syntax.KindValueDecl || syntax.AnnotationFor(decl) != nil {
		return TextEdit{}, false
	}
	head, _, ok := strings.Cut(annotation, ":")
	if !ok || strings.TrimSpace(head) != decl.Name() {
		return TextEdit{}, false
	}
	indent := strings.Repeat(" ", tree.File.Column(decl.Span.Start))
	return insertAt(tree.File, decl.Span.Start, annotation+"\n"+indent), true
}

// RemoveImport deletes the lines of an import clause.
func RemoveImport(tree *syntax.Tree, imp *syntax.Node) (TextEdit, bool) {
	if tree == nil || imp == nil || imp.Kind != syntax.KindImportDecl {
		return TextEdit{}, false
	}
	return editAt(tree.File, wholeLines(tree.File, imp.Span), ""), true
}

// ReplaceNode replaces the text of n.
func ReplaceNode(tree *syntax.Tree, n *syntax.Node, text string) TextEdit {
	return editAt(tree.File, n.Span, text)
}

// Unwrap replaces a parenthesized expression with its content.
func Unwrap(tree *syntax.Tree, paren *syntax.Node) (TextEdit, bool) {
	if tree == nil || paren == nil || paren.Kind != syntax.KindParen {
		return TextEdit{}, false
	}
	inner := paren.Field(syntax.FieldValue)
	if inner == nil || inner.Kind == syntax.KindError {
		return TextEdit{}, false
	}
	return editAt(tree.File, paren.Span, tree.Text(inner)), true
}

// wholeLines widens sp to full lines including the final line break.
func wholeLines(file *source.File, sp source.Span) source.Span {
	start := file.LineStart(file.LineOf(sp.Start))
	endLine := file.LineOf(sp.End)
	end := file.LineEnd(endLine)
	if end < file.Len() {
		end++
	}
	return source.Span{Start: start, End: end}
}
