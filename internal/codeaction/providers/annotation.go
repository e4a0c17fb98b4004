package providers

import (
	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/syntax"
)

// AddMissingTypeAnnotation writes the inferred annotation above a binding.
type AddMissingTypeAnnotation struct{}

func (AddMissingTypeAnnotation) ID() string { return "add_missing_type_annotation" }

func (AddMissingTypeAnnotation) Codes() []string {
	return []string{diag.CodeMissingTypeAnnotation}
}

func (p AddMissingTypeAnnotation) CodeActions(ctx *codeaction.Context) []codeaction.CodeAction {
	edit, ok := annotationEdit(ctx, ctx.Node())
	if !ok {
		return nil
	}
	a := codeaction.NewQuickFix("Add inferred annotation", ctx.URI, edit)
	a.IsPreferred = true
	return []codeaction.CodeAction{a}
}

func (p AddMissingTypeAnnotation) FixAll(ctx *codeaction.Context) (codeaction.CodeAction, bool) {
	var edits []fix.TextEdit
	seen := map[*syntax.Node]bool{}
	for _, d := range ctx.WithCode(diag.CodeMissingTypeAnnotation) {
		n := ctx.NodeFor(d)
		decl := bindingAt(n)
		if decl == nil || seen[decl] {
			continue
		}
		seen[decl] = true
		if edit, ok := annotationEdit(ctx, n); ok {
			edits = append(edits, edit)
		}
	}
	if len(edits) == 0 {
		return codeaction.CodeAction{}, false
	}
	return codeaction.NewQuickFix("Add all missing type annotations", ctx.URI, edits...), true
}

func annotationEdit(ctx *codeaction.Context, n *syntax.Node) (fix.TextEdit, bool) {
	decl := bindingAt(n)
	if decl == nil {
		return fix.TextEdit{}, false
	}
	return fix.AddAnnotation(ctx.Tree(), ctx.Checker(), decl)
}

// bindingAt returns the value declaration n names or sits in.
func bindingAt(n *syntax.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	if n.Kind == syntax.KindValueDecl {
		return n
	}
	return syntax.FindAncestor(n, syntax.KindValueDecl)
}
