package providers

import (
	"fmt"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/syntax"
)

// RemoveUnusedImport deletes import lines nothing refers to.
type RemoveUnusedImport struct{}

func (RemoveUnusedImport) ID() string { return "remove_unused_import" }

func (RemoveUnusedImport) Codes() []string {
	return []string{diag.CodeUnusedImport}
}

func (RemoveUnusedImport) CodeActions(ctx *codeaction.Context) []codeaction.CodeAction {
	imp := importAt(ctx.Node())
	if imp == nil {
		return nil
	}
	edit, ok := fix.RemoveImport(ctx.Tree(), imp)
	if !ok {
		return nil
	}
	a := codeaction.NewQuickFix(fmt.Sprintf("Remove unused import `%s`", imp.Name()), ctx.URI, edit)
	a.IsPreferred = true
	return []codeaction.CodeAction{a}
}

func (RemoveUnusedImport) FixAll(ctx *codeaction.Context) (codeaction.CodeAction, bool) {
	var edits []fix.TextEdit
	seen := map[*syntax.Node]bool{}
	for _, d := range ctx.WithCode(diag.CodeUnusedImport) {
		imp := importAt(ctx.NodeFor(d))
		if imp == nil || seen[imp] {
			continue
		}
		seen[imp] = true
		if edit, ok := fix.RemoveImport(ctx.Tree(), imp); ok {
			edits = append(edits, edit)
		}
	}
	if len(edits) == 0 {
		return codeaction.CodeAction{}, false
	}
	return codeaction.NewQuickFix("Remove all unused imports", ctx.URI, edits...), true
}

func importAt(n *syntax.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	if n.Kind == syntax.KindImportDecl {
		return n
	}
	return syntax.FindAncestor(n, syntax.KindImportDecl)
}
