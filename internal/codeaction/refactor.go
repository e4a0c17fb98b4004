package codeaction

import (
	"fmt"
	"slices"

	"elmls/internal/fix"
	"elmls/internal/syntax"
)

// refactorActions inspects the node at the request range. Only the
// top-level name of a declaration triggers function and type refactors.
func refactorActions(ctx *Context) []CodeAction {
	n := ctx.Node()
	if n == nil {
		return nil
	}
	var out []CodeAction
	out = append(out, functionRefactors(ctx, n)...)
	out = append(out, typeRefactors(ctx, n)...)
	out = append(out, createDeclaration(ctx, n)...)
	out = append(out, letAnnotation(ctx, n)...)
	return out
}

// topLevelValue returns the declaration whose name (or annotation name) is n.
func topLevelValue(n *syntax.Node) *syntax.Node {
	if n.Kind != syntax.KindLowerName || n.Parent == nil {
		return nil
	}
	decl := n.Parent
	if decl.Parent == nil || decl.Parent.Kind != syntax.KindFile {
		return nil
	}
	switch decl.Kind {
	case syntax.KindValueDecl:
		return decl
	case syntax.KindTypeAnnotation:
		return syntax.DeclarationFor(decl)
	}
	return nil
}

func functionRefactors(ctx *Context, n *syntax.Node) []CodeAction {
	decl := topLevelValue(n)
	if decl == nil || decl.Name() == "" {
		return nil
	}
	tree := ctx.Tree()
	name := decl.Name()

	out := moveActions(ctx, name)
	if syntax.ExposingAll(tree) {
		return out
	}
	if syntax.ExposedItem(tree, name) != nil {
		if edit, ok := fix.Unexpose(tree, name); ok {
			out = append(out, refactor("Unexpose Function", "unexpose_function", ctx.URI, edit))
		}
	} else if edit, ok := fix.ExposeValue(tree, name); ok {
		out = append(out, refactor("Expose Function", "expose_function", ctx.URI, edit))
	}
	return out
}

// moveActions offers one move per module that can receive name. The
// command carries the destination, so executing it needs no further input.
func moveActions(ctx *Context, name string) []CodeAction {
	lister, ok := ctx.Forest.(ModuleLister)
	if !ok {
		return nil
	}
	own := ctx.Tree().ModuleName()
	var out []CodeAction
	for _, module := range lister.Modules() {
		if module == own {
			continue
		}
		dst, ok := ctx.Forest.SnapshotByModule(module)
		if !ok || dst.Tree == nil || dst.URI == ctx.URI || syntax.FindTopLevel(dst.Tree, name) != nil {
			continue
		}
		title := fmt.Sprintf("Move Function to `%s`", module)
		out = append(out, CodeAction{
			Title: title,
			Kind:  KindRefactor,
			ID:    "move_function",
			Command: &Command{
				Title:     title,
				Command:   CommandMoveDeclaration,
				Arguments: []any{ctx.URI, name, module},
			},
		})
	}
	return out
}

func typeRefactors(ctx *Context, n *syntax.Node) []CodeAction {
	if n.Kind != syntax.KindUpperName || n.Parent == nil {
		return nil
	}
	decl := n.Parent
	if decl.Parent == nil || decl.Parent.Kind != syntax.KindFile || decl.Field(syntax.FieldName) != n {
		return nil
	}
	if decl.Kind != syntax.KindTypeDecl && decl.Kind != syntax.KindTypeAliasDecl {
		return nil
	}
	tree := ctx.Tree()
	if syntax.ExposingAll(tree) {
		return nil
	}
	name := n.Text
	union := decl.Kind == syntax.KindTypeDecl

	var out []CodeAction
	item := syntax.ExposedItem(tree, name)
	if item == nil {
		if edit, ok := fix.ExposeType(tree, name, false); ok {
			out = append(out, refactor("Expose Type", "expose_type", ctx.URI, edit))
		}
		if union {
			if edit, ok := fix.ExposeType(tree, name, true); ok {
				out = append(out, refactor("Expose Type with Variants", "expose_type_variants", ctx.URI, edit))
			}
		}
		return out
	}

	if union {
		if item.FirstChild(syntax.KindDoubleDot) == nil {
			if edit, ok := fix.ExposeType(tree, name, true); ok {
				out = append(out, refactor("Expose Type with Variants", "expose_type_variants", ctx.URI, edit))
			}
		} else if edit, ok := fix.UnexposeVariants(tree, name); ok {
			out = append(out, refactor("Unexpose Type Variants", "unexpose_type_variants", ctx.URI, edit))
		}
	}
	if edit, ok := fix.Unexpose(tree, name); ok {
		out = append(out, refactor("Unexpose Type", "unexpose_type", ctx.URI, edit))
	}
	return out
}

// createDeclaration offers a top-level stub for an unresolved, unqualified
// value reference.
func createDeclaration(ctx *Context, n *syntax.Node) []CodeAction {
	if n.Kind != syntax.KindValueRef || syntax.IsQualified(n) {
		return nil
	}
	if _, local := syntax.VisibleLocals(n)[n.Text]; local {
		return nil
	}
	if q, ok := ctx.Checker().(ScopeQuerier); ok && slices.Contains(q.NamesInScope(n), n.Text) {
		return nil
	}
	edit, ok := fix.InsertDeclaration(ctx.Tree(), ctx.Checker(), n)
	if !ok {
		return nil
	}
	a := NewQuickFix(fmt.Sprintf("Create top-level declaration `%s`", n.Text), ctx.URI, edit)
	a.ID = "create_declaration"
	return []CodeAction{a}
}

// letAnnotation annotates an unannotated let binding named at the cursor.
func letAnnotation(ctx *Context, n *syntax.Node) []CodeAction {
	if n.Kind != syntax.KindLowerName || n.Parent == nil || n.Parent.Kind != syntax.KindValueDecl {
		return nil
	}
	decl := n.Parent
	if decl.Parent == nil || decl.Parent.Kind != syntax.KindLet || decl.Field(syntax.FieldName) != n {
		return nil
	}
	edit, ok := fix.AddAnnotation(ctx.Tree(), ctx.Checker(), decl)
	if !ok {
		return nil
	}
	return []CodeAction{refactor("Add inferred annotation", "let_annotation", ctx.URI, edit)}
}

func refactor(title, id, uri string, edit fix.TextEdit) CodeAction {
	a := NewRefactor(title, uri, edit)
	a.ID = id
	return a
}
