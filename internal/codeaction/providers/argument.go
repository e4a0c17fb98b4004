package providers

import (
	"fmt"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/syntax"
)

// IntroduceFunctionArgument turns an unresolved name into a new parameter of
// the enclosing top-level function.
//
// There is no fix-all: two unresolved names in one function would share the
// annotation edit point, and each call site needs its own argument.
type IntroduceFunctionArgument struct{}

func (IntroduceFunctionArgument) ID() string { return "introduce_function_argument" }

func (IntroduceFunctionArgument) Codes() []string {
	return []string{diag.CodeUnresolvedReference}
}

func (IntroduceFunctionArgument) CodeActions(ctx *codeaction.Context) []codeaction.CodeAction {
	n := ctx.Node()
	if n == nil || n.Kind != syntax.KindValueRef || syntax.IsQualified(n) {
		return nil
	}
	// Not the record of `r.field`.
	if p := n.Parent; p != nil && (p.Kind == syntax.KindFieldAccess || p.Kind == syntax.KindFieldAccessor) {
		return nil
	}
	decl := syntax.TopLevelDeclaration(n)
	if decl == nil || decl.Kind != syntax.KindValueDecl || decl.Name() == "" {
		return nil
	}
	edits, ok := fix.InsertParameter(ctx.Tree(), ctx.Checker(), decl, n)
	if !ok {
		return nil
	}
	title := fmt.Sprintf("Add new parameter to `%s`", decl.Name())
	return []codeaction.CodeAction{codeaction.NewQuickFix(title, ctx.URI, edits...)}
}

func (IntroduceFunctionArgument) FixAll(*codeaction.Context) (codeaction.CodeAction, bool) {
	return codeaction.CodeAction{}, false
}
