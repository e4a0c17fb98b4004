package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/syntax"
	"elmls/internal/trace"
	"elmls/internal/types"
)

const maxSuggestions = 3

// Compiler is the compile diagnostics source: syntax errors, checker
// errors, unused imports and missing top-level annotations. It resolves
// "did you mean" actions for the unresolved references it reported.
type Compiler struct {
	settings  settings
	resolvers *resolverTable
}

var _ codeaction.ActionSource = (*Compiler)(nil)

func NewCompiler(opts Options) *Compiler {
	c := &Compiler{resolvers: newResolverTable()}
	c.settings.set(opts)
	return c
}

// SetOptions replaces the options used by later analyses.
func (c *Compiler) SetOptions(opts Options) {
	c.settings.set(opts)
}

// Analyze reports the diagnostics of one checked document and replaces the
// resolvers previously stored for uri.
func (c *Compiler) Analyze(ctx context.Context, uri string, checker *types.Checker) []diag.Diagnostic {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDocument, "compile", trace.ParentSpan(ctx))
	opts := c.settings.get()
	bag := diag.NewBag(opts.Max)
	rep := filterReporter{next: diag.BagReporter{Bag: bag}, opts: opts}
	resolvers := map[uuid.UUID]resolver{}

	tree := checker.Tree()
	file := tree.File
	for _, e := range tree.Errors {
		diag.ReportError(rep, diag.CodeSyntaxError, file.Range(e.Span), e.Msg).
			WithSource(diag.SourceCompiler).Emit()
	}

	for _, e := range checker.Errors() {
		code := checkerCode(e.Kind)
		b := diag.ReportError(rep, code, file.Range(e.Span), e.Msg).WithSource(diag.SourceCompiler)
		if e.Kind == types.ErrUnresolvedValue {
			if r := suggestionResolver(uri, checker, e); r != nil {
				b = attach(b, resolvers, r)
			}
		}
		b.Emit()
	}

	for _, imp := range checker.UnusedImports() {
		msg := fmt.Sprintf("Module `%s` is imported but never used.", imp.Name())
		diag.ReportWarning(rep, diag.CodeUnusedImport, tree.Range(imp), msg).
			WithSource(diag.SourceCompiler).Emit()
	}

	for _, decl := range tree.Root.ChildrenOf(syntax.KindValueDecl) {
		name := decl.Field(syntax.FieldName)
		if name == nil || syntax.AnnotationFor(decl) != nil {
			continue
		}
		msg := fmt.Sprintf("Top-level value `%s` does not have a type annotation.", name.Text)
		diag.ReportWarning(rep, diag.CodeMissingTypeAnnotation, tree.Range(name), msg).
			WithSource(diag.SourceCompiler).Emit()
	}

	c.resolvers.replace(uri, resolvers)
	out := collect(bag)
	span.WithCount("diagnostics", len(out)).End(uri)
	return out
}

// OnCodeAction implements codeaction.ActionSource.
func (c *Compiler) OnCodeAction(_ context.Context, req codeaction.Request) []codeaction.CodeAction {
	return c.resolvers.resolve(req)
}

// Forget drops the resolvers of a closed document.
func (c *Compiler) Forget(uri string) {
	c.resolvers.forget(uri)
}

func checkerCode(kind types.ErrorKind) string {
	switch kind {
	case types.ErrUnresolvedValue, types.ErrUnresolvedConstructor, types.ErrUnresolvedType:
		return diag.CodeUnresolvedReference
	case types.ErrUnknownModule:
		return diag.CodeUnresolvedImport
	default:
		return diag.CodeTypeMismatch
	}
}

// suggestionResolver offers close names in scope for an unqualified
// unresolved value.
func suggestionResolver(uri string, checker *types.Checker, e types.Error) resolver {
	tree := checker.Tree()
	node := tree.NodeCovering(e.Span)
	if node == nil || node.Kind != syntax.KindValueRef || syntax.IsQualified(node) {
		return nil
	}
	names := Suggest(node.Text, checker.NamesInScope(node), maxSuggestions)
	if len(names) == 0 {
		return nil
	}
	return func() []codeaction.CodeAction {
		out := make([]codeaction.CodeAction, 0, len(names))
		for _, name := range names {
			a := codeaction.NewQuickFix(fmt.Sprintf("Change to `%s`", name), uri, fix.ReplaceNode(tree, node, name))
			a.ID = "did_you_mean"
			out = append(out, a)
		}
		return out
	}
}
