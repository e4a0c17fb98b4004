package analysis

import (
	"context"

	"github.com/google/uuid"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/syntax"
	"elmls/internal/trace"
)

// Linter is the lint diagnostics source. It only needs the syntax tree.
type Linter struct {
	settings  settings
	resolvers *resolverTable
}

var _ codeaction.ActionSource = (*Linter)(nil)

func NewLinter(opts Options) *Linter {
	l := &Linter{resolvers: newResolverTable()}
	l.settings.set(opts)
	return l
}

// SetOptions replaces the options used by later analyses.
func (l *Linter) SetOptions(opts Options) {
	l.settings.set(opts)
}

// Analyze lints one document and replaces the resolvers stored for uri.
func (l *Linter) Analyze(ctx context.Context, uri string, tree *syntax.Tree) []diag.Diagnostic {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDocument, "lint", trace.ParentSpan(ctx))
	opts := l.settings.get()
	bag := diag.NewBag(opts.Max)
	rep := filterReporter{next: diag.BagReporter{Bag: bag}, opts: opts}
	resolvers := map[uuid.UUID]resolver{}

	syntax.Inspect(tree.Root, func(n *syntax.Node) bool {
		if n.Kind != syntax.KindParen || !redundantParens(n) {
			return true
		}
		edit, ok := fix.Unwrap(tree, n)
		if !ok {
			return true
		}
		b := diag.NewReportBuilder(rep, diag.SevHint, diag.CodeUnnecessaryParens, tree.Range(n),
			"Unnecessary parentheses").WithSource(diag.SourceLint)
		b = attach(b, resolvers, func() []codeaction.CodeAction {
			a := codeaction.NewQuickFix("Remove unnecessary parentheses", uri, edit)
			a.ID = "remove_parens"
			a.IsPreferred = true
			return []codeaction.CodeAction{a}
		})
		b.Emit()
		return true
	})

	l.resolvers.replace(uri, resolvers)
	out := collect(bag)
	span.WithCount("diagnostics", len(out)).End(uri)
	return out
}

// OnCodeAction implements codeaction.ActionSource.
func (l *Linter) OnCodeAction(_ context.Context, req codeaction.Request) []codeaction.CodeAction {
	return l.resolvers.resolve(req)
}

// Forget drops the resolvers of a closed document.
func (l *Linter) Forget(uri string) {
	l.resolvers.forget(uri)
}

// redundantParens reports parentheses around an atom, or parentheses that
// make up a whole body, branch or element.
func redundantParens(paren *syntax.Node) bool {
	inner := paren.Field(syntax.FieldValue)
	if inner == nil || inner.Kind == syntax.KindError {
		return false
	}
	switch inner.Kind {
	case syntax.KindValueRef, syntax.KindConstructorRef, syntax.KindParen,
		syntax.KindRecord, syntax.KindRecordUpdate, syntax.KindList, syntax.KindTuple, syntax.KindUnit,
		syntax.KindFieldAccess, syntax.KindFieldAccessor,
		syntax.KindIntLit, syntax.KindFloatLit, syntax.KindStringLit, syntax.KindCharLit:
		return true
	}

	parent := paren.Parent
	if parent == nil {
		return false
	}
	switch parent.Kind {
	case syntax.KindValueDecl, syntax.KindLet, syntax.KindCaseBranch, syntax.KindLambda:
		return parent.FieldOf(paren) == syntax.FieldBody
	case syntax.KindIf:
		return true
	case syntax.KindCase:
		return parent.FieldOf(paren) == syntax.FieldSubject
	case syntax.KindList, syntax.KindTuple:
		return true
	case syntax.KindFieldAssign:
		return parent.FieldOf(paren) == syntax.FieldValue
	}
	return false
}
