package codeaction

import (
	"context"
	"maps"
	"slices"

	"elmls/internal/diag"
	"elmls/internal/fix"
	"elmls/internal/source"
	"elmls/internal/trace"
)

// Request is one textDocument/codeAction query.
type Request struct {
	URI         string
	Range       source.Range
	Diagnostics []diag.Diagnostic
}

// ActionSource contributes actions computed outside the registry, such as
// the compile and lint diagnostics sources.
type ActionSource interface {
	OnCodeAction(ctx context.Context, req Request) []CodeAction
}

// Dispatcher turns requests into ordered code actions.
type Dispatcher struct {
	registry *Registry
	forest   Forest
	sources  []ActionSource
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSources appends action sources; they run after the refactors, in
// the given order.
func WithSources(sources ...ActionSource) Option {
	return func(d *Dispatcher) {
		for _, s := range sources {
			if s != nil {
				d.sources = append(d.sources, s)
			}
		}
	}
}

// WithTracer sets the tracer; otherwise the request context's tracer is used.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// NewDispatcher freezes reg and returns a dispatcher over forest.
func NewDispatcher(reg *Registry, forest Forest, opts ...Option) *Dispatcher {
	if reg == nil {
		reg = NewRegistry()
	}
	reg.Freeze()
	d := &Dispatcher{registry: reg, forest: forest}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the frozen registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

type fixAllKey struct {
	provider string
	code     string
}

// ComputeActions returns the actions for req, in this order: diagnostic
// fixes (each followed by its fix-all when offered), legacy conversions,
// refactors at the request range, then the external sources. A document
// the forest does not know yields an empty list.
func (d *Dispatcher) ComputeActions(ctx context.Context, req Request) []CodeAction {
	out := []CodeAction{}
	if d.forest == nil {
		return out
	}
	snap, ok := d.forest.Snapshot(req.URI)
	if !ok || snap == nil || snap.Tree == nil {
		return out
	}

	tracer := d.tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeRequest, "codeAction", trace.ParentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	all := mergeDiagnostics(snap.Diagnostics, req.Diagnostics)
	out = append(out, d.diagnosticActions(req, snap, all, tracer, span.ID())...)
	out = append(out, legacyActions(req, snap)...)
	out = append(out, withoutDuplicates(out, refactorActions(&Context{
		URI:         req.URI,
		Range:       req.Range,
		Diagnostics: all,
		Snapshot:    snap,
		Forest:      d.forest,
	}))...)
	for _, src := range d.sources {
		out = append(out, src.OnCodeAction(ctx, req)...)
	}

	out = d.reachable(req.URI, out, tracer)
	span.WithCount("actions", len(out)).End(req.URI)
	return out
}

func (d *Dispatcher) diagnosticActions(req Request, snap *Snapshot, all []diag.Diagnostic, tracer trace.Tracer, parent uint64) []CodeAction {
	var out []CodeAction
	asked := map[fixAllKey]bool{}
	for _, dg := range req.Diagnostics {
		code, ok := dg.Code.Str()
		if !ok || code == "" {
			continue
		}
		pctx := &Context{
			URI:         req.URI,
			Range:       dg.Range,
			Diagnostic:  dg,
			Diagnostics: all,
			Snapshot:    snap,
			Forest:      d.forest,
		}
		for _, p := range d.registry.Lookup(code) {
			ps := trace.Begin(tracer, trace.ScopeProvider, "provider:"+p.ID(), parent)
			actions := p.CodeActions(pctx)
			for _, a := range actions {
				if a.Kind == "" {
					a.Kind = KindQuickFix
				}
				if a.ID == "" {
					a.ID = p.ID()
				}
				a.Diagnostics = []diag.Diagnostic{dg}
				out = append(out, a)
			}

			key := fixAllKey{provider: p.ID(), code: code}
			if len(actions) > 0 && !asked[key] && hasSibling(all, dg, code) {
				asked[key] = true
				if fa, ok := p.FixAll(pctx); ok && fa.HasEdit() {
					fa.Kind = KindSourceFixAll
					if fa.ID == "" {
						fa.ID = p.ID() + ".all"
					}
					if len(fa.Diagnostics) == 0 {
						fa.Diagnostics = pctx.WithCode(code)
					}
					out = append(out, fa)
				}
			}
			ps.WithCount("actions", len(actions)).End(code)
		}
	}
	return out
}

// hasSibling reports whether another, non-identical diagnostic shares code.
func hasSibling(all []diag.Diagnostic, dg diag.Diagnostic, code string) bool {
	for _, other := range all {
		if s, ok := other.Code.Str(); ok && s == code && !other.Identical(dg) {
			return true
		}
	}
	return false
}

// mergeDiagnostics returns doc followed by the request diagnostics that are
// not already in doc.
func mergeDiagnostics(doc, req []diag.Diagnostic) []diag.Diagnostic {
	out := append([]diag.Diagnostic(nil), doc...)
	for _, r := range req {
		seen := false
		for _, d := range out {
			if d.Identical(r) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, r)
		}
	}
	return out
}

// withoutDuplicates drops the refactors whose edit is already offered by an
// earlier action, such as a quick fix for the diagnostic under the cursor.
func withoutDuplicates(earlier, refactors []CodeAction) []CodeAction {
	out := refactors[:0]
	for _, r := range refactors {
		if r.Edit == nil || !slices.ContainsFunc(earlier, func(a CodeAction) bool {
			return a.Edit != nil && sameEdit(*a.Edit, *r.Edit)
		}) {
			out = append(out, r)
		}
	}
	return out
}

func sameEdit(a, b fix.WorkspaceEdit) bool {
	return maps.EqualFunc(a.Changes, b.Changes, func(x, y []fix.TextEdit) bool {
		return slices.Equal(x, y)
	})
}

// reachable drops actions editing documents that are neither the request
// document nor known to the forest.
func (d *Dispatcher) reachable(uri string, actions []CodeAction, tracer trace.Tracer) []CodeAction {
	out := actions[:0]
	for _, a := range actions {
		ok := true
		if a.Edit != nil {
			for _, target := range a.Edit.URIs() {
				if target == uri {
					continue
				}
				if _, known := d.forest.Snapshot(target); !known {
					ok = false
					break
				}
			}
		}
		if !ok {
			trace.Logf(tracer, trace.ScopeDocument, "codeAction", "dropped %q: edits an unknown document", a.Title)
			continue
		}
		out = append(out, a)
	}
	return out
}
