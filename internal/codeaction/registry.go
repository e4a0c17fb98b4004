package codeaction

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Provider reacts to diagnostics of the codes it declares.
type Provider interface {
	// ID is the unique fix identifier, e.g. "add_missing_type_annotation".
	ID() string
	// Codes lists the diagnostic codes the provider handles.
	Codes() []string
	// CodeActions returns the fixes for ctx.Diagnostic; none is fine.
	CodeActions(ctx *Context) []CodeAction
	// FixAll returns one action fixing every diagnostic of ctx.Diagnostic's
	// code in the document. Providers that cannot combine fixes return false.
	FixAll(ctx *Context) (CodeAction, bool)
}

// Registry maps diagnostic codes to providers. It is filled during start-up
// and frozen before the first request; lookups never lock.
type Registry struct {
	byCode    map[string][]Provider
	providers []Provider
	frozen    atomic.Bool
}

// NewRegistry returns an empty, writable registry.
func NewRegistry() *Registry {
	return &Registry{byCode: map[string][]Provider{}}
}

// Register stores p under each of its codes. Registering twice registers
// twice. It panics once the registry is frozen.
func (r *Registry) Register(p Provider) {
	if r.frozen.Load() {
		panic(fmt.Sprintf("codeaction: Register(%s) after Freeze", p.ID()))
	}
	r.providers = append(r.providers, p)
	for _, code := range p.Codes() {
		r.byCode[code] = append(r.byCode[code], p)
	}
}

// Freeze ends the registration phase.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Lookup returns the providers for code in registration order.
func (r *Registry) Lookup(code string) []Provider {
	ps := r.byCode[code]
	if len(ps) == 0 {
		return nil
	}
	return append([]Provider(nil), ps...)
}

// Providers returns every registered provider in registration order.
func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

// Codes returns the codes with at least one provider, sorted.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
