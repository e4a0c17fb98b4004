// Package analysis produces the diagnostics the code-action engine reacts
// to. The Compiler reports parse and type errors together with unused
// imports and missing annotations; the Linter reports style problems.
//
// Both are codeaction.ActionSource implementations: an action a diagnostic
// can carry is built lazily by a resolver whose id is stored in the
// diagnostic's Data field.
package analysis
