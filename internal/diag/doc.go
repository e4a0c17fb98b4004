// Package diag defines the diagnostic model shared by the analysis engines,
// the code-action core and the language server.
//
// # Data model
//
// Diagnostic mirrors the LSP record:
//
//   - Range – LSP range (UTF-16 columns) of the finding.
//   - Severity – LSP severity; lower values are more severe.
//   - Code – wire-shaped code. Editors may send strings, integers or no code
//     at all, and the shape is preserved so that integer codes never match a
//     string-keyed provider by accident.
//   - Source – the engine that produced the diagnostic.
//   - Data – opaque payload that round-trips through the client untouched.
//     The analysis engines store resolver ids here.
//
// # Utilities
//
// Bag collects diagnostics with an optional limit and offers deterministic
// Sort and Dedup. Reporter and ReportBuilder let producers emit diagnostics
// without knowing where they are stored.
//
// Package diag does not format or apply anything: rendering lives in
// internal/diagfmt and edits live in internal/fix.
package diag
