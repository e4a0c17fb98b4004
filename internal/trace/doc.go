// Package trace is the leveled tracer used for logging by the language
// server and the CLI.
//
// Events are spans (Begin/End) or points (Logf, Errorf). A tracer drops
// events whose scope is finer than its level allows:
//
//   - LevelOff: nothing
//   - LevelError: error events only
//   - LevelRequest: server lifecycle and request spans
//   - LevelDocument: per-document work
//   - LevelDebug: everything, including each provider call
//
// The server writes text to stderr; `--trace=file.ndjson` switches the CLI to
// newline-delimited JSON.
package trace
