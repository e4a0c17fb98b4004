// Package codeaction computes the code actions offered for a document.
//
// Providers register for diagnostic codes in a Registry. A Dispatcher
// freezes the registry and answers requests: each string-coded diagnostic
// in the request is handed to its providers, a fix-all is added when the
// document holds another diagnostic of the same code, and refactors are
// detected at the request range. Actions from external sources (the
// compile and lint diagnostics) come last.
package codeaction
