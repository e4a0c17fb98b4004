// Package lsp serves the language server protocol over stdio: document
// sync into a workspace.Forest, debounced diagnostics publishing, code
// actions and the move-declaration command.
package lsp
