// Package diagfmt renders diagnostics, edit previews and tokens for the
// terminal and as JSON.
package diagfmt
