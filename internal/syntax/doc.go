// Package syntax holds the parsed representation of a source file: an
// immutable node tree tagged with a closed set of kinds, the layout-aware
// parser that builds it, and cursor helpers that locate nodes by position
// and answer structural questions (is a name exposed, which annotation
// belongs to a declaration, is a node inside a let block).
package syntax
