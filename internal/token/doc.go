// Package token defines the lexical vocabulary of the language: token kinds,
// keywords and the trivia (whitespace, comments) attached to tokens.
package token
