package pika

import "github.com/go-pika/pika/clause"

// ASTBuilder is implemented by front-end code that turns a filled
// parse Result into an application-specific tree. This module does
// not ship one: projecting a match tree into an AST is necessarily
// grammar-specific, so it is left to the caller.
type ASTBuilder interface {
	Build(r *Result, ruleName string) (any, error)
}

// Renderer is implemented by front-end code that turns a single match
// into a displayable string, given the original input. Like
// ASTBuilder, no concrete implementation ships here beyond the
// diagnostic match.Summary helper.
type Renderer interface {
	Render(m *clause.Match, g *Grammar, input string) string
}
