package grammar

import "github.com/go-pika/pika/clause"

// Associativity declares how a precedence-family level's own
// self-references chain, when there is more than one of them in a
// single rule body (see rewriteNode in precedence.go).
type Associativity int

const (
	// NoAssoc means "no declared associativity": every self-reference
	// in a multi-reference rule body defers to the next-tighter level,
	// so the operator can never chain without explicit parentheses.
	NoAssoc Associativity = iota

	// LeftAssoc means the leftmost self-reference recurses at this
	// same level (so it can itself expand into another instance of the
	// operator) and every other self-reference defers to the
	// next-tighter level. Matches "a op b op c" grouping as "(a op b)
	// op c".
	LeftAssoc

	// RightAssoc is the mirror of LeftAssoc: the rightmost
	// self-reference recurses at this same level, every other
	// self-reference defers to the next-tighter level. Matches
	// "a op b op c" grouping as "a op (b op c)".
	RightAssoc
)

// Rule is one named production supplied to New. Rules sharing a Name
// but differing Precedence form a precedence-climbing family: level 0
// is the loosest-binding, the highest Precedence value is the
// tightest. Within such a family, every bare self-reference
// (clause.NewRuleRef(Name)) in a level's Top is rewritten automatically
// per the level's Associativity and the number of self-references the
// body contains — see precedence.go's rewriteNode for the exact
// schemas. A reference to a level other than the one the rewrite would
// pick — most commonly a "reset to the full grammar" reference such as
// the contents of a parenthesized sub-expression — must still be built
// explicitly with PrecRef.
type Rule struct {
	Name       string
	Precedence int

	// Associativity governs the rewrite of this level's self-references
	// when Top contains two or more of them. It has no effect when Top
	// contains zero or one bare self-reference to Name, or for a rule
	// with no sibling precedence levels.
	Associativity Associativity

	// Label is the AST label a reference to this rule carries when the
	// referencing edge doesn't already specify its own label: any bare
	// clause.NewRuleRef(Name) resolved by New inherits Label on the
	// LabeledClause it's spliced into. For a precedence family, every
	// level's own Label feeds this inheritance independently; the
	// family's external bare name also carries the first level's Label,
	// via the alias rule New generates for it.
	Label string

	Top *clause.Clause
}
