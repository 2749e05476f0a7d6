// Package clause defines the clause algebra that every grammar in this
// module is built from: a small set of terminal and combinator kinds,
// each carrying a uniform contract for matching an input at a given
// position against the memo table built up so far. A Clause is a node
// in a DAG rather than a tree: combinators hold pointers to their
// sub-clauses directly (see Subs), so the same Clause can
// be shared by many parents once the grammar builder has interned it.
//
// Clause values are immutable once a grammar has finished building
// them. The builder (package grammar) is the only code that mutates a
// Clause's ID, CanMatchZero, SeedParents, and Rules fields; by the time
// a *Clause reaches Match, those fields are frozen.
package clause

import (
	"fmt"
	"strings"

	"github.com/go-pika/pika/perr"
)

// Kind identifies what a Clause matches and how.
type Kind int

const (
	// CharTerminal matches a single input rune against a union of
	// character sets.
	CharTerminal Kind = iota

	// CharSeqTerminal matches a fixed literal string of runes.
	CharSeqTerminal

	// StartTerminal matches the zero-length position at the very
	// start of input.
	StartTerminal

	// NothingTerminal always matches, consuming nothing. It is the
	// clause that Optional and ZeroOrMore desugar their "or nothing"
	// branch into.
	NothingTerminal

	// Seq matches its sub-clauses in order, each starting where the
	// previous one ended.
	Seq

	// First matches whichever of its sub-clauses matches first,
	// trying them in order and taking the first success.
	First

	// OneOrMore matches its single sub-clause one or more times,
	// greedily, via a self-referential tail lookup.
	OneOrMore

	// FollowedBy is a zero-length positive lookahead: it succeeds
	// with no consumed input iff its sub-clause matches.
	FollowedBy

	// NotFollowedBy is a zero-length negative lookahead: it succeeds
	// with no consumed input iff its sub-clause does not match.
	NotFollowedBy

	// RuleRef is a placeholder for "the top clause of rule X",
	// present only before the grammar builder resolves it away by
	// splicing in the referenced rule's actual top clause. No Clause
	// reaching Match ever has this kind.
	RuleRef
)

func (k Kind) String() string {
	switch k {
	case CharTerminal:
		return "CharTerminal"
	case CharSeqTerminal:
		return "CharSeqTerminal"
	case StartTerminal:
		return "StartTerminal"
	case NothingTerminal:
		return "NothingTerminal"
	case Seq:
		return "Seq"
	case First:
		return "First"
	case OneOrMore:
		return "OneOrMore"
	case FollowedBy:
		return "FollowedBy"
	case NotFollowedBy:
		return "NotFollowedBy"
	case RuleRef:
		return "RuleRef"
	default:
		return "Kind(?)"
	}
}

// CharRange is an inclusive range of runes, Lo <= Hi.
type CharRange struct {
	Lo, Hi rune
}

// CharSet is one alternative of a CharTerminal: a union of ranges,
// optionally inverted. A CharTerminal holds one or more CharSets; the
// clause matches a rune if any of its sets contains it.
type CharSet struct {
	Ranges []CharRange
	Invert bool
}

// Contains reports whether r is matched by this set.
func (cs CharSet) Contains(r rune) bool {
	in := false
	for _, rg := range cs.Ranges {
		if r >= rg.Lo && r <= rg.Hi {
			in = true
			break
		}
	}
	if cs.Invert {
		return !in
	}
	return in
}

func (cs CharSet) String() string {
	var b strings.Builder
	b.WriteByte('[')
	if cs.Invert {
		b.WriteByte('^')
	}
	for _, rg := range cs.Ranges {
		if rg.Lo == rg.Hi {
			fmt.Fprintf(&b, "%c", rg.Lo)
		} else {
			fmt.Fprintf(&b, "%c-%c", rg.Lo, rg.Hi)
		}
	}
	b.WriteByte(']')
	return b.String()
}

// LabeledClause pairs a child clause with the AST label its parent
// attaches to it. The label belongs to the edge, not to the child: the
// same Clause can be reached through many edges, each with its own
// label (or none).
type LabeledClause struct {
	Label string
	Clause *Clause
}

// Clause is one node of a grammar's clause DAG.
type Clause struct {
	// ID is the clause's position in its grammar's topological order,
	// assigned by the builder. -1 until assigned.
	ID int

	Kind Kind

	// CharSets holds CharTerminal's alternative character sets.
	CharSets []CharSet

	// Literal and CaseInsensitive hold CharSeqTerminal's payload.
	Literal         string
	CaseInsensitive bool
	literalRunes    []rune

	// RefName holds RuleRef's target rule name, before resolution.
	RefName string

	// Subs holds the labeled sub-clauses of a combinator. Terminal
	// kinds (CharTerminal, CharSeqTerminal, StartTerminal,
	// NothingTerminal) never have any.
	Subs []LabeledClause

	// CanMatchZero is computed by the grammar builder's zero-character
	// analysis pass: true iff this clause can match a zero-length span
	// at some position.
	CanMatchZero bool

	// SeedParents lists the clauses that must be re-enqueued when a
	// match at this clause improves, wired up by the builder's
	// seed-parent pass.
	SeedParents []*Clause

	// Rules names the zero or more rules whose top-level clause this
	// is, for diagnostics only; it plays no role in matching.
	Rules []string
}

func internedLiteral(s string) []rune {
	return []rune(s)
}

// NewChar builds a CharTerminal matching the union of the given sets.
func NewChar(sets ...CharSet) *Clause {
	return &Clause{ID: -1, Kind: CharTerminal, CharSets: sets}
}

// NewCharSeq builds a CharSeqTerminal matching the literal exactly, or
// case-insensitively when ci is true.
func NewCharSeq(literal string, ci bool) *Clause {
	return &Clause{ID: -1, Kind: CharSeqTerminal, Literal: literal, CaseInsensitive: ci, literalRunes: internedLiteral(literal)}
}

// NewStart builds the start-of-input terminal.
func NewStart() *Clause {
	return &Clause{ID: -1, Kind: StartTerminal}
}

// NewNothing builds the always-matches, zero-length terminal.
func NewNothing() *Clause {
	return &Clause{ID: -1, Kind: NothingTerminal}
}

// NewSeq builds a Seq of at least two labeled sub-clauses.
func NewSeq(subs ...LabeledClause) (*Clause, error) {
	if len(subs) < 2 {
		return nil, perr.Format(perr.ErrInvalidArity, "Seq requires at least 2 sub-clauses, got %d", len(subs))
	}
	return &Clause{ID: -1, Kind: Seq, Subs: subs}, nil
}

// NewFirst builds a First of at least two labeled sub-clauses.
func NewFirst(subs ...LabeledClause) (*Clause, error) {
	if len(subs) < 2 {
		return nil, perr.Format(perr.ErrInvalidArity, "First requires at least 2 sub-clauses, got %d", len(subs))
	}
	return &Clause{ID: -1, Kind: First, Subs: subs}, nil
}

// NewOneOrMore builds a OneOrMore around a single labeled sub-clause.
func NewOneOrMore(sub LabeledClause) *Clause {
	return &Clause{ID: -1, Kind: OneOrMore, Subs: []LabeledClause{sub}}
}

// NewFollowedBy builds a FollowedBy lookahead around a single labeled
// sub-clause.
func NewFollowedBy(sub LabeledClause) *Clause {
	return &Clause{ID: -1, Kind: FollowedBy, Subs: []LabeledClause{sub}}
}

// NewNotFollowedBy builds a NotFollowedBy lookahead around a single
// labeled sub-clause.
func NewNotFollowedBy(sub LabeledClause) *Clause {
	return &Clause{ID: -1, Kind: NotFollowedBy, Subs: []LabeledClause{sub}}
}

// NewRuleRef builds a placeholder reference to rule name, to be
// resolved away by the grammar builder.
func NewRuleRef(name string) *Clause {
	return &Clause{ID: -1, Kind: RuleRef, RefName: name}
}

// Optional desugars to First(x, Nothing): x if it matches, otherwise a
// zero-length match.
func Optional(x *Clause) *Clause {
	c, err := NewFirst(LabeledClause{Clause: x}, LabeledClause{Clause: NewNothing()})
	if err != nil {
		// unreachable: NewFirst always succeeds with 2 subs.
		panic(err)
	}
	return c
}

// ZeroOrMore desugars to First(OneOrMore(x), Nothing): one or more
// repetitions of x if any match, otherwise a zero-length match.
func ZeroOrMore(x *Clause) *Clause {
	c, err := NewFirst(
		LabeledClause{Clause: NewOneOrMore(LabeledClause{Clause: x})},
		LabeledClause{Clause: NewNothing()},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the clause in a Wirth-syntax-like canonical form, used
// both for diagnostics and as the dedup key during clause interning
// (see grammar's intern pass). It never includes this clause's own top
// label, since that belongs to whichever edge reaches it; labels on its
// own direct children are included, since those are part of its
// identity. A sub-clause that is the top clause of some rule (its Rules
// field is non-empty, which the builder sets once interning is done) is
// rendered by its first rule name rather than expanded, so rendering a
// built grammar's recursive rules terminates.
func (c *Clause) String() string {
	switch c.Kind {
	case CharTerminal:
		var b strings.Builder
		for i, cs := range c.CharSets {
			if i > 0 {
				b.WriteByte('|')
			}
			b.WriteString(cs.String())
		}
		return b.String()
	case CharSeqTerminal:
		if c.CaseInsensitive {
			return "i\"" + c.Literal + "\""
		}
		return "\"" + c.Literal + "\""
	case StartTerminal:
		return "^"
	case NothingTerminal:
		return "ε"
	case Seq:
		parts := make([]string, len(c.Subs))
		for i, sub := range c.Subs {
			parts[i] = labeledAtom(sub)
		}
		return strings.Join(parts, " ")
	case First:
		parts := make([]string, len(c.Subs))
		for i, sub := range c.Subs {
			parts[i] = labeledAtom(sub)
		}
		return strings.Join(parts, " / ")
	case OneOrMore:
		return labeledAtom(c.Subs[0]) + "+"
	case FollowedBy:
		return "&" + labeledAtom(c.Subs[0])
	case NotFollowedBy:
		return "!" + labeledAtom(c.Subs[0])
	case RuleRef:
		return c.RefName
	default:
		return "?"
	}
}

func labeledAtom(lc LabeledClause) string {
	s := atom(lc.Clause)
	if lc.Label != "" {
		return lc.Label + ":" + s
	}
	return s
}

func atom(c *Clause) string {
	if len(c.Rules) > 0 {
		return c.Rules[0]
	}
	s := c.String()
	if c.Kind == Seq || c.Kind == First {
		return "(" + s + ")"
	}
	return s
}
