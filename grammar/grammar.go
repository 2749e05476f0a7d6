// Package grammar builds a frozen clause DAG from a set of named
// rules: resolving rule references, interning structurally-identical
// clauses, computing nullability, validating construction invariants,
// and wiring the seed-parent links the driver's sweep needs to
// propagate improved matches.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/perr"
)

// Grammar is a fully-built, immutable clause DAG together with the
// rule names that address into it.
type Grammar struct {
	clauses    []*clause.Clause
	byName     map[string]*clause.Clause
	byNamePrec map[string]map[int]*clause.Clause
}

// RuleByName returns the top clause for rule name (its bare name, not
// a precedence-qualified internal name), or an error if no such rule
// exists.
func (g *Grammar) RuleByName(name string) (*clause.Clause, error) {
	c, ok := g.byName[name]
	if !ok {
		return nil, perr.Format(perr.ErrUnknownRule, "no such rule: %q", name)
	}
	return c, nil
}

// RuleAt returns the clause for one specific precedence level of a
// rule family, or false if the rule or that exact precedence doesn't
// exist. For a rule with a single precedence level, precedence must
// match the level it was declared with (0 if unspecified).
func (g *Grammar) RuleAt(name string, precedence int) (*clause.Clause, bool) {
	levels, ok := g.byNamePrec[name]
	if !ok {
		return nil, false
	}
	c, ok := levels[precedence]
	return c, ok
}

// Clauses returns the grammar's full clause set in topological order
// (terminals and settled sub-DAGs before the combinators above them).
// The returned slice is the grammar's own backing storage and must not
// be mutated.
func (g *Grammar) Clauses() []*clause.Clause {
	return g.clauses
}

// Stats is a snapshot of structural diagnostics about a built grammar.
type Stats struct {
	ClauseCount   int
	RuleCount     int
	NullableCount int
	MaxDepth      int
}

// Stats computes diagnostic counters over the grammar's clause DAG:
// total clause count after interning, number of addressable rule
// names, how many clauses can match a zero-length span, and the
// number of clauses on the longest chain of direct sub-clause edges
// from any rule's top clause down to a terminal (a lone terminal has
// depth 1).
func (g *Grammar) Stats() Stats {
	s := Stats{ClauseCount: len(g.clauses), RuleCount: len(g.byName)}
	for _, c := range g.clauses {
		if c.CanMatchZero {
			s.NullableCount++
		}
	}
	memo := map[*clause.Clause]int{}
	for _, c := range g.byName {
		if d := depth(c, memo); d > s.MaxDepth {
			s.MaxDepth = d
		}
	}
	return s
}

func depth(c *clause.Clause, memo map[*clause.Clause]int) int {
	if d, ok := memo[c]; ok {
		return d
	}
	memo[c] = 0 // break cycles: a clause mid-computation reports depth 0 to its own ancestors
	max := 0
	for _, sub := range c.Subs {
		if d := depth(sub.Clause, memo); d > max {
			max = d
		}
	}
	memo[c] = max + 1
	return memo[c]
}

// String renders every addressable rule in the grammar, one per line,
// in the same canonical form clause.Clause.String uses for its
// sub-clauses, sorted by name for determinism. Internal
// precedence-level names (e.g. "Expr[0]") are omitted; only the bare
// family names a caller can pass to RuleByName are shown.
func (g *Grammar) String() string {
	names := make([]string, 0, len(g.byName))
	for name := range g.byName {
		if !strings.ContainsRune(name, '[') {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s <- %s\n", name, g.byName[name].String())
	}
	return b.String()
}
