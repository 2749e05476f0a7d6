package grammar

import (
	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/perr"
)

// New builds a Grammar from rules, running the full construction
// pipeline: sanity checks, precedence-climbing rewrite, rule-reference
// resolution, combined clause interning and topological ordering,
// zero-character (nullability) analysis, invariant validation, and
// seed-parent wiring. The returned Grammar's clause DAG is frozen:
// nothing mutates it again.
func New(rules []Rule) (*Grammar, error) {
	if len(rules) == 0 {
		return nil, perr.Format(perr.ErrEmptyRuleList, "grammar.New requires at least one rule")
	}
	for _, r := range rules {
		if r.Top.Kind == clause.RuleRef && r.Top.RefName == r.Name {
			return nil, perr.Format(perr.ErrBareSelfRef, "rule %q is a bare reference to itself", r.Name)
		}
	}

	expanded, precIndex, err := expandPrecedence(rules)
	if err != nil {
		return nil, err
	}

	nameMap := make(map[string]*clause.Clause, len(expanded))
	ruleLabel := make(map[string]string, len(expanded))
	for _, r := range expanded {
		nameMap[r.Name] = r.Top
		ruleLabel[r.Name] = r.Label
	}

	if err := resolveAliases(nameMap); err != nil {
		return nil, err
	}
	if err := resolveAllRefs(nameMap, ruleLabel); err != nil {
		return nil, err
	}

	order, finalOf, err := internAndOrder(nameMap)
	if err != nil {
		return nil, err
	}

	computeNullability(order)

	if err := validateInvariants(order); err != nil {
		return nil, err
	}

	wireSeedParents(order)

	byName := make(map[string]*clause.Clause, len(nameMap))
	for name, c := range nameMap {
		rep := finalOf[c]
		byName[name] = rep
		rep.Rules = append(rep.Rules, name)
	}

	byNamePrecedence := make(map[string]map[int]*clause.Clause, len(precIndex))
	for name, levels := range precIndex {
		byNamePrecedence[name] = make(map[int]*clause.Clause, len(levels))
		for prec, internalName := range levels {
			byNamePrecedence[name][prec] = byName[internalName]
		}
	}

	return &Grammar{
		clauses:    order,
		byName:     byName,
		byNamePrec: byNamePrecedence,
	}, nil
}

// resolveAliases short-circuits every bare-alias rule (one whose Top is
// itself a RuleRef, introduced by the family-alias rule expandPrecedence
// appends for every precedence family) down to the first non-RuleRef
// clause it ultimately names, detecting reference cycles that never
// reach a real clause.
func resolveAliases(nameMap map[string]*clause.Clause) error {
	for name := range nameMap {
		if _, err := resolveAlias(name, nameMap, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

func resolveAlias(name string, nameMap map[string]*clause.Clause, path map[string]bool) (*clause.Clause, error) {
	c, ok := nameMap[name]
	if !ok {
		return nil, perr.Format(perr.ErrUnresolvedRuleRef, "reference to undefined rule %q", name)
	}
	if c.Kind != clause.RuleRef {
		return c, nil
	}
	if path[name] {
		return nil, perr.Format(perr.ErrRefCycle, "rule %q is part of a reference cycle that never reaches a real clause", name)
	}
	path[name] = true
	target, err := resolveAlias(c.RefName, nameMap, path)
	if err != nil {
		return nil, err
	}
	nameMap[name] = target
	return target, nil
}

// resolveAllRefs walks every rule's (now alias-free) clause tree and
// splices in the actual target clause wherever a RuleRef sub-clause is
// found, using visited to avoid revisiting shared sub-clauses or
// looping forever around a cycle. An edge with no AST label of its own
// inherits the label of the rule it references (ruleLabel), so a bare
// RuleRef and a hand-labeled one behave the same once resolved.
func resolveAllRefs(nameMap map[string]*clause.Clause, ruleLabel map[string]string) error {
	visited := map[*clause.Clause]bool{}
	for _, root := range nameMap {
		if err := resolveRefsIn(root, nameMap, ruleLabel, visited); err != nil {
			return err
		}
	}
	return nil
}

func resolveRefsIn(c *clause.Clause, nameMap map[string]*clause.Clause, ruleLabel map[string]string, visited map[*clause.Clause]bool) error {
	if visited[c] {
		return nil
	}
	visited[c] = true
	for i, sub := range c.Subs {
		if sub.Clause.Kind == clause.RuleRef {
			refName := sub.Clause.RefName
			target, ok := nameMap[refName]
			if !ok {
				return perr.Format(perr.ErrUnresolvedRuleRef, "reference to undefined rule %q", refName)
			}
			c.Subs[i].Clause = target
			if c.Subs[i].Label == "" {
				c.Subs[i].Label = ruleLabel[refName]
			}
			continue
		}
		if err := resolveRefsIn(sub.Clause, nameMap, ruleLabel, visited); err != nil {
			return err
		}
	}
	return nil
}

type dfsColor int

const (
	white dfsColor = iota
	gray
	black
)

// internAndOrder performs one DFS over the whole reference-resolved
// clause DAG, deduplicating structurally-identical clauses by their
// canonical string form and assigning each representative a post-order
// ID (terminals and already-settled sub-DAGs finish, and so are
// numbered, before the combinators above them); clauses replaced by an
// earlier identical one get no ID and are left out of the order. Cycle
// heads (clauses reached again while still gray, i.e. via a back edge)
// and every clause from which a cycle is reachable are left
// un-deduplicated, since their canonical string would depend on
// themselves.
func internAndOrder(nameMap map[string]*clause.Clause) ([]*clause.Clause, map[*clause.Clause]*clause.Clause, error) {
	color := map[*clause.Clause]dfsColor{}
	cycleHead := map[*clause.Clause]bool{}
	reachesCycle := map[*clause.Clause]bool{}
	intern := make(map[string]*clause.Clause, len(nameMap))
	finalOf := map[*clause.Clause]*clause.Clause{}
	var order []*clause.Clause
	nextID := 0

	var visit func(c *clause.Clause) *clause.Clause
	visit = func(c *clause.Clause) *clause.Clause {
		if color[c] == black {
			return finalOf[c]
		}
		color[c] = gray
		for i, sub := range c.Subs {
			child := sub.Clause
			if color[child] == gray {
				cycleHead[child] = true
				reachesCycle[c] = true
				continue
			}
			c.Subs[i].Clause = visit(child)
			if reachesCycle[child] {
				reachesCycle[c] = true
			}
		}
		color[c] = black

		rep := c
		if !cycleHead[c] && !reachesCycle[c] {
			key := c.String()
			if existing, ok := intern[key]; ok {
				rep = existing
			} else {
				intern[key] = c
			}
		}
		if rep == c {
			c.ID = nextID
			nextID++
			order = append(order, c)
		}
		finalOf[c] = rep
		return rep
	}

	for _, root := range nameMap {
		visit(root)
	}
	return order, finalOf, nil
}

// computeNullability runs a monotone fixed-point pass over clauses
// (any order is correct, since each clause's CanMatchZero only ever
// flips from false to true) until no clause changes in a full sweep.
func computeNullability(clauses []*clause.Clause) {
	changed := true
	for changed {
		changed = false
		for _, c := range clauses {
			nv := nullable(c)
			if nv != c.CanMatchZero {
				c.CanMatchZero = nv
				changed = true
			}
		}
	}
}

func nullable(c *clause.Clause) bool {
	switch c.Kind {
	case clause.CharTerminal:
		return false
	case clause.CharSeqTerminal:
		return c.Literal == ""
	case clause.StartTerminal, clause.NothingTerminal, clause.FollowedBy, clause.NotFollowedBy:
		return true
	case clause.Seq:
		for _, sub := range c.Subs {
			if !sub.Clause.CanMatchZero {
				return false
			}
		}
		return true
	case clause.First:
		for _, sub := range c.Subs {
			if sub.Clause.CanMatchZero {
				return true
			}
		}
		return false
	case clause.OneOrMore:
		return c.Subs[0].Clause.CanMatchZero
	default:
		return false
	}
}

// validateInvariants rejects constructions that are always either
// dead code or guaranteed to fail, which the grammar builder can catch
// once nullability is known:
//
//   - a First clause with a nullable alternative that isn't its last,
//     which would make every alternative after it unreachable;
//   - any combinator with Nothing as its first sub-clause, which is
//     always degenerate: for Seq and First that sub-clause carries no
//     information a later one couldn't carry instead, and for
//     OneOrMore/FollowedBy/NotFollowedBy there's only one sub-clause to
//     begin with;
//   - a NotFollowedBy wrapping a nullable clause, which always fails
//     since a nullable clause always matches at least the empty span.
func validateInvariants(clauses []*clause.Clause) error {
	for _, c := range clauses {
		switch c.Kind {
		case clause.Seq, clause.First, clause.OneOrMore, clause.FollowedBy, clause.NotFollowedBy:
			if c.Subs[0].Clause.Kind == clause.NothingTerminal {
				return perr.Format(perr.ErrNothingFirstChild,
					"%s has Nothing as its first sub-clause, which is always degenerate", c.Kind)
			}
		}
		switch c.Kind {
		case clause.First:
			for i, sub := range c.Subs {
				if i < len(c.Subs)-1 && sub.Clause.CanMatchZero {
					return perr.Format(perr.ErrZeroWidthNotLast,
						"First clause %q has a nullable alternative before its last", c.String())
				}
			}
		case clause.NotFollowedBy:
			if c.Subs[0].Clause.CanMatchZero {
				return perr.Format(perr.ErrNullableNotFollowedBy,
					"NotFollowedBy wraps a nullable clause %q, which always fails", c.Subs[0].Clause.String())
			}
		}
	}
	return nil
}

// wireSeedParents registers, for every combinator, which of its own
// sub-clauses it depends on at the *same* input position (as opposed
// to a position further right, already settled by the time this
// clause is swept). Those are the only sub-clauses whose improvement
// can possibly change this clause's own best match, so they are the
// only ones that need to re-enqueue it.
//
// For Seq that means the leading run of sub-clauses up to and
// including the first non-nullable one: later sub-clauses are looked
// up at a position that has shifted right of this Seq's own position,
// since everything before them is already fixed. For First it's every
// sub-clause, since all of them are tried at the same position.
// OneOrMore depends on its own child and, when the child can match
// zero-length, on itself. NotFollowedBy is evaluated lazily, top-down,
// by the memo table and is never seeded, so it is skipped here.
func wireSeedParents(clauses []*clause.Clause) {
	for _, c := range clauses {
		switch c.Kind {
		case clause.Seq:
			for _, sub := range c.Subs {
				sub.Clause.SeedParents = append(sub.Clause.SeedParents, c)
				if !sub.Clause.CanMatchZero {
					break
				}
			}
		case clause.First:
			for _, sub := range c.Subs {
				sub.Clause.SeedParents = append(sub.Clause.SeedParents, c)
			}
		case clause.OneOrMore:
			child := c.Subs[0].Clause
			child.SeedParents = append(child.SeedParents, c)
			if child.CanMatchZero {
				c.SeedParents = append(c.SeedParents, c)
			}
		case clause.FollowedBy:
			c.Subs[0].Clause.SeedParents = append(c.Subs[0].Clause.SeedParents, c)
		}
	}
}
