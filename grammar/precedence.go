package grammar

import (
	"fmt"
	"sort"

	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/perr"
)

// levelName is the internal rule name for one precedence level of a
// rule family, e.g. "Expr[0]".
func levelName(name string, level int) string {
	return fmt.Sprintf("%s[%d]", name, level)
}

// precRefName is the internal placeholder name for an explicit
// cross-level reference built by PrecRef.
func precRefName(name string, precedence int) string {
	return fmt.Sprintf("%s@%d", name, precedence)
}

// PrecRef builds a reference to one specific precedence level of a
// rule family, by the precedence value that level was declared with
// rather than its position in sort order. Use it for a cross-level
// reference the self-reference rewrite does not produce, such as a
// "reset to the full grammar" reference from the contents of a
// parenthesized sub-expression, which typically points back at
// precedence 0. A bare clause.NewRuleRef(familyName), by contrast, is
// rewritten by rewriteNode according to how many bare self-references
// the level's body holds and the level's Associativity.
func PrecRef(familyName string, precedence int) *clause.Clause {
	return clause.NewRuleRef(precRefName(familyName, precedence))
}

// expandPrecedence groups rules by Name and rewrites each group of two
// or more precedence levels into a flat set of internally-named level
// rules plus an alias rule under the family's bare Name pointing at
// level 0, the loosest-binding level. Groups with a single rule pass
// through unchanged: a bare self-reference there is ordinary
// unqualified recursion, resolved like any other rule reference.
func expandPrecedence(rules []Rule) ([]Rule, map[string]map[int]string, error) {
	groups := map[string][]Rule{}
	order := []string{}
	for _, r := range rules {
		if _, ok := groups[r.Name]; !ok {
			order = append(order, r.Name)
		}
		groups[r.Name] = append(groups[r.Name], r)
	}

	precIndex := map[string]map[int]string{}
	var out []Rule
	for _, name := range order {
		group := groups[name]
		if len(group) == 1 {
			out = append(out, group[0])
			precIndex[name] = map[int]string{group[0].Precedence: name}
			continue
		}

		sort.Slice(group, func(i, j int) bool { return group[i].Precedence < group[j].Precedence })
		seenPrec := map[int]bool{}
		for _, r := range group {
			if r.Precedence < 0 {
				return nil, nil, perr.Format(perr.ErrNegativePrecedence, "rule %q has negative precedence %d", r.Name, r.Precedence)
			}
			if seenPrec[r.Precedence] {
				return nil, nil, perr.Format(perr.ErrDuplicatePrecedence, "rule %q has two levels at precedence %d", r.Name, r.Precedence)
			}
			seenPrec[r.Precedence] = true
		}

		// levelOf lets rewriteNode resolve a PrecRef by the precedence
		// value it names, independent of processing order.
		levelOf := map[int]int{}
		for i, r := range group {
			levelOf[r.Precedence] = i
		}

		precIndex[name] = map[int]string{}
		last := len(group) - 1
		k := len(group)
		for i, r := range group {
			precIndex[name][r.Precedence] = levelName(name, i)

			iPrime := (i + 1) % k
			total := countSelfRefs(r.Top, name)
			occIdx := 0
			rewritten := rewriteNode(r.Top, name, i, iPrime, total, r.Associativity, &occIdx, levelOf)
			levelRule := Rule{Name: levelName(name, i), Label: r.Label, Top: rewritten}

			if i < last {
				nextRef := clause.NewRuleRef(levelName(name, i+1))
				wrapped, err := clause.NewFirst(
					clause.LabeledClause{Clause: levelRule.Top},
					clause.LabeledClause{Clause: nextRef},
				)
				if err != nil {
					return nil, nil, err
				}
				levelRule.Top = wrapped
			}
			out = append(out, levelRule)
		}

		out = append(out, Rule{
			Name:  name,
			Label: group[0].Label,
			Top:   clause.NewRuleRef(levelName(name, 0)),
		})
	}
	return out, precIndex, nil
}

// countSelfRefs counts the bare references to familyName within c,
// descending into every sub-clause. PrecRef placeholders are a
// different RefName and so never count.
func countSelfRefs(c *clause.Clause, familyName string) int {
	if c.Kind == clause.RuleRef {
		if c.RefName == familyName {
			return 1
		}
		return 0
	}
	switch c.Kind {
	case clause.Seq, clause.First:
		n := 0
		for _, sub := range c.Subs {
			n += countSelfRefs(sub.Clause, familyName)
		}
		return n
	case clause.OneOrMore, clause.FollowedBy, clause.NotFollowedBy:
		return countSelfRefs(c.Subs[0].Clause, familyName)
	default:
		return 0
	}
}

// rewriteNode rewrites, within a fresh (as-yet-unshared) tree belonging
// to precedence level `level` of family `familyName`, every bare
// self-reference to familyName per the mechanical schema keyed on how
// many such self-references the whole rule body contains:
//
//   - exactly one: the occurrence becomes First(N[level], N[iPrime]) —
//     try staying at this level (so the pattern can still chain),
//     falling back to the next-tighter level.
//   - two or more, LeftAssoc: the leftmost occurrence becomes N[level],
//     every other occurrence becomes N[iPrime].
//   - two or more, RightAssoc: the rightmost occurrence becomes
//     N[level], every other occurrence becomes N[iPrime].
//   - two or more, NoAssoc: every occurrence becomes N[iPrime].
//
// occIdx threads a single running count of self-reference occurrences
// visited so far across the whole (pre-order, left-to-right) traversal
// of one rule body, so "leftmost"/"rightmost" are judged body-wide, not
// per sub-clause. PrecRef(familyName, p) placeholders are rewritten
// independently of this schema, straight to whichever level declared
// precedence p.
func rewriteNode(c *clause.Clause, familyName string, level, iPrime, totalOcc int, assoc Associativity, occIdx *int, levelOf map[int]int) *clause.Clause {
	if c.Kind == clause.RuleRef {
		if c.RefName == familyName {
			idx := *occIdx
			*occIdx++

			if totalOcc == 1 {
				first, _ := clause.NewFirst(
					clause.LabeledClause{Clause: clause.NewRuleRef(levelName(familyName, level))},
					clause.LabeledClause{Clause: clause.NewRuleRef(levelName(familyName, iPrime))},
				)
				return first
			}

			target := iPrime
			switch assoc {
			case LeftAssoc:
				if idx == 0 {
					target = level
				}
			case RightAssoc:
				if idx == totalOcc-1 {
					target = level
				}
			}
			return clause.NewRuleRef(levelName(familyName, target))
		}
		if prefix, prec, ok := parsePrecRef(c.RefName, familyName); ok {
			if target, ok := levelOf[prec]; ok {
				return clause.NewRuleRef(levelName(prefix, target))
			}
		}
		return c
	}

	switch c.Kind {
	case clause.Seq, clause.First:
		subs := make([]clause.LabeledClause, len(c.Subs))
		for i, sub := range c.Subs {
			subs[i] = clause.LabeledClause{Label: sub.Label, Clause: rewriteNode(sub.Clause, familyName, level, iPrime, totalOcc, assoc, occIdx, levelOf)}
		}
		if c.Kind == clause.Seq {
			rewritten, _ := clause.NewSeq(subs...)
			return rewritten
		}
		rewritten, _ := clause.NewFirst(subs...)
		return rewritten

	case clause.OneOrMore, clause.FollowedBy, clause.NotFollowedBy:
		sub := clause.LabeledClause{Label: c.Subs[0].Label, Clause: rewriteNode(c.Subs[0].Clause, familyName, level, iPrime, totalOcc, assoc, occIdx, levelOf)}
		switch c.Kind {
		case clause.OneOrMore:
			return clause.NewOneOrMore(sub)
		case clause.FollowedBy:
			return clause.NewFollowedBy(sub)
		default:
			return clause.NewNotFollowedBy(sub)
		}

	default:
		return c
	}
}

func parsePrecRef(refName, familyName string) (name string, precedence int, ok bool) {
	prefix := familyName + "@"
	if len(refName) <= len(prefix) || refName[:len(prefix)] != prefix {
		return "", 0, false
	}
	var p int
	if _, err := fmt.Sscanf(refName[len(prefix):], "%d", &p); err != nil {
		return "", 0, false
	}
	return familyName, p, true
}
