// Package query provides the read-only surface applications use
// against a filled memo table: the single best match for a rule,
// every match recorded for it, a greedy non-overlapping cover, and the
// spans of input that no rule match covers at all.
package query

import (
	"fmt"
	"sort"

	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/grammar"
	"github.com/go-pika/pika/memo"
	"github.com/go-pika/pika/source"
)

// BestMatch returns the best match recorded for ruleName starting at
// pos, or nil if there is none. It errors only if ruleName does not
// name a rule in g.
func BestMatch(table *memo.Table, g *grammar.Grammar, ruleName string, pos int) (*clause.Match, error) {
	c, err := g.RuleByName(ruleName)
	if err != nil {
		return nil, err
	}
	return table.LookupBestMatch(c, pos), nil
}

// AllMatches returns every match recorded for ruleName, across every
// starting position, ordered by position.
func AllMatches(table *memo.Table, g *grammar.Grammar, ruleName string) ([]*clause.Match, error) {
	c, err := g.RuleByName(ruleName)
	if err != nil {
		return nil, err
	}
	return table.MatchesOf(c), nil
}

// NonoverlappingMatches greedily selects matches for ruleName left to
// right, taking the earliest-starting match at each point and skipping
// ahead past its end, so the result never contains two matches whose
// spans overlap.
func NonoverlappingMatches(table *memo.Table, g *grammar.Grammar, ruleName string) ([]*clause.Match, error) {
	all, err := AllMatches(table, g, ruleName)
	if err != nil {
		return nil, err
	}
	return nonoverlapping(all), nil
}

func nonoverlapping(matches []*clause.Match) []*clause.Match {
	sort.Slice(matches, func(i, j int) bool { return matches[i].Pos < matches[j].Pos })

	var out []*clause.Match
	cursor := -1
	for _, m := range matches {
		if m.Pos >= cursor {
			out = append(out, m)
			cursor = m.End()
		}
	}
	return out
}

// Span is a half-open [Start, End) range of input runes not covered by
// any match returned by NonoverlappingMatches, i.e. a gap a syntax-
// error reporter should point at.
type Span struct {
	Start, End int
}

// SyntaxErrors computes the complement, over [0, input length), of the
// union of every named rule's non-overlapping matches: the spans of
// input that no named rule matches at all. An input that parses
// ruleNames completely between them yields no spans. Passing several
// rule names lets a top-level rule (e.g. a program) and a mid-level one
// (e.g. a statement) jointly cover input a strict top-down parse of the
// former alone would leave unexplained.
func SyntaxErrors(table *memo.Table, g *grammar.Grammar, ruleNames ...string) ([]Span, error) {
	var all []*clause.Match
	for _, ruleName := range ruleNames {
		c, err := g.RuleByName(ruleName)
		if err != nil {
			return nil, err
		}
		all = append(all, table.MatchesOf(c)...)
	}

	covered := nonoverlapping(all)
	n := len(table.Input())

	var spans []Span
	cursor := 0
	for _, m := range covered {
		if m.Pos > cursor {
			spans = append(spans, Span{cursor, m.Pos})
		}
		if m.End() > cursor {
			cursor = m.End()
		}
	}
	if cursor < n {
		spans = append(spans, Span{cursor, n})
	}
	return spans, nil
}

// FormatSpan renders sp as a "name:line:col: message" string, resolving
// its rune-offset start against src (built over the same input the
// table was parsed from). This is the only place table positions, which
// are rune offsets, get translated into the byte offsets source.Source
// expects.
func FormatSpan(src *source.Source, input []rune, sp Span, message string) string {
	line, col := src.LineCol(len(string(input[:sp.Start])))
	return fmt.Sprintf("%s:%d:%d: %s", src.Name(), line, col, message)
}
