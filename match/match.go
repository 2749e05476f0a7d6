// Package match adds diagnostic rendering on top of clause.Match; the
// value type itself lives in package clause so that clause.Clause.Match
// can construct one without importing anything above it.
package match

import (
	"fmt"

	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/grammar"
)

// Match is an alias for the value every clause match is reported as.
type Match = clause.Match

// Summary renders a short, human-readable description of a match:
// which rule (if any) its clause belongs to, the position it starts
// at, and how many characters it consumes. A clause shared by several
// rules (after interning) reports the first rule name recorded for it.
func Summary(m *Match, g *grammar.Grammar, input string) string {
	if m == nil {
		return "<no match>"
	}
	name := ruleName(m.Clause)
	return fmt.Sprintf("%s @%d+%d", name, m.Pos, m.Length)
}

func ruleName(c *clause.Clause) string {
	if len(c.Rules) > 0 {
		return c.Rules[0]
	}
	return c.String()
}
