// Package memo implements the memoization table at the heart of the
// parsing algorithm: a map from (clause, position) to the best match
// recorded so far, plus the zero-length placeholder synthesis and
// top-down NotFollowedBy evaluation that let the driver's sweep stay a
// simple dequeue-and-match loop.
package memo

import (
	"github.com/go-pika/pika/clause"
)

// Key identifies one memo table slot.
type Key struct {
	Clause *clause.Clause
	Pos    int
}

// Stats counts table activity, for diagnostics.
type Stats struct {
	Lookups     int
	Hits        int
	Synthesized int
	Stored      int
}

// Table is the memoization table for a single parse of a single input.
// It implements clause.MatchTable.
type Table struct {
	input   []rune
	entries map[Key]*clause.Match
	stats   Stats
}

// New creates an empty Table over input.
func New(input []rune) *Table {
	return &Table{input: input, entries: make(map[Key]*clause.Match)}
}

// Input returns the rune slice this table was built over.
func (t *Table) Input() []rune {
	return t.input
}

// Stats returns a snapshot of the table's activity counters.
func (t *Table) Stats() Stats {
	return t.stats
}

// LookupBestMatch returns the best match recorded for c at pos, or nil
// if there is none. It implements clause.MatchTable.
//
// Two kinds are handled specially, both because their absence from the
// table is genuinely ambiguous between "not yet evaluated" and
// "evaluated and failed", which the blanket CanMatchZero synthesis
// below cannot tell apart:
//
//   - NotFollowedBy is never seeded into the driver's sweep (a
//     negative lookahead has nothing to seed: its own match never
//     improves by virtue of what matches inside it).
//
//   - FollowedBy's zero-length success is conditional on its child
//     actually matching, unlike every other CanMatchZero clause, whose
//     absence from the table really does mean "vacuously succeeds
//     here". A failed FollowedBy.Match is never written back by the
//     driver (AddMatch only stores non-nil matches), so treating its
//     absence as the usual synthesis trigger would report a positive
//     lookahead as satisfied whenever its child simply hasn't matched.
//
// Both are instead computed here, top-down, the first time they are
// asked for, and cached (including a cached nil, so repeated lookups
// of a failing lookahead don't re-walk its child every time).
func (t *Table) LookupBestMatch(c *clause.Clause, pos int) *clause.Match {
	t.stats.Lookups++

	key := Key{c, pos}
	if c.Kind == clause.NotFollowedBy || c.Kind == clause.FollowedBy {
		if m, ok := t.entries[key]; ok {
			t.stats.Hits++
			return m
		}
		m := c.Match(t, pos, t.input)
		t.entries[key] = m
		return m
	}

	if m, ok := t.entries[key]; ok {
		t.stats.Hits++
		return m
	}

	if c.CanMatchZero && pos <= len(t.input) {
		t.stats.Synthesized++
		return &clause.Match{Clause: c, Pos: pos, Length: 0}
	}

	return nil
}

// AddMatch records newMatch for c at pos if it improves on whatever is
// already stored there, per clause.IsBetterMatch, and reports whether
// it did. It does not itself re-enqueue c's seed parents; the driver
// does that using c.SeedParents once it sees improved == true, keeping
// this package free of any dependency on the sweep's queue.
func (t *Table) AddMatch(c *clause.Clause, pos int, newMatch *clause.Match) bool {
	key := Key{c, pos}
	old := t.entries[key]
	if !clause.IsBetterMatch(newMatch, old) {
		return false
	}
	t.entries[key] = newMatch
	t.stats.Stored++
	return true
}

// Get returns the raw stored entry for c at pos, bypassing zero-length
// synthesis and NotFollowedBy evaluation. Used by the query surface,
// which wants to know whether a real match was recorded.
func (t *Table) Get(c *clause.Clause, pos int) (*clause.Match, bool) {
	m, ok := t.entries[Key{c, pos}]
	return m, ok
}

// MatchesOf returns every stored, non-nil match recorded for c, across
// every position, ordered by starting position.
func (t *Table) MatchesOf(c *clause.Clause) []*clause.Match {
	var out []*clause.Match
	for pos := 0; pos <= len(t.input); pos++ {
		if m, ok := t.entries[Key{c, pos}]; ok && m != nil {
			out = append(out, m)
		}
	}
	return out
}
