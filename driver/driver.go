// Package driver runs the right-to-left, priority-queue-driven sweep
// that fills a memo table for one grammar and one input.
package driver

import (
	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/grammar"
	"github.com/go-pika/pika/internal/intset"
	"github.com/go-pika/pika/internal/pqueue"
	"github.com/go-pika/pika/memo"
	"github.com/go-pika/pika/plog"
)

// Options configures one Run call. The zero value runs silently. This
// replaces a global debug-trace flag with a per-parse struct so that
// concurrent parses of the same grammar (see pika.Grammar in the root
// package) never share mutable state.
type Options struct {
	// Logger, when non-nil, receives one Sweep event per input
	// position and one Step event per dequeue-and-match attempt.
	Logger *plog.Logger

	// MinPos floors the sweep: positions below it are never visited.
	// Matches that start at or after MinPos are computed exactly as in
	// a full parse; right-recursive and Seq right-child lookups only
	// ever read positions at or to the right of the clause being
	// matched, so flooring the sweep cannot starve any match this
	// policy is supposed to produce. Zero (the default) sweeps all the
	// way to the start of input. Intended for re-running a query
	// against a known-unchanged suffix of a previous parse without
	// re-matching the whole input.
	MinPos int
}

type seed struct {
	c   *clause.Clause
	pos int
}

func isTerminal(k clause.Kind) bool {
	switch k {
	case clause.CharTerminal, clause.CharSeqTerminal, clause.StartTerminal, clause.NothingTerminal:
		return true
	default:
		return false
	}
}

// Run fills and returns a memo.Table for g against input. It sweeps
// positions from the end of input down to opts.MinPos (the start of
// input, when opts is nil or MinPos is zero); at each position
// it seeds the queue with every terminal clause and then drains the
// queue, matching each dequeued (clause, position) pair and, whenever
// that improves on what's already stored, re-enqueueing the clause's
// seed parents at the same position. The queue's priority is a
// clause's topological ID, so a clause is only ever matched after
// every sub-clause it can depend on at that position already holds
// its best available value.
func Run(g *grammar.Grammar, input string, opts *Options) *memo.Table {
	runes := []rune(input)
	table := memo.New(runes)

	var logger *plog.Logger
	minPos := 0
	if opts != nil {
		logger = opts.Logger
		if opts.MinPos > 0 {
			minPos = opts.MinPos
		}
	}

	var terminals []*clause.Clause
	for _, c := range g.Clauses() {
		if isTerminal(c.Kind) {
			terminals = append(terminals, c)
		}
	}

	pq := pqueue.New(func(s seed) int { return s.c.ID })

	for pos := len(runes); pos >= minPos; pos-- {
		if logger != nil {
			logger.Sweep(pos)
		}

		// queued tracks which clause IDs are already sitting in pq at
		// this position, so a clause with many seed-parent edges firing
		// at once is only matched once per position instead of once per
		// incoming edge.
		queued := intset.New()
		push := func(c *clause.Clause) {
			if queued.Contains(c.ID) {
				return
			}
			queued.Add(c.ID)
			pq.Push(seed{c, pos})
		}

		for _, c := range terminals {
			push(c)
		}

		for !pq.IsEmpty() {
			s, _ := pq.Pop()
			queued.Remove(s.c.ID)
			m := s.c.Match(table, s.pos, runes)

			improved := false
			if m != nil {
				improved = table.AddMatch(s.c, s.pos, m)
			}
			if logger != nil {
				logger.Step(s.c.ID, s.pos, m != nil, improved)
			}
			// A seed-parent is pushed if this dequeue improved its
			// child's match, or unconditionally if the parent itself can
			// match zero characters: such a parent (e.g. a First ending
			// in Nothing whose other alternative just failed) must still
			// get a chance to be (re-)evaluated here, since it can match
			// even when this child did not.
			for _, parent := range s.c.SeedParents {
				if improved || parent.CanMatchZero {
					push(parent)
				}
			}
		}
	}

	return table
}
