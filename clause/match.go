package clause

// Match records one successful match of a clause at a position: how
// long the matched span is, which alternative of a First matched (for
// ordering purposes), and the sub-matches that produced it (for AST
// construction).
type Match struct {
	Clause *Clause
	Pos    int
	Length int

	// AltIndex is the index into Clause.Subs of the alternative that
	// matched, when Clause.Kind == First. Zero otherwise.
	AltIndex int

	// Subs holds the sub-matches that produced this match: for Seq, one
	// per Clause.Subs entry in the same order; for First, a single
	// element, the sub-match for the alternative that matched; for
	// OneOrMore, the child's match followed, when the repetition
	// continues, by the tail match of the same OneOrMore. Terminals,
	// lookaheads and synthesized zero-length matches have none.
	Subs []*Match
}

// End returns the position immediately after the matched span.
func (m *Match) End() int {
	return m.Pos + m.Length
}

// MatchTable is the lookup surface a Clause needs from the memo table
// to match combinators: the best match recorded so far for a given
// clause at a given position, or nil if none. Defining it here (rather
// than importing package memo) keeps the dependency edge one-way:
// memo.Table depends on clause.Clause, not the reverse.
type MatchTable interface {
	LookupBestMatch(c *Clause, pos int) *Match
}

// Match evaluates c's matching contract at pos against input, using
// table to resolve any sub-clause's match. It returns nil if c does
// not match at pos.
//
// Match never recurses into table for a position it has not already
// computed: every sub-clause lookup is either at pos itself (bottom-up,
// already filled by the time c is dequeued) or at a position to the
// right of pos (right-to-left sweep order guarantees those are filled
// too). NotFollowedBy is the one kind evaluated top-down by the memo
// table directly rather than being seeded into the sweep; its Match
// contract here is the same regardless of caller.
func (c *Clause) Match(table MatchTable, pos int, input []rune) *Match {
	switch c.Kind {
	case CharTerminal:
		if pos < 0 || pos >= len(input) {
			return nil
		}
		ch := input[pos]
		for _, cs := range c.CharSets {
			if cs.Contains(ch) {
				return &Match{Clause: c, Pos: pos, Length: 1}
			}
		}
		return nil

	case CharSeqTerminal:
		lit := c.literalRunes
		if pos < 0 || pos+len(lit) > len(input) {
			return nil
		}
		for i, r := range lit {
			ic := input[pos+i]
			if c.CaseInsensitive {
				if toLower(ic) != toLower(r) {
					return nil
				}
			} else if ic != r {
				return nil
			}
		}
		return &Match{Clause: c, Pos: pos, Length: len(lit)}

	case StartTerminal:
		if pos == 0 {
			return &Match{Clause: c, Pos: pos, Length: 0}
		}
		return nil

	case NothingTerminal:
		return &Match{Clause: c, Pos: pos, Length: 0}

	case Seq:
		subs := make([]*Match, len(c.Subs))
		cur := pos
		for i, lc := range c.Subs {
			m := table.LookupBestMatch(lc.Clause, cur)
			if m == nil {
				return nil
			}
			subs[i] = m
			cur += m.Length
		}
		return &Match{Clause: c, Pos: pos, Length: cur - pos, Subs: subs}

	case First:
		for i, lc := range c.Subs {
			m := table.LookupBestMatch(lc.Clause, pos)
			if m != nil {
				return &Match{Clause: c, Pos: pos, Length: m.Length, AltIndex: i, Subs: []*Match{m}}
			}
		}
		return nil

	case OneOrMore:
		child := c.Subs[0].Clause
		head := table.LookupBestMatch(child, pos)
		if head == nil {
			return nil
		}
		tail := table.LookupBestMatch(c, pos+head.Length)
		if tail != nil {
			return &Match{Clause: c, Pos: pos, Length: head.Length + tail.Length, Subs: []*Match{head, tail}}
		}
		return &Match{Clause: c, Pos: pos, Length: head.Length, Subs: []*Match{head}}

	case FollowedBy:
		m := table.LookupBestMatch(c.Subs[0].Clause, pos)
		if m == nil {
			return nil
		}
		return &Match{Clause: c, Pos: pos, Length: 0}

	case NotFollowedBy:
		m := table.LookupBestMatch(c.Subs[0].Clause, pos)
		if m != nil {
			return nil
		}
		return &Match{Clause: c, Pos: pos, Length: 0}

	default:
		return nil
	}
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// IsBetterMatch reports whether newMatch should replace old as the
// best match recorded for their (shared) clause and position. For a
// First clause, a strictly earlier-indexed alternative always wins
// regardless of length; otherwise (including a First match of the same
// alternative as old, e.g. a left-recursive alternative that has grown)
// a strictly longer span wins. old may be nil, in which case any newMatch wins.
func IsBetterMatch(newMatch, old *Match) bool {
	if old == nil {
		return newMatch != nil
	}
	if newMatch == nil {
		return false
	}
	if newMatch.Clause.Kind == First && newMatch.AltIndex != old.AltIndex {
		return newMatch.AltIndex < old.AltIndex
	}
	return newMatch.Length > old.Length
}
