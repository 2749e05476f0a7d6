// Package pika is a general-purpose PEG parser generator built on the
// pika parsing algorithm: bottom-up, right-to-left dynamic-programming
// packrat parsing that handles direct left recursion without a
// separate grammar transformation pass. Grammars are built in memory
// from clause values (see package clause), not from a textual syntax;
// Grammar.Parse fills a memo table for one input, and the functions in
// package query read matches back out of it.
package pika

import (
	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/driver"
	"github.com/go-pika/pika/grammar"
	"github.com/go-pika/pika/memo"
	"github.com/go-pika/pika/query"
	"github.com/go-pika/pika/source"
)

// Grammar is a built, immutable clause DAG ready to parse any number
// of inputs. It is safe for concurrent use: Parse allocates a fresh
// memo table per call and never mutates the grammar itself.
type Grammar struct {
	g *grammar.Grammar
}

// Rule is one named production; see grammar.Rule for the full field
// set used to build precedence-climbing families.
type Rule = grammar.Rule

// Result is a filled memo table for one input, ready to be queried.
type Result struct {
	table *memo.Table
	g     *grammar.Grammar
}

// New builds a Grammar from rules, running the construction pipeline
// described in package grammar. It returns an error if the rules are
// empty, malformed, or reference an undefined or cyclic rule.
func New(rules []Rule) (*Grammar, error) {
	g, err := grammar.New(rules)
	if err != nil {
		return nil, err
	}
	return &Grammar{g: g}, nil
}

// RuleByName returns the top clause for name, for callers that want to
// build further rules referencing an already-built grammar's
// structure (rare; most callers only need Parse and the query
// functions).
func (gr *Grammar) RuleByName(name string) (*clause.Clause, error) {
	return gr.g.RuleByName(name)
}

// Stats returns diagnostic counters about the built grammar.
func (gr *Grammar) Stats() grammar.Stats {
	return gr.g.Stats()
}

// String renders every rule in the grammar in canonical form.
func (gr *Grammar) String() string {
	return gr.g.String()
}

// Parse runs the sweep over input and returns a Result ready to query.
// opts may be nil.
func (gr *Grammar) Parse(input string, opts *driver.Options) *Result {
	table := driver.Run(gr.g, input, opts)
	return &Result{table: table, g: gr.g}
}

// BestMatch returns the best match recorded for ruleName starting at
// pos, or nil if there is none.
func (r *Result) BestMatch(ruleName string, pos int) (*clause.Match, error) {
	return query.BestMatch(r.table, r.g, ruleName, pos)
}

// AllMatches returns every match recorded for ruleName, across every
// starting position.
func (r *Result) AllMatches(ruleName string) ([]*clause.Match, error) {
	return query.AllMatches(r.table, r.g, ruleName)
}

// NonoverlappingMatches greedily selects a left-to-right,
// non-overlapping cover of matches for ruleName.
func (r *Result) NonoverlappingMatches(ruleName string) ([]*clause.Match, error) {
	return query.NonoverlappingMatches(r.table, r.g, ruleName)
}

// SyntaxErrors returns the spans of input that ruleNames' combined
// non-overlapping matches leave uncovered.
func (r *Result) SyntaxErrors(ruleNames ...string) ([]query.Span, error) {
	return query.SyntaxErrors(r.table, r.g, ruleNames...)
}

// SyntaxErrorMessages is SyntaxErrors with each span formatted as a
// "sourceName:line:col: message" string, for callers that just want
// something to print.
func (r *Result) SyntaxErrorMessages(sourceName, message string, ruleNames ...string) ([]string, error) {
	spans, err := r.SyntaxErrors(ruleNames...)
	if err != nil {
		return nil, err
	}
	input := r.table.Input()
	src := source.New(sourceName, []byte(string(input)))
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = query.FormatSpan(src, input, sp, message)
	}
	return out, nil
}
