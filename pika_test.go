package pika

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pika/pika/clause"
	"github.com/go-pika/pika/grammar"
	"github.com/go-pika/pika/query"
)

func mustSeq(t *testing.T, subs ...clause.LabeledClause) *clause.Clause {
	c, err := clause.NewSeq(subs...)
	require.NoError(t, err)
	return c
}

func digit() *clause.Clause {
	return clause.NewChar(clause.CharSet{Ranges: []clause.CharRange{{Lo: '0', Hi: '9'}}})
}

func digits() *clause.Clause {
	return clause.NewOneOrMore(clause.LabeledClause{Clause: digit()})
}

// arithmeticGrammar builds the classic three-level precedence family,
// all under one name "Expr": level 0 (+ -) binds loosest, level 1 (* /)
// next, level 2 (parens or a bare number) tightest. Both operator
// levels declare LeftAssoc, so the left operand of each self-reference
// pair is rewritten to stay at that level (letting the chain grow) and
// the right operand is rewritten to the next-tighter level
// automatically. The parenthesized case resets all the way back to
// level 0, which no automatic schema produces, so it uses an explicit
// grammar.PrecRef.
func arithmeticGrammar(t *testing.T) *Grammar {
	plusMinus, err := clause.NewFirst(
		clause.LabeledClause{Clause: clause.NewCharSeq("+", false)},
		clause.LabeledClause{Clause: clause.NewCharSeq("-", false)},
	)
	require.NoError(t, err)
	timesDiv, err := clause.NewFirst(
		clause.LabeledClause{Clause: clause.NewCharSeq("*", false)},
		clause.LabeledClause{Clause: clause.NewCharSeq("/", false)},
	)
	require.NoError(t, err)

	level0 := mustSeq(t,
		clause.LabeledClause{Label: "left", Clause: clause.NewRuleRef("Expr")},
		clause.LabeledClause{Clause: plusMinus},
		clause.LabeledClause{Label: "right", Clause: clause.NewRuleRef("Expr")},
	)
	level1 := mustSeq(t,
		clause.LabeledClause{Label: "left", Clause: clause.NewRuleRef("Expr")},
		clause.LabeledClause{Clause: timesDiv},
		clause.LabeledClause{Label: "right", Clause: clause.NewRuleRef("Expr")},
	)
	paren := mustSeq(t,
		clause.LabeledClause{Clause: clause.NewCharSeq("(", false)},
		clause.LabeledClause{Label: "inner", Clause: grammar.PrecRef("Expr", 0)},
		clause.LabeledClause{Clause: clause.NewCharSeq(")", false)},
	)
	level2, err := clause.NewFirst(
		clause.LabeledClause{Clause: paren},
		clause.LabeledClause{Clause: digits()},
	)
	require.NoError(t, err)

	g, err := New([]Rule{
		{Name: "Expr", Precedence: 0, Associativity: grammar.LeftAssoc, Top: level0},
		{Name: "Expr", Precedence: 1, Associativity: grammar.LeftAssoc, Top: level1},
		{Name: "Expr", Precedence: 2, Top: level2},
	})
	require.NoError(t, err)
	return g
}

func TestArithmeticPrecedence(t *testing.T) {
	g := arithmeticGrammar(t)
	result := g.Parse("1+2*3", nil)

	m, err := result.BestMatch("Expr", 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 5, m.Length)
}

func TestParenthesizedExprResetsPrecedence(t *testing.T) {
	g := arithmeticGrammar(t)
	result := g.Parse("(1+2)*3", nil)

	m, err := result.BestMatch("Expr", 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 7, m.Length)
}

func TestRightAssociativePower(t *testing.T) {
	// Pow[0] <- Pow '^' Pow / digits, RightAssoc: the rightmost
	// self-reference stays at level 0 (so the chain grows rightward),
	// the leftmost defers to the tighter digits level.
	pow := mustSeq(t,
		clause.LabeledClause{Label: "base", Clause: clause.NewRuleRef("Pow")},
		clause.LabeledClause{Clause: clause.NewCharSeq("^", false)},
		clause.LabeledClause{Label: "exp", Clause: clause.NewRuleRef("Pow")},
	)
	g, err := New([]Rule{
		{Name: "Pow", Precedence: 0, Associativity: grammar.RightAssoc, Top: pow},
		{Name: "Pow", Precedence: 1, Top: digits()},
	})
	require.NoError(t, err)

	result := g.Parse("2^3^4", nil)
	m, err := result.BestMatch("Pow", 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 5, m.Length)
}

func TestNegativeLookaheadDistinguishesIdentFromKeyword(t *testing.T) {
	letters, err := clause.NewFirst(
		clause.LabeledClause{Clause: clause.NewChar(clause.CharSet{Ranges: []clause.CharRange{{Lo: 'a', Hi: 'z'}}})},
		clause.LabeledClause{Clause: clause.NewChar(clause.CharSet{Ranges: []clause.CharRange{{Lo: 'A', Hi: 'Z'}}})},
	)
	require.NoError(t, err)
	word := clause.NewOneOrMore(clause.LabeledClause{Clause: letters})

	keyword := clause.NewCharSeq("if", false)
	// A bare !Keyword would reject "iffy" too: Keyword matches the
	// leading "if" of any word starting that way regardless of what
	// follows. Ident <- !(Keyword !letter) word excludes only the
	// keyword itself, by requiring the match not continue into another
	// letter.
	keywordBoundary := mustSeq(t,
		clause.LabeledClause{Clause: keyword},
		clause.LabeledClause{Clause: clause.NewNotFollowedBy(clause.LabeledClause{Clause: letters})},
	)
	ident := mustSeq(t,
		clause.LabeledClause{Clause: clause.NewNotFollowedBy(clause.LabeledClause{Clause: keywordBoundary})},
		clause.LabeledClause{Clause: word},
	)

	g, err := New([]Rule{
		{Name: "Ident", Top: ident},
		{Name: "Keyword", Top: keyword},
	})
	require.NoError(t, err)

	result := g.Parse("iffy", nil)
	m, err := result.BestMatch("Ident", 0)
	require.NoError(t, err)
	require.NotNil(t, m, "iffy is not the bare keyword, so Ident should match")
	assert.Equal(t, 4, m.Length)

	result2 := g.Parse("if", nil)
	m2, err := result2.BestMatch("Ident", 0)
	require.NoError(t, err)
	assert.Nil(t, m2, "bare 'if' is the keyword, so Ident must not match")
}

func TestZeroLengthOptionalMatches(t *testing.T) {
	// Greeting <- 'hi' ' '?
	opt := clause.Optional(clause.NewCharSeq(" ", false))
	greeting := mustSeq(t,
		clause.LabeledClause{Clause: clause.NewCharSeq("hi", false)},
		clause.LabeledClause{Clause: opt},
	)

	g, err := New([]Rule{{Name: "Greeting", Top: greeting}})
	require.NoError(t, err)

	result := g.Parse("hi", nil)
	m, err := result.BestMatch("Greeting", 0)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Length, "the optional space contributes nothing when absent")
}

func TestSyntaxErrorSpanOverArithmetic(t *testing.T) {
	g := arithmeticGrammar(t)
	result := g.Parse("1+2 2*3", nil)

	spans, err := result.SyntaxErrors("Expr")
	require.NoError(t, err)
	assert.NotEmpty(t, spans, "the stray space splits the input into two separate expressions")
}

func TestSyntaxErrorMessagesFormatPosition(t *testing.T) {
	g := arithmeticGrammar(t)
	result := g.Parse("1+2\n2*3", nil)

	msgs, err := result.SyntaxErrorMessages("input.txt", "not a valid expression", "Expr")
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0], "input.txt:1:4:")
}

// programGrammar builds "Program <- Statement+",
// "Statement <- var:[a-z]+ '=' E ';'", with a five-level precedence
// family for E: '+ -' loosest, then '* /', then a unary '-' prefix,
// then '^', then the tightest level, a parenthesized E, a bare
// variable reference, or a number.
func programGrammar(t *testing.T) *Grammar {
	lower := clause.NewChar(clause.CharSet{Ranges: []clause.CharRange{{Lo: 'a', Hi: 'z'}}})
	ident := clause.NewOneOrMore(clause.LabeledClause{Clause: lower})

	plusMinus, err := clause.NewFirst(
		clause.LabeledClause{Clause: clause.NewCharSeq("+", false)},
		clause.LabeledClause{Clause: clause.NewCharSeq("-", false)},
	)
	require.NoError(t, err)
	timesDiv, err := clause.NewFirst(
		clause.LabeledClause{Clause: clause.NewCharSeq("*", false)},
		clause.LabeledClause{Clause: clause.NewCharSeq("/", false)},
	)
	require.NoError(t, err)

	level0 := mustSeq(t, // E[0] <- E '+-' E, LeftAssoc
		clause.LabeledClause{Clause: clause.NewRuleRef("E")},
		clause.LabeledClause{Clause: plusMinus},
		clause.LabeledClause{Clause: clause.NewRuleRef("E")},
	)
	level1 := mustSeq(t, // E[1] <- E '*/' E, LeftAssoc
		clause.LabeledClause{Clause: clause.NewRuleRef("E")},
		clause.LabeledClause{Clause: timesDiv},
		clause.LabeledClause{Clause: clause.NewRuleRef("E")},
	)
	level2 := mustSeq(t, // E[2] <- '-' E@3, a unary minus prefix
		clause.LabeledClause{Clause: clause.NewCharSeq("-", false)},
		clause.LabeledClause{Clause: grammar.PrecRef("E", 3)},
	)
	level3 := mustSeq(t, // E[3] <- E '^' E, RightAssoc
		clause.LabeledClause{Clause: clause.NewRuleRef("E")},
		clause.LabeledClause{Clause: clause.NewCharSeq("^", false)},
		clause.LabeledClause{Clause: clause.NewRuleRef("E")},
	)
	paren := mustSeq(t, // '(' E@0 ')', resetting all the way back to level 0
		clause.LabeledClause{Clause: clause.NewCharSeq("(", false)},
		clause.LabeledClause{Clause: grammar.PrecRef("E", 0)},
		clause.LabeledClause{Clause: clause.NewCharSeq(")", false)},
	)
	level4, err := clause.NewFirst( // E[4] <- paren / ident / digits, tightest
		clause.LabeledClause{Clause: paren},
		clause.LabeledClause{Clause: ident},
		clause.LabeledClause{Clause: digits()},
	)
	require.NoError(t, err)

	statement := mustSeq(t,
		clause.LabeledClause{Label: "var", Clause: ident},
		clause.LabeledClause{Clause: clause.NewCharSeq("=", false)},
		clause.LabeledClause{Clause: clause.NewRuleRef("E")},
		clause.LabeledClause{Clause: clause.NewCharSeq(";", false)},
	)
	program := clause.NewOneOrMore(clause.LabeledClause{Clause: clause.NewRuleRef("Statement")})

	g, err := New([]Rule{
		{Name: "E", Precedence: 0, Associativity: grammar.LeftAssoc, Top: level0},
		{Name: "E", Precedence: 1, Associativity: grammar.LeftAssoc, Top: level1},
		{Name: "E", Precedence: 2, Top: level2},
		{Name: "E", Precedence: 3, Associativity: grammar.RightAssoc, Top: level3},
		{Name: "E", Precedence: 4, Top: level4},
		{Name: "Statement", Top: statement},
		{Name: "Program", Top: program},
	})
	require.NoError(t, err)
	return g
}

func TestProgramMatchesWholeStatementChain(t *testing.T) {
	g := programGrammar(t)
	result := g.Parse("discriminant=b*b-4*a*c;", nil)

	matches, err := result.NonoverlappingMatches("Program")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Pos)
	assert.Equal(t, 23, matches[0].Length)

	// The single repetition's own sub-match is the whole Statement,
	// reached through an edge with no AST label of its own.
	head := matches[0].Subs[0]
	assert.Equal(t, 23, head.Length)
	assert.Empty(t, matches[0].Clause.Subs[0].Label)
	assert.Contains(t, head.Clause.String(), "var:[a-z]+")

	spans, err := result.SyntaxErrors("Program", "Statement")
	require.NoError(t, err)
	assert.Empty(t, spans, "a clean statement chain leaves nothing uncovered")
}

func TestSyntaxErrorsUnionsCoverageAcrossRuleNames(t *testing.T) {
	g := programGrammar(t)
	result := g.Parse("a=1;???b=2;", nil)

	spans, err := result.SyntaxErrors("Program", "Statement")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, query.Span{Start: 4, End: 7}, spans[0], "only the '???' gap between the two statements is uncovered")
}

func TestGrammarStatsAndString(t *testing.T) {
	g := arithmeticGrammar(t)
	stats := g.Stats()
	assert.Greater(t, stats.ClauseCount, 0)
	assert.Greater(t, stats.RuleCount, 0)

	rendered := g.String()
	assert.Contains(t, rendered, "Expr <-")
}
