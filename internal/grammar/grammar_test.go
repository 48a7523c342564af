package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinators_Basic(t *testing.T) {
	reg := NewRegistry()
	number := reg.New("number")
	word := reg.New("word")

	g := Star(Alt(
		Node(number, Rx(`[0-9]+`)),
		Node(word, Rx(`[a-zA-Z]+`)),
		Rx(`\s+`),
	))

	m, err := Parse(g, "12 cats 34 dogs", "t")
	require.NoError(t, err)

	nums := SelectNested(m, number)
	require.Len(t, nums, 2)
	assert.Equal(t, "12", nums[0].Text)
	assert.Equal(t, "34", nums[1].Text)

	words := SelectNested(m, word)
	require.Len(t, words, 2)
	assert.Equal(t, "cats", words[0].Text)
	assert.Equal(t, "dogs", words[1].Text)
}

func TestUnnest(t *testing.T) {
	reg := NewRegistry()
	inner := reg.New("inner")
	m := group(Position{}, "x", &Match{Rule: inner, Text: "x"})
	assert.Equal(t, inner, Unnest(m).Rule)

	m2 := group(Position{}, "xy", &Match{Text: "x"}, &Match{Text: "y"})
	assert.Same(t, m2, Unnest(m2))
}

func TestUntilSkipper(t *testing.T) {
	e := Until("{{", "{%")
	m, err := Parse(Seq(e, Lit("{{")), "plain text{{", "t")
	require.NoError(t, err)
	assert.Equal(t, "plain text{{", m.Text)
}

func TestParse_FailsOnTrailingInput(t *testing.T) {
	_, err := Parse(Lit("abc"), "abcdef", "t")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "t", perr.Pos.File)
}
