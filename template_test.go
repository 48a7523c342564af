package gotmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

func TestParseString_DialectD(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	ctx.Set("name", value.NewString("Ada"))
	opts := tmplopts.Default()

	tmpl, err := ParseString(DialectD, "Hello {{ name }}!", "greeting.html")
	require.NoError(t, err)
	assert.Equal(t, DialectD, tmpl.Dialect())

	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", out)
}

func TestParseString_DialectS(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	opts := tmplopts.Default()

	tmpl, err := ParseString(DialectS, `<!--#set var="x" value="1" --><!--#echo var="x" -->`, "page.shtml")
	require.NoError(t, err)
	assert.Equal(t, DialectS, tmpl.Dialect())

	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

func TestParseString_DialectT(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewMapping([]value.Pair{{Key: "name", Value: value.NewString("x")}}),
	}))
	opts := tmplopts.Default()

	tmpl, err := ParseString(DialectT, `<TMPL_LOOP items><TMPL_VAR name>,</TMPL_LOOP>`, "list.tmpl")
	require.NoError(t, err)
	assert.Equal(t, DialectT, tmpl.Dialect())

	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "x,", out)
}
