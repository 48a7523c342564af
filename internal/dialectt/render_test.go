package dialectt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

func render(t *testing.T, src string, ctx *tmplopts.Context, opts *tmplopts.Options) string {
	t.Helper()
	tmpl, err := ParseString(src, "test.tmpl")
	require.NoError(t, err)
	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	return out
}

func TestRenderToString_NilContextDoesNotPanic(t *testing.T) {
	opts := tmplopts.Default()
	tmpl, err := ParseString(`<TMPL_VAR NAME="missing" DEFAULT="world">`, "test.tmpl")
	require.NoError(t, err)
	out, err := tmpl.RenderToString(nil, opts)
	require.NoError(t, err)
	assert.Equal(t, "world", out)
}

func TestVar_ShortcutSyntax(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	ctx.Set("name", value.NewString("Ada"))
	opts := tmplopts.Default()

	out := render(t, "Hello <TMPL_VAR name>!", ctx, opts)
	assert.Equal(t, "Hello Ada!", out)
}

func TestVar_NameAttrAndDefault(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	opts := tmplopts.Default()

	out := render(t, `<TMPL_VAR NAME="missing" DEFAULT="?">`, ctx, opts)
	assert.Equal(t, "?", out)
}

func TestVar_EscapeHTML(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	ctx.Set("body", value.NewString("<b>hi</b>"))
	opts := tmplopts.Default()

	out := render(t, `<TMPL_VAR NAME=body ESCAPE=HTML>`, ctx, opts)
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", out)
}

func TestCommentAlternateSyntax(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	ctx.Set("name", value.NewString("Ada"))
	opts := tmplopts.Default()

	out := render(t, "Hello <!-- TMPL_VAR NAME=name -->!", ctx, opts)
	assert.Equal(t, "Hello Ada!", out)
}

func TestIfElseUnless(t *testing.T) {
	opts := tmplopts.Default()

	loggedIn := tmplopts.NewContext(false)
	loggedIn.Set("user", value.NewString("ada"))
	out := render(t, `<TMPL_IF user>Hi <TMPL_VAR user><TMPL_ELSE>Please log in</TMPL_IF>`, loggedIn, opts)
	assert.Equal(t, "Hi ada", out)

	anon := tmplopts.NewContext(false)
	out = render(t, `<TMPL_IF user>Hi <TMPL_VAR user><TMPL_ELSE>Please log in</TMPL_IF>`, anon, opts)
	assert.Equal(t, "Please log in", out)

	out = render(t, `<TMPL_UNLESS user>Please log in</TMPL_UNLESS>`, anon, opts)
	assert.Equal(t, "Please log in", out)
}

func TestLoop_RendersEachRow(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewMapping([]value.Pair{{Key: "name", Value: value.NewString("a")}}),
		value.NewMapping([]value.Pair{{Key: "name", Value: value.NewString("b")}}),
		value.NewMapping([]value.Pair{{Key: "name", Value: value.NewString("c")}}),
	}))
	opts := tmplopts.Default()

	out := render(t, `<TMPL_LOOP items><TMPL_VAR name DEFAULT="?">,</TMPL_LOOP>`, ctx, opts)
	assert.Equal(t, "a,b,c,", out)
}

func TestLoop_GlobalVarsVisible(t *testing.T) {
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewMapping([]value.Pair{{Key: "name", Value: value.NewString("a")}}),
	}))
	globals := tmplopts.NewContext(false)
	globals.Set("site", value.NewString("example"))
	opts := tmplopts.Default()
	opts.GlobalVars = globals

	out := render(t, `<TMPL_LOOP items><TMPL_VAR name>@<TMPL_VAR site></TMPL_LOOP>`, ctx, opts)
	assert.Equal(t, "a@example", out)
}

func TestParse_UnterminatedIf(t *testing.T) {
	_, err := ParseString(`<TMPL_IF x>no close`, "test.tmpl")
	require.Error(t, err)
}

func TestParse_UnknownTag(t *testing.T) {
	_, err := ParseString(`<TMPL_BOGUS>`, "test.tmpl")
	require.Error(t, err)
}
