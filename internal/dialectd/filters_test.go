package dialectd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

func TestFilterSlice_LoHi(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewString("a"), value.NewString("b"), value.NewString("c"), value.NewString("d"),
	}))

	out := renderD(t, `{% for x in items|slice:"1:3" %}{{ x }}{% endfor %}`, ctx, opts)
	assert.Equal(t, "bc", out)
}

func TestFilterSlice_StepOnly(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewString("a"), value.NewString("b"), value.NewString("c"),
		value.NewString("d"), value.NewString("e"),
	}))

	out := renderD(t, `{% for x in items|slice:"::2" %}{{ x }}{% endfor %}`, ctx, opts)
	assert.Equal(t, "ace", out)
}

func TestFilterSlice_LoHiStep(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewString("a"), value.NewString("b"), value.NewString("c"),
		value.NewString("d"), value.NewString("e"), value.NewString("f"),
	}))

	out := renderD(t, `{% for x in items|slice:"1:6:2" %}{{ x }}{% endfor %}`, ctx, opts)
	assert.Equal(t, "bdf", out)
}

func TestFilterSlice_NonPositiveStepErrors(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{value.NewString("a"), value.NewString("b")}))

	tmpl, err := ParseString(`{% for x in items|slice:"::0" %}{{ x }}{% endfor %}`, "test.html")
	assert := assert.New(t)
	assert.NoError(err)
	_, rerr := tmpl.RenderToString(ctx, opts)
	assert.Error(rerr, "a zero step must be rejected, not silently treated as the whole sequence")
}

// filterFixAmpersands is exercised directly (not through a full render)
// since its documented contract is about which "&" occurrences it rewrites,
// independent of any autoescaping the surrounding render pipeline applies
// afterward to its (unsafe) output.
func TestFilterFixAmpersands_EscapesBareAmpersandOnly(t *testing.T) {
	out, err := filterFixAmpersands(value.NewString("Tom & Jerry"), value.None, false, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, "Tom &amp; Jerry", s)
}

func TestFilterFixAmpersands_LeavesExistingEntitiesAlone(t *testing.T) {
	out, err := filterFixAmpersands(value.NewString("a &lt; b &amp; c &#39;d&#39; & e"), value.None, false, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, "a &lt; b &amp; c &#39;d&#39; &amp; e", s)
}

func TestFilterYesno_TwoFormsReuseNoFormForNone(t *testing.T) {
	out, err := filterYesno(value.None, value.NewString("yep,nope"), true, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, "nope", s, "with only two forms supplied, None must reuse the \"no\" form like Django does")
}

func TestFilterYesno_ThreeFormsKeepDistinctMaybe(t *testing.T) {
	out, err := filterYesno(value.None, value.NewString("yep,nope,dunno"), true, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, "dunno", s)
}

func TestFilterYesno_NoArgUsesDefaults(t *testing.T) {
	out, err := filterYesno(value.NewBool(true), value.None, false, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, "yes", s)
}

func TestFilterUrlize_DoesNotSwallowAdjacentMarkup(t *testing.T) {
	out, err := filterUrlize(value.NewString("see http://x.com/ <b>bold</b>"), value.None, false, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, `see <a href="http://x.com/" rel="nofollow">http://x.com/</a> &lt;b&gt;bold&lt;/b&gt;`, s)
}

func TestFilterLinebreaksbr_PreservesAlreadySafeMarkup(t *testing.T) {
	out, err := filterLinebreaksbr(value.NewString("<b>hi</b>\nbye").MarkSafe(), value.None, false, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, "<b>hi</b><br>\nbye", s)
}

func TestFilterLinebreaksbr_EscapesUnsafeInput(t *testing.T) {
	out, err := filterLinebreaksbr(value.NewString("<b>hi</b>\nbye"), value.None, false, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;<br>\nbye", s)
}

func TestFilterUrlize_EscapesTextAroundEmailMatch(t *testing.T) {
	out, err := filterUrlize(value.NewString(`<i>contact</i> a@b.com`), value.None, false, nil)
	require.NoError(t, err)
	s, _ := out.ToString()
	assert.Equal(t, `&lt;i&gt;contact&lt;/i&gt; <a href="mailto:a@b.com">a@b.com</a>`, s)
}
