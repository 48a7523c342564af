package dialects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

func renderS(t *testing.T, src string, ctx *tmplopts.Context, opts *tmplopts.Options) string {
	t.Helper()
	tmpl, err := ParseString(src, "test.shtml")
	require.NoError(t, err)
	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	return out
}

func TestSet_AndEcho(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)

	out := renderS(t, `<!--#set var="name" value="Ada" --><!--#echo var="name" -->`, ctx, opts)
	assert.Equal(t, "Ada", out)
}

func TestInterpolation_DollarBraceAndEscape(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("user", value.NewString("ada"))

	out := renderS(t, `<!--#set var="greeting" value="hi ${user}, literal \$user" -->
<!--#echo var="greeting" -->`, ctx, opts)
	assert.Equal(t, "\nhi ada, literal $user", out)
}

func TestIfElifElse(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("role", value.NewString("admin"))

	src := `<!--#if expr="$role = admin" -->admin page<!--#elif expr="$role = user" -->user page<!--#else -->guest page<!--#endif -->`
	assert.Equal(t, "admin page", renderS(t, src, ctx, opts))

	ctx.Set("role", value.NewString("user"))
	assert.Equal(t, "user page", renderS(t, src, ctx, opts))

	ctx.Set("role", value.NewString("nobody"))
	assert.Equal(t, "guest page", renderS(t, src, ctx, opts))
}

func TestRegexComparisonPopulatesCaptures(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("path", value.NewString("/users/42"))

	src := `<!--#if expr="$path =~ /^\/users\/([0-9]+)$/" -->id=<!--#echo var="1" --><!--#endif -->`
	assert.Equal(t, "id=42", renderS(t, src, ctx, opts))
}

func TestOrderingComparisons(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("count", value.NewString("12"))

	assert.Equal(t, "big", renderS(t, `<!--#if expr="$count > 5" -->big<!--#else -->small<!--#endif -->`, ctx, opts))
	assert.Equal(t, "small", renderS(t, `<!--#if expr="$count < 5" -->big<!--#else -->small<!--#endif -->`, ctx, opts))
	assert.Equal(t, "yes", renderS(t, `<!--#if expr="$count >= 12" -->yes<!--#else -->no<!--#endif -->`, ctx, opts))
	assert.Equal(t, "yes", renderS(t, `<!--#if expr="$count <= 12" -->yes<!--#else -->no<!--#endif -->`, ctx, opts))
}

func TestOrderingComparisons_LexicographicFallbackForNonNumeric(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("name", value.NewString("banana"))

	assert.Equal(t, "yes", renderS(t, `<!--#if expr="$name > apple" -->yes<!--#else -->no<!--#endif -->`, ctx, opts))
}

func TestAndOrNot(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("a", value.NewString("1"))
	ctx.Set("b", value.NewString("0"))

	src := `<!--#if expr="$a && !$b" -->yes<!--#else -->no<!--#endif -->`
	assert.Equal(t, "yes", renderS(t, src, ctx, opts))
}

func TestConfigOverridesErrmsgWithoutMutatingOptions(t *testing.T) {
	opts := tmplopts.Default()
	opts.ThrowOnErrors = false
	ctx := tmplopts.NewContext(false)

	src := `<!--#config errmsg="CUSTOM ERROR" --><!--#exec cmd="whoami" -->`
	out := renderS(t, src, ctx, opts)
	assert.Equal(t, "CUSTOM ERROR", out)
	assert.Equal(t, "[an error occurred while processing this directive]", opts.ErrorMessage)
}

func TestExecAlwaysDisabled(t *testing.T) {
	opts := tmplopts.Default()
	opts.ThrowOnErrors = true
	ctx := tmplopts.NewContext(false)

	_, err := ParseString(`<!--#exec cmd="whoami" -->`, "test.shtml")
	require.NoError(t, err)
	tmpl, err := ParseString(`<!--#exec cmd="whoami" -->`, "test.shtml")
	require.NoError(t, err)
	_, err = tmpl.RenderToString(ctx, opts)
	require.Error(t, err)
}

func TestPrintenvDumpsContextNotOSEnv(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("foo", value.NewString("bar"))

	out := renderS(t, `<!--#printenv -->`, ctx, opts)
	assert.Equal(t, "foo=bar\n", out)
}
