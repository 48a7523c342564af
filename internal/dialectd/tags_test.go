package dialectd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

func renderD(t *testing.T, src string, ctx *tmplopts.Context, opts *tmplopts.Options) string {
	t.Helper()
	tmpl, err := ParseString(src, "test.html")
	require.NoError(t, err)
	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	return out
}

func TestIfElifElse(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("n", value.NewNumber(2))

	out := renderD(t, `{% if n == 1 %}one{% elif n == 2 %}two{% else %}many{% endif %}`, ctx, opts)
	assert.Equal(t, "two", out)
}

func TestForLoop_ContextVarsAndEmpty(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewString("a"), value.NewString("b"), value.NewString("c"),
	}))

	out := renderD(t, `{% for x in items %}{{ forloop.counter }}:{{ x }} {% endfor %}`, ctx, opts)
	assert.Equal(t, "1:a 2:b 3:c ", out)

	empty := tmplopts.NewContext(false)
	empty.Set("items", value.NewSequence(nil))
	out = renderD(t, `{% for x in items %}{{ x }}{% empty %}nothing{% endfor %}`, empty, opts)
	assert.Equal(t, "nothing", out)
}

func TestCycle_PersistsAcrossLoopIterations(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewString("a"), value.NewString("b"), value.NewString("c"), value.NewString("d"),
	}))

	out := renderD(t, `{% for x in items %}{% cycle "odd" "even" %}{% endfor %}`, ctx, opts)
	assert.Equal(t, "oddevenoddeven", out)
}

func TestCycle_NamedReferenceToEmptyValuesDoesNotPanic(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)

	out := renderD(t, `{% cycle as x %}{% cycle x %}{% cycle x %}`, ctx, opts)
	assert.Equal(t, "", out, "referencing a cycle registered with no values must render empty, not panic")
}

func TestIfChanged_PersistsAcrossLoopIterations(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{
		value.NewNumber(1), value.NewNumber(1), value.NewNumber(2),
	}))

	out := renderD(t, `{% for x in items %}{% ifchanged x %}{{ x }}{% endifchanged %}{% endfor %}`, ctx, opts)
	assert.Equal(t, "12", out)
}

func TestWidthratio_RoundsHalfToEven(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)

	// 1/4*2 = 0.5 ties to the nearest even integer, 0.
	out := renderD(t, `{% widthratio 1 4 2 %}`, ctx, opts)
	assert.Equal(t, "0", out)

	// 3/4*2 = 1.5 ties to the nearest even integer, 2.
	out = renderD(t, `{% widthratio 3 4 2 %}`, ctx, opts)
	assert.Equal(t, "2", out)
}

func TestWith_ScopesAndRestores(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("x", value.NewString("outer"))

	out := renderD(t, `{% with x="inner" %}{{ x }}{% endwith %}-{{ x }}`, ctx, opts)
	assert.Equal(t, "inner-outer", out)
}

func TestWith_MultipleSpaceSeparatedBindings(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)

	out := renderD(t, `{% with a="1" b="2" %}{{ a }}-{{ b }}{% endwith %}`, ctx, opts)
	assert.Equal(t, "1-2", out)
}

func TestWith_LegacyAsForm(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("x", value.NewString("val"))

	out := renderD(t, `{% with x as total %}{{ total }}{% endwith %}`, ctx, opts)
	assert.Equal(t, "val", out)
}

func TestIfEqualIfNotEqual(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("a", value.NewString("x"))
	ctx.Set("b", value.NewString("y"))

	out := renderD(t, `{% ifequal a b %}same{% else %}diff{% endifequal %}`, ctx, opts)
	assert.Equal(t, "diff", out)

	out = renderD(t, `{% ifnotequal a b %}diff{% else %}same{% endifnotequal %}`, ctx, opts)
	assert.Equal(t, "diff", out)
}

func TestFirstof(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("b", value.NewString("second"))

	out := renderD(t, `{% firstof a b "fallback" %}`, ctx, opts)
	assert.Equal(t, "second", out)
}

func TestForLoop_ScopesLoopVarsAndRestoresOuterBinding(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("x", value.NewString("outer"))
	ctx.Set("items", value.NewSequence([]value.Value{value.NewString("a"), value.NewString("b")}))

	out := renderD(t, `{% for x in items %}{{ x }}{% endfor %}-{{ x }}`, ctx, opts)
	assert.Equal(t, "ab-outer", out)

	_, stillSet := ctx.Get("forloop")
	assert.False(t, stillSet, "forloop must not leak past the loop")
}

func TestForLoop_UnboundLoopVarDeletedAfterLoop(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence([]value.Value{value.NewString("a"), value.NewString("b")}))

	out := renderD(t, `{% for x in items %}{{ x }}{% endfor %}`, ctx, opts)
	assert.Equal(t, "ab", out)

	_, ok := ctx.Get("x")
	assert.False(t, ok, "a loop var with no prior outer binding must not leak after the loop")
}

type memLoader struct {
	templates map[string]string
}

func (m *memLoader) LoadLibrary(string) (*tmplopts.Library, bool, error) { return nil, false, nil }

func (m *memLoader) LoadTemplate(name string, _ []string) (tmplopts.Template, error) {
	src, ok := m.templates[name]
	if !ok {
		return nil, &tmplopts.IoError{Cause: assert.AnError}
	}
	return ParseString(src, name)
}

func (m *memLoader) LoadBytes(name string, _ []string) ([]byte, error) {
	src, ok := m.templates[name]
	if !ok {
		return nil, &tmplopts.IoError{Cause: assert.AnError}
	}
	return []byte(src), nil
}

func TestInclude_WithoutOnly_SeesParentContext(t *testing.T) {
	opts := tmplopts.Default()
	opts.Loaders = []tmplopts.Loader{&memLoader{templates: map[string]string{
		"partial.html": `{{ greeting }}, {{ name }}`,
	}}}
	ctx := tmplopts.NewContext(false)
	ctx.Set("greeting", value.NewString("hi"))

	out := renderD(t, `{% include "partial.html" with name="Ada" %}`, ctx, opts)
	assert.Equal(t, "hi, Ada", out)
}

func TestInclude_Only_IsolatesFromParentContext(t *testing.T) {
	opts := tmplopts.Default()
	opts.Loaders = []tmplopts.Loader{&memLoader{templates: map[string]string{
		"partial.html": `[{{ greeting }}] {{ name }}`,
	}}}
	ctx := tmplopts.NewContext(false)
	ctx.Set("greeting", value.NewString("hi"))

	out := renderD(t, `{% include "partial.html" with name="Ada" only %}`, ctx, opts)
	assert.Equal(t, "[] Ada", out, "only must not see the parent's greeting binding")
}

func TestInclude_OnlyWithoutWith_GetsEmptyContext(t *testing.T) {
	opts := tmplopts.Default()
	opts.Loaders = []tmplopts.Loader{&memLoader{templates: map[string]string{
		"partial.html": `[{{ greeting }}]`,
	}}}
	ctx := tmplopts.NewContext(false)
	ctx.Set("greeting", value.NewString("hi"))

	out := renderD(t, `{% include "partial.html" only %}`, ctx, opts)
	assert.Equal(t, "[]", out)
}

func TestBlockSuper_ChainsThroughThreeLevelsOfExtends(t *testing.T) {
	opts := tmplopts.Default()
	opts.Loaders = []tmplopts.Loader{&memLoader{templates: map[string]string{
		"grandparent.html": `{% block content %}GP{% endblock %}`,
		"parent.html":       `{% extends "grandparent.html" %}{% block content %}P-{{ block.super }}{% endblock %}`,
	}}}
	ctx := tmplopts.NewContext(false)

	out := renderD(t, `{% extends "parent.html" %}{% block content %}C-{{ block.super }}{% endblock %}`, ctx, opts)
	assert.Equal(t, "C-P-GP", out, "block.super must resolve to the next-more-derived ancestor's override, not jump straight to the root template")
}

func TestRenderToString_DoesNotLeakTransAsBindingIntoCallerContext(t *testing.T) {
	opts := tmplopts.Default()
	tmpl, err := ParseString(`{% trans "hi" as greeting %}{{ greeting }}`, "test.html")
	require.NoError(t, err)
	ctx := tmplopts.NewContext(false)

	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, ok := ctx.Get("greeting")
	assert.False(t, ok, "trans ... as must not bind into the caller's own context object")
}

func TestRenderToString_DoesNotLeakRegroupAsBindingAcrossRepeatedRenders(t *testing.T) {
	opts := tmplopts.Default()
	tmpl, err := ParseString(`{% regroup items by kind as grouped %}{% for g in grouped %}{{ g.grouper }}{% endfor %}`, "test.html")
	require.NoError(t, err)
	ctx := tmplopts.NewContext(false)
	ctx.Set("items", value.NewSequence(nil))

	_, err = tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	_, ok := ctx.Get("grouped")
	assert.False(t, ok, "regroup ... as must not bind into the caller's own context object")

	// A second render off the same ctx must not see the first render's leftovers.
	out2, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "", out2)
}
