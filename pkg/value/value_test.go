package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Test(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"none", None, false},
		{"zero number", NewNumber(0), false},
		{"nonzero number", NewNumber(1), true},
		{"empty string", NewString(""), false},
		{"nonempty string", NewString("x"), true},
		{"empty sequence", NewSequence(nil), false},
		{"nonempty sequence", NewSequence([]Value{NewNumber(1)}), true},
		{"false", NewBool(false), false},
		{"true", NewBool(true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Test())
		})
	}
}

func TestValue_SliceInvariants(t *testing.T) {
	seq := NewSequence([]Value{NewNumber(1), NewNumber(2), NewNumber(3), NewNumber(4)})

	full, err := seq.Slice(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, seq.Size(), full.Size())

	for k := 0; k <= seq.Size(); k++ {
		neg := -k
		lo1, lo2 := seq.Size()-k, 0
		s1, err1 := seq.Slice(&neg, nil)
		require.NoError(t, err1)
		_ = lo1
		_ = lo2
		s2, err2 := seq.Slice(&lo1, nil)
		require.NoError(t, err2)
		assert.True(t, s1.Equal(s2), "k=%d", k)
	}
}

func TestValue_SliceOutOfRangeBoundsClamp(t *testing.T) {
	seq := NewSequence([]Value{NewNumber(1), NewNumber(2)})

	hi := 5
	clamped, err := seq.Slice(nil, &hi)
	require.NoError(t, err, "a hi bound past the end of the sequence must clamp, not error, matching Python/Django slicing")
	assert.Equal(t, 2, clamped.Size())

	lo, hiRev := 1, 0
	empty, err := seq.Slice(&lo, &hiRev)
	require.NoError(t, err, "a reversed (lo > hi) range yields an empty slice, not an error")
	assert.Equal(t, 0, empty.Size())
}

func TestValue_SliceStep_NonPositiveStepStillErrors(t *testing.T) {
	seq := NewSequence([]Value{NewNumber(1), NewNumber(2)})
	step := 0
	_, err := seq.SliceStep(nil, nil, &step)
	assert.Error(t, err, "a zero step has no defined meaning and must still be rejected")
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, NewString("a").Equal(NewString("a")))
	assert.False(t, NewString("a").Equal(NewString("b")))
	assert.True(t, NewNumber(1).Equal(NewNumber(1)))
	assert.True(t, NewSequence([]Value{NewNumber(1)}).Equal(NewSequence([]Value{NewNumber(1)})))
}

func TestValue_SafeIdempotent(t *testing.T) {
	v := NewString("<b>").MarkSafe().MarkSafe()
	assert.True(t, v.IsSafe())
	v = v.MarkUnsafe().MarkUnsafe()
	assert.False(t, v.IsSafe())
}

func TestValue_SafeSeqPropagatesElementwise(t *testing.T) {
	v := NewSequence([]Value{NewString("<a>"), NewString("<b>")}).SafeSeq()
	assert.True(t, v.IsSafe())
	elems, err := v.Elements()
	require.NoError(t, err)
	for _, e := range elems {
		assert.True(t, e.IsSafe())
	}
}

func TestValue_MustGetAttribute(t *testing.T) {
	m := NewMapping([]Pair{{Key: "a", Value: NewNumber(1)}})
	v, err := m.MustGetAttribute("a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, mustNumber(t, v))

	_, err = m.MustGetAttribute("missing")
	assert.Error(t, err)
	var mae *MissingAttributeError
	assert.ErrorAs(t, err, &mae)

	seq := NewSequence([]Value{NewString("x"), NewString("y")})
	v, err = seq.MustGetAttribute("1")
	require.NoError(t, err)
	assert.Equal(t, "y", v.String())
}

func TestValue_SortByDottedPath(t *testing.T) {
	people := NewSequence([]Value{
		NewMapping([]Pair{{"name", NewString("bob")}, {"age", NewNumber(40)}}),
		NewMapping([]Pair{{"name", NewString("amy")}, {"age", NewNumber(20)}}),
		NewMapping([]Pair{{"name", NewString("cam")}, {"age", NewNumber(30)}}),
	})
	sorted, err := people.SortBy("age", false)
	require.NoError(t, err)
	names := make([]string, len(sorted))
	for i, e := range sorted {
		n, _ := e.MustGetAttribute("name")
		names[i] = n.String()
	}
	assert.Equal(t, []string{"amy", "cam", "bob"}, names)
}

func TestValue_FromAnyStruct(t *testing.T) {
	type Target struct {
		Schema string
		Port   int `tpl:"port"`
		secret string //nolint:unused
	}
	v := FromAny(Target{Schema: "analytics", Port: 5432})
	schema, err := v.MustGetAttribute("Schema")
	require.NoError(t, err)
	assert.Equal(t, "analytics", schema.String())

	port, err := v.MustGetAttribute("port")
	require.NoError(t, err)
	assert.Equal(t, "5432", port.String())
}

func mustNumber(t *testing.T, v Value) float64 {
	t.Helper()
	n, err := v.ToNumber()
	require.NoError(t, err)
	return n
}
