package value

// Slice returns the Python-style half-open range [lo, hi) of v. Either
// bound may be nil, meaning 0 and size respectively. Negative indices
// rotate from the end, and out-of-range bounds clamp to the sequence's
// actual extent rather than erroring, matching Python/Django slicing (a
// slice's bounds are always valid, however far outside the collection they
// land). Equivalent to SliceStep(lo, hi, nil).
func (v Value) Slice(lo, hi *int) (Value, error) {
	return v.SliceStep(lo, hi, nil)
}

// SliceStep is Slice with an optional step, matching Python/Django's
// |slice:"lo:hi:step" three-field form. A nil or 1 step behaves exactly
// like Slice; any other positive step keeps every step'th element of the
// [lo, hi) range. A zero or negative step fails with BadIndexError --
// dialect D has no reverse-iteration slice syntax.
func (v Value) SliceStep(lo, hi, step *int) (Value, error) {
	switch v.kind {
	case KindSequence:
		elems := sliceBounds(v.seq, lo, hi)
		elems, err := applyStep(elems, step)
		if err != nil {
			return None, err
		}
		return NewSequence(elems), nil
	case KindString:
		rs := []rune(v.s)
		elems := make([]Value, len(rs))
		for i, r := range rs {
			elems[i] = NewString(string(r))
		}
		sliced := sliceBounds(elems, lo, hi)
		sliced, err := applyStep(sliced, step)
		if err != nil {
			return None, err
		}
		var sb []rune
		for _, e := range sliced {
			sb = append(sb, []rune(e.s)...)
		}
		return NewString(string(sb)), nil
	default:
		return None, &UnsupportedCapabilityError{Kind: v.kind, Capability: "slice"}
	}
}

func applyStep[T any](items []T, step *int) ([]T, error) {
	if step == nil || *step == 1 {
		return items, nil
	}
	if *step < 1 {
		return nil, &BadIndexError{Reason: "slice step must be positive"}
	}
	out := make([]T, 0, (len(items)+*step-1)/ *step)
	for i := 0; i < len(items); i += *step {
		out = append(out, items[i])
	}
	return out, nil
}

// clampIndex maps a Python-style (possibly negative, possibly
// out-of-range) slice index onto [0, size].
func clampIndex(i, size int) int {
	if i < 0 {
		i += size
		if i < 0 {
			i = 0
		}
	}
	if i > size {
		i = size
	}
	return i
}

func sliceBounds[T any](items []T, lo, hi *int) []T {
	size := len(items)
	l, h := 0, size
	if lo != nil {
		l = clampIndex(*lo, size)
	}
	if hi != nil {
		h = clampIndex(*hi, size)
	}
	if l > h {
		return items[:0]
	}
	return items[l:h]
}
