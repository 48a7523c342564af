package value

import (
	"strconv"
	"strings"
	"time"
)

// ToString coerces v to a Go string. Never fails: every kind has a human
// representation.
func (v Value) ToString() (string, error) {
	return v.String(), nil
}

// ToNumber coerces v to float64. Strings parse as numbers when
// well-formed; otherwise ConversionError.
func (v Value) ToNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.n, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString:
		s := strings.TrimSpace(v.s)
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ConversionError{From: v.kind, To: "number"}
		}
		return n, nil
	case KindSequence:
		return float64(len(v.seq)), nil
	case KindMapping:
		return float64(len(v.ent)), nil
	case KindDuration:
		return v.dur.Seconds(), nil
	default:
		return 0, &ConversionError{From: v.kind, To: "number"}
	}
}

// ToBoolean is an alias for Test; it never fails.
func (v Value) ToBoolean() (bool, error) { return v.Test(), nil }

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

// ToDatetime coerces v to time.Time, parsing strings against a small set
// of accepted layouts.
func (v Value) ToDatetime() (time.Time, error) {
	switch v.kind {
	case KindDateTime:
		return v.t, nil
	case KindString:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v.s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, &ConversionError{From: v.kind, To: "datetime"}
	default:
		return time.Time{}, &ConversionError{From: v.kind, To: "datetime"}
	}
}

// ToSize coerces v to an integer count, per the "size" capability used by
// filesizeformat-style filters.
func (v Value) ToSize() (int64, error) {
	n, err := v.ToNumber()
	if err != nil {
		return 0, &ConversionError{From: v.kind, To: "size"}
	}
	return int64(n), nil
}

// ToPath coerces v to a filesystem path string.
func (v Value) ToPath() (string, error) {
	if v.kind != KindString {
		return "", &ConversionError{From: v.kind, To: "path"}
	}
	return v.s, nil
}
