package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the primitive shape a Value wraps.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
	KindDateTime
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindDateTime:
		return "datetime"
	case KindDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Pair is one key/value entry of a Mapping, in insertion order.
type Pair struct {
	Key   string
	Value Value
}

// Value is the polymorphic container used throughout the parser kernel and
// all three dialect evaluators. It is a plain value type: copies are
// shallow (slices/maps are shared), and every operation that would
// "mutate" a Value instead returns a new one.
//
// The safe flag and token are dialect D's extension to the base value
// model (auto-escape bookkeeping and source provenance); the other two
// dialects simply never set them.
type Value struct {
	kind Kind

	b   bool
	n   float64
	s   string
	seq []Value
	ent []Pair
	t   time.Time
	dur time.Duration

	safe  bool
	token string
}

// None is the canonical none/null value.
var None = Value{kind: KindNone}

func NewBool(b bool) Value     { return Value{kind: KindBool, b: b} }
func NewNumber(n float64) Value { return Value{kind: KindNumber, n: n} }
func NewString(s string) Value  { return Value{kind: KindString, s: s} }
func NewDateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }
func NewDuration(d time.Duration) Value { return Value{kind: KindDuration, dur: d} }

// NewSequence wraps an ordered list of elements.
func NewSequence(elems []Value) Value {
	return Value{kind: KindSequence, seq: elems}
}

// NewMapping wraps an insertion-ordered key/value mapping.
func NewMapping(entries []Pair) Value {
	return Value{kind: KindMapping, ent: entries}
}

// Kind reports the wrapped primitive shape.
func (v Value) Kind() Kind { return v.kind }

// IsSafe reports whether the value's string form is already markup-safe.
func (v Value) IsSafe() bool { return v.safe }

// Token returns the substring of the original source that produced this
// value's literal form, if any (dialect D provenance).
func (v Value) Token() string { return v.token }

// WithToken returns a copy of v carrying tok as its source token.
func (v Value) WithToken(tok string) Value {
	v.token = tok
	return v
}

// MarkSafe returns a copy of v with the safe flag set. Idempotent.
func (v Value) MarkSafe() Value {
	v.safe = true
	return v
}

// MarkUnsafe returns a copy of v with the safe flag cleared. Idempotent.
func (v Value) MarkUnsafe() Value {
	v.safe = false
	return v
}

// Count performs numeric coercion (the "count" capability).
func (v Value) Count() (float64, error) { return v.ToNumber() }

// Test reports truthiness: empty collection, zero number, empty string and
// none are false; everything else is true.
func (v Value) Test() bool {
	switch v.kind {
	case KindNone:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		return v.s != ""
	case KindSequence:
		return len(v.seq) > 0
	case KindMapping:
		return len(v.ent) > 0
	case KindDateTime:
		return !v.t.IsZero()
	case KindDuration:
		return v.dur != 0
	default:
		return false
	}
}

// Output writes a human representation to sb, per the "output" capability.
func (v Value) Output(sb *strings.Builder) {
	sb.WriteString(v.String())
}

// String returns the human representation used by "output"/to_string.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return ""
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, e := range v.seq {
			parts[i] = e.reprString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		parts := make([]string, len(v.ent))
		for i, e := range v.ent {
			parts[i] = fmt.Sprintf("%q: %s", e.Key, e.Value.reprString())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindDateTime:
		return v.t.Format(time.RFC3339)
	case KindDuration:
		return v.dur.String()
	default:
		return ""
	}
}

func (v Value) reprString() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.String()
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Equal performs structural equality against another Value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		// adapters comparing equal when both coerce to the same primitive
		// is adapter-defined; we allow number/string cross-coercion only
		// when both sides parse cleanly, matching Django's loose ifequal.
		if vn, err := v.ToNumber(); err == nil {
			if on, err2 := o.ToNumber(); err2 == nil {
				return vn == on
			}
		}
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindDateTime:
		return v.t.Equal(o.t)
	case KindDuration:
		return v.dur == o.dur
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.ent) != len(o.ent) {
			return false
		}
		om := o.asMap()
		for _, p := range v.ent {
			ov, ok := om[p.Key]
			if !ok || !p.Value.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Less reports whether v orders before o, used by comparisons and sorting.
func (v Value) Less(o Value) bool {
	if v.kind == KindString && o.kind == KindString {
		return v.s < o.s
	}
	vn, err1 := v.ToNumber()
	on, err2 := o.ToNumber()
	if err1 == nil && err2 == nil {
		return vn < on
	}
	return v.String() < o.String()
}

func (v Value) asMap() map[string]Value {
	m := make(map[string]Value, len(v.ent))
	for _, p := range v.ent {
		m[p.Key] = p.Value
	}
	return m
}

// Size returns the number of elements (for sequences/mappings/strings).
func (v Value) Size() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return len(v.ent)
	case KindString:
		return len([]rune(v.s))
	default:
		return 0
	}
}

// Iterator walks a Value's elements in adapter-natural order.
type Iterator struct {
	vals []Value
	pos  int
}

// Next advances the iterator, returning false once exhausted.
func (it *Iterator) Next() (Value, bool) {
	if it == nil || it.pos >= len(it.vals) {
		return None, false
	}
	v := it.vals[it.pos]
	it.pos++
	return v, true
}

// Remaining returns the count of elements not yet consumed.
func (it *Iterator) Remaining() int {
	if it == nil {
		return 0
	}
	return len(it.vals) - it.pos
}

// Begin returns a forward iterator over v's elements. Mappings iterate
// key/value pairs (see Pairs for key-only iteration); strings are atomic
// and iterate as a single element unless Chars is used.
func (v Value) Begin() (*Iterator, error) {
	switch v.kind {
	case KindSequence:
		return &Iterator{vals: append([]Value(nil), v.seq...)}, nil
	case KindMapping:
		vals := make([]Value, len(v.ent))
		for i, e := range v.ent {
			vals[i] = NewSequence([]Value{NewString(e.Key), e.Value})
		}
		return &Iterator{vals: vals}, nil
	case KindString:
		return &Iterator{vals: []Value{v}}, nil
	default:
		return nil, &UnsupportedCapabilityError{Kind: v.kind, Capability: "begin"}
	}
}

// Chars returns an iterator over a string's runes, each as a one-rune
// string Value; used by "for" loops that explicitly want characters.
func (v Value) Chars() (*Iterator, error) {
	if v.kind != KindString {
		return nil, &UnsupportedCapabilityError{Kind: v.kind, Capability: "chars"}
	}
	rs := []rune(v.s)
	vals := make([]Value, len(rs))
	for i, r := range rs {
		vals[i] = NewString(string(r))
	}
	return &Iterator{vals: vals}, nil
}

// Pairs returns v's Mapping entries as key/value Pairs, insertion-ordered.
func (v Value) Pairs() ([]Pair, error) {
	if v.kind != KindMapping {
		return nil, &UnsupportedCapabilityError{Kind: v.kind, Capability: "pairs"}
	}
	return append([]Pair(nil), v.ent...), nil
}

// Keys returns a Mapping's keys in insertion order.
func (v Value) Keys() ([]string, error) {
	if v.kind != KindMapping {
		return nil, &UnsupportedCapabilityError{Kind: v.kind, Capability: "keys"}
	}
	keys := make([]string, len(v.ent))
	for i, e := range v.ent {
		keys[i] = e.Key
	}
	return keys, nil
}

// Elements returns a Sequence's elements.
func (v Value) Elements() ([]Value, error) {
	if v.kind != KindSequence {
		return nil, &UnsupportedCapabilityError{Kind: v.kind, Capability: "elements"}
	}
	return append([]Value(nil), v.seq...), nil
}

// Index looks up a contained value by key (mapping) or ordinal (sequence,
// string). Returns ok=false, rather than an error, when the key/index is
// absent -- callers needing the hard-fail variant use MustGetAttribute.
func (v Value) Index(key Value) (Value, bool) {
	switch v.kind {
	case KindMapping:
		for _, e := range v.ent {
			if e.Key == key.String() {
				return e.Value, true
			}
		}
		return None, false
	case KindSequence:
		idx, err := key.ToNumber()
		if err != nil {
			return None, false
		}
		i := normalizeIndex(int(idx), len(v.seq))
		if i < 0 || i >= len(v.seq) {
			return None, false
		}
		return v.seq[i], true
	case KindString:
		idx, err := key.ToNumber()
		if err != nil {
			return None, false
		}
		rs := []rune(v.s)
		i := normalizeIndex(int(idx), len(rs))
		if i < 0 || i >= len(rs) {
			return None, false
		}
		return NewString(string(rs[i])), true
	default:
		return None, false
	}
}

// Find returns an iterator positioned at the first element equal to needle,
// or ok=false if no such element exists.
func (v Value) Find(needle Value) (*Iterator, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	for i, e := range v.seq {
		if e.Equal(needle) {
			return &Iterator{vals: append([]Value(nil), v.seq[i:]...)}, true
		}
	}
	return nil, false
}

// Contains implements the "in"/"not in" operators: sequence membership or
// mapping key-presence.
func (v Value) Contains(needle Value) bool {
	switch v.kind {
	case KindSequence:
		_, ok := v.Find(needle)
		return ok
	case KindMapping:
		_, ok := v.Index(needle)
		return ok
	case KindString:
		return strings.Contains(v.s, needle.String())
	default:
		return false
	}
}

func normalizeIndex(i, size int) int {
	if i < 0 {
		return size + i
	}
	return i
}

// MustGetAttribute tries Index(name); if unsupported, tries ordinal lookup
// via at(to_number(name)); if neither applies, fails with
// MissingAttributeError.
func (v Value) MustGetAttribute(name string) (Value, error) {
	if val, ok := v.Index(NewString(name)); ok {
		return val, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		if val, ok := v.Index(NewNumber(float64(n))); ok {
			return val, nil
		}
	}
	return None, &MissingAttributeError{Key: name}
}

// SortBy sorts a Sequence by the value obtained from a dotted attribute
// path applied to each element. Sort is stable; ties preserve original
// order.
func (v Value) SortBy(path string, reverse bool) ([]Value, error) {
	if v.kind != KindSequence {
		return nil, &UnsupportedCapabilityError{Kind: v.kind, Capability: "sort_by"}
	}
	parts := strings.Split(path, ".")
	elems := append([]Value(nil), v.seq...)
	keyOf := func(e Value) Value {
		cur := e
		for _, p := range parts {
			if p == "" {
				continue
			}
			next, err := cur.MustGetAttribute(p)
			if err != nil {
				return None
			}
			cur = next
		}
		return cur
	}
	sort.SliceStable(elems, func(i, j int) bool {
		ki, kj := keyOf(elems[i]), keyOf(elems[j])
		if reverse {
			return kj.Less(ki)
		}
		return ki.Less(kj)
	})
	return elems, nil
}
