// Package value implements the polymorphic container shared by all three
// template dialects: a single Value type that wraps host data (numbers,
// strings, sequences, mappings, dates, nested values) uniformly and exposes
// iteration, indexing, attribute lookup, coercion, comparison and slicing.
package value

import "fmt"

// UnsupportedCapabilityError is returned when a capability (count, test,
// begin/end, index, find, slice, ...) is invoked on a Value whose kind does
// not support it.
type UnsupportedCapabilityError struct {
	Kind     Kind
	Capability string
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("value of kind %s does not support %s", e.Kind, e.Capability)
}

// ConversionError is returned by the lossy to_* coercions when the wrapped
// value cannot be converted to the requested primitive.
type ConversionError struct {
	From Kind
	To   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// BadIndexError is returned by SliceStep when the step is zero or negative.
// Out-of-range positions do not produce it: Index reports them with
// ok=false, and Slice clamps them (reversed bounds give an empty result).
type BadIndexError struct {
	Reason string
}

func (e *BadIndexError) Error() string { return "bad index: " + e.Reason }

// MissingAttributeError is returned by MustGetAttribute when neither a
// keyed nor an ordinal lookup resolves the name.
type MissingAttributeError struct {
	Key string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("missing attribute %q", e.Key)
}
