package value

import "strings"

var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&#x27;",
)

// Escape returns a new string Value with HTML-special characters escaped,
// marked safe. For values already marked safe this is a no-op followed by
// re-marking, matching Django's escape() contract.
func (v Value) Escape() Value {
	if v.safe {
		return v
	}
	s, _ := v.ToString()
	return NewString(htmlEscaper.Replace(s)).MarkSafe()
}

// EscapeString is the free-function form used by filters that only have a
// raw string in hand (e.g. inside escapejs).
func EscapeString(s string) string {
	return htmlEscaper.Replace(s)
}

// SafeSeq marks the container safe and marks each element safe too --
// Django's safeseq filter explicitly propagates the flag elementwise
// (the base safe flag is otherwise per-value, not inherited).
func (v Value) SafeSeq() Value {
	if v.kind != KindSequence {
		return v.MarkSafe()
	}
	out := make([]Value, len(v.seq))
	for i, e := range v.seq {
		out[i] = e.MarkSafe()
	}
	return NewSequence(out).MarkSafe()
}
