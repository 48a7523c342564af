// Package grammar is the parser kernel used by dialect D's expression
// grammar; dialects S and T parse with their own hand-written scanners and
// do not use it. It is a small PEG combinator library that builds grammars over raw
// source text, producing an immutable match tree whose nodes are
// identified by grammar-rule identity (an opaque handle assigned at
// grammar-build time, analogous to "the address of a compiled regex" in
// the original ajg::synth engine -- here, a registry-issued integer).
package grammar

import "sync/atomic"

// Rule is an opaque handle identifying a grammar production. Handles are
// issued by a Registry at grammar-build time and compared by identity
// (equality), never by name, so dispatch never depends on string
// matching a production's label.
type Rule uint32

var counter uint64

// Registry assigns Rule handles and remembers their debug names so panics
// and %v formatting stay readable; it is built once per dialect kernel and
// held immutably thereafter.
type Registry struct {
	names map[Rule]string
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[Rule]string)}
}

// New issues a fresh Rule handle tagged with a debug name.
func (r *Registry) New(name string) Rule {
	id := Rule(atomic.AddUint64(&counter, 1))
	r.names[id] = name
	return id
}

// Name returns the debug name a Rule was issued with.
func (r *Registry) Name(rule Rule) string {
	if n, ok := r.names[rule]; ok {
		return n
	}
	return "<anonymous>"
}
