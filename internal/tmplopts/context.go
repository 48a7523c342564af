package tmplopts

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// Context is a mapping from string names to values, with insertion-order
// preservation for iteration. Dialect T can request a case-insensitive
// variant via NewContext(foldCase=true).
type Context struct {
	keys     []string
	vals     map[string]value.Value
	foldCase bool
}

// NewContext creates an empty context. When foldCase is true, lookups and
// Set are case-insensitive (dialect T's case_sensitive=false option).
func NewContext(foldCase bool) *Context {
	return &Context{vals: make(map[string]value.Value), foldCase: foldCase}
}

func (c *Context) normalize(name string) string {
	if c.foldCase {
		return strings.ToLower(name)
	}
	return name
}

// Set binds name to v, appending to the insertion order if new.
func (c *Context) Set(name string, v value.Value) {
	key := c.normalize(name)
	if _, exists := c.vals[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.vals[key] = v
}

// Get looks up name, returning ok=false when absent.
func (c *Context) Get(name string) (value.Value, bool) {
	v, ok := c.vals[c.normalize(name)]
	return v, ok
}

// Delete removes a binding.
func (c *Context) Delete(name string) {
	key := c.normalize(name)
	if _, ok := c.vals[key]; !ok {
		return
	}
	delete(c.vals, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Keys returns bound names in insertion order.
func (c *Context) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Clone returns a shallow copy: a render mutates its local context copy,
// never the caller's, and never the parsed template.
func (c *Context) Clone() *Context {
	clone := &Context{
		keys:     append([]string(nil), c.keys...),
		vals:     make(map[string]value.Value, len(c.vals)),
		foldCase: c.foldCase,
	}
	for k, v := range c.vals {
		clone.vals[k] = v
	}
	return clone
}

// NewEmpty returns a fresh, empty Context with the same case-folding mode
// as c but none of its bindings -- used by {% include ... only %} to
// isolate the included template from the caller's context.
func (c *Context) NewEmpty() *Context {
	return NewContext(c.foldCase)
}

// FromMap builds a Context from a plain Go map, adapting each value via
// value.FromAny. Key order is sorted for determinism (Go maps have no
// inherent order); callers who need a specific iteration order should
// build the Context with repeated Set calls instead.
func FromMap(m map[string]any, foldCase bool) *Context {
	c := NewContext(foldCase)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Set(k, value.FromAny(m[k]))
	}
	return c
}
