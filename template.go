// Package gotmpl is the top-level entry point for the multi-engine text
// template processor: parse template source under one of three dialects,
// then render it against a Context and Options.
package gotmpl

import (
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/gotmpl/internal/dialectd"
	"github.com/leapstack-labs/gotmpl/internal/dialects"
	"github.com/leapstack-labs/gotmpl/internal/dialectt"
	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

// Dialect selects which of the three grammars ParseString/ParseReader/
// ParseFile compiles source under.
type Dialect int

const (
	// DialectD is the rich, Django-like engine: expressions, filters,
	// template inheritance, and the full control-flow tag set.
	DialectD Dialect = iota
	// DialectS is the SSI-like engine: inline directives and conditional/
	// regex expressions.
	DialectS
	// DialectT is the simple TMPL-like engine: variable substitution,
	// conditionals, and loops.
	DialectT
)

func (d Dialect) String() string {
	switch d {
	case DialectD:
		return "D"
	case DialectS:
		return "S"
	case DialectT:
		return "T"
	default:
		return "unknown"
	}
}

// Template is the dialect-agnostic compiled document every Parse*
// constructor returns.
type Template struct {
	dialect Dialect
	inner   tmplopts.Template
	name    string
}

// Dialect reports which grammar t was compiled under.
func (t *Template) Dialect() Dialect { return t.dialect }

// Name reports the logical name t was parsed under.
func (t *Template) Name() string { return t.name }

// ParseString compiles source under name using d.
func ParseString(d Dialect, source, name string) (*Template, error) {
	var (
		inner tmplopts.Template
		err   error
	)
	switch d {
	case DialectD:
		inner, err = dialectd.ParseString(source, name)
	case DialectS:
		inner, err = dialects.ParseString(source, name)
	case DialectT:
		inner, err = dialectt.ParseString(source, name)
	default:
		return nil, fmt.Errorf("gotmpl: unknown dialect %v", d)
	}
	if err != nil {
		return nil, err
	}
	return &Template{dialect: d, inner: inner, name: name}, nil
}

// ParseReader compiles source read in full from r.
func ParseReader(d Dialect, r io.Reader, name string) (*Template, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(d, string(b), name)
}

// ParseFile reads and compiles the template at path, using path as the
// template's logical name.
func ParseFile(d Dialect, path string) (*Template, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: caller-supplied path
	if err != nil {
		return nil, &tmplopts.IoError{Cause: err}
	}
	return ParseString(d, string(b), path)
}

// RenderToString renders t to a string.
func (t *Template) RenderToString(ctx *tmplopts.Context, opts *tmplopts.Options) (string, error) {
	return t.inner.RenderToString(ctx, opts)
}

// RenderToStream renders t to w.
func (t *Template) RenderToStream(w io.Writer, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	return t.inner.RenderToStream(w, ctx, opts)
}

// RenderToPath renders t to a new file at path, truncating any existing
// content.
func (t *Template) RenderToPath(path string, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	f, err := os.Create(path) //nolint:gosec // G304: caller-supplied path
	if err != nil {
		return &tmplopts.IoError{Cause: err}
	}
	defer f.Close()
	return t.RenderToStream(f, ctx, opts)
}
