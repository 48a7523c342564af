package dialects

import (
	"io"
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

// Template is dialect S's compiled document: a flat node tree (text runs,
// simple directives, and collapsed if/elif/else/endif conditionals).
type Template struct {
	nodes []Node
	name  string
}

// ParseString compiles dialect S source under name.
func ParseString(source, name string) (*Template, error) {
	nodes, err := ParseSource(source, name)
	if err != nil {
		return nil, err
	}
	return &Template{nodes: nodes, name: name}, nil
}

// ParseBytes adapts ParseString to tmplopts.ParseFunc.
func ParseBytes(source []byte, name string) (tmplopts.Template, error) {
	return ParseString(string(source), name)
}

func (t *Template) Name() string { return t.name }

func (t *Template) RenderToString(ctx *tmplopts.Context, opts *tmplopts.Options) (string, error) {
	var b strings.Builder
	if err := t.RenderToStream(&b, ctx, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (t *Template) RenderToStream(w io.Writer, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	if ctx == nil {
		ctx = tmplopts.NewContext(false)
	} else {
		ctx = ctx.Clone()
	}
	var b strings.Builder
	rs := newRenderState(opts)
	if err := renderNodes(&b, t.nodes, ctx, opts, rs); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}
