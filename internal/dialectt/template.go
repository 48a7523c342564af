package dialectt

import (
	"io"
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

// Template is dialect T's compiled document.
type Template struct {
	nodes []Node
	name  string
}

// ParseString compiles dialect T source under name.
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
	if ctx == nil {
		ctx = tmplopts.NewContext(!opts.CaseSensitive)
	} else {
		ctx = ctx.Clone()
	}
	var b strings.Builder
	if err := renderNodes(&b, t.nodes, ctx, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (t *Template) RenderToStream(w io.Writer, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	if ctx == nil {
		ctx = tmplopts.NewContext(!opts.CaseSensitive)
	} else {
		ctx = ctx.Clone()
	}
	var b strings.Builder
	if err := renderNodes(&b, t.nodes, ctx, opts); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}
