package dialectt

import (
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

func renderNodes(w *strings.Builder, nodes []Node, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	for _, n := range nodes {
		if err := renderNode(w, n, ctx, opts); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(w *strings.Builder, n Node, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	switch v := n.(type) {
	case TextNode:
		w.WriteString(v.Text)
		return nil
	case VarNode:
		return renderVar(w, v, ctx, opts)
	case IfNode:
		return renderIf(w, v, ctx, opts)
	case LoopNode:
		return renderLoop(w, v, ctx, opts)
	case IncludeNode:
		return renderInclude(w, v, ctx, opts)
	default:
		return nil
	}
}

func renderVar(w *strings.Builder, n VarNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	s, ok := lookupString(n.Name, ctx)
	if !ok {
		s = n.Default
	}
	switch n.Escape {
	case EscapeHTML:
		s = value.EscapeString(s)
	case EscapeURL:
		s = urlEscape(s)
	}
	w.WriteString(s)
	return nil
}

func lookupString(name string, ctx *tmplopts.Context) (string, bool) {
	v, ok := ctx.Get(name)
	if !ok || v.Kind() == value.KindNone {
		return "", false
	}
	return v.String(), true
}

// truthy reports a variable's TMPL_IF/TMPL_UNLESS truth value: absent,
// none, empty string/sequence/mapping, zero, and boolean false are false,
// everything else is true (mirrors value.Value.Test()).
func truthy(name string, ctx *tmplopts.Context) bool {
	v, ok := ctx.Get(name)
	if !ok {
		return false
	}
	return v.Test()
}

func renderIf(w *strings.Builder, n IfNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	cond := truthy(n.Name, ctx)
	if n.Negate {
		cond = !cond
	}
	if cond {
		return renderNodes(w, n.Body, ctx, opts)
	}
	return renderNodes(w, n.ElseBody, ctx, opts)
}

// renderLoop resolves NAME as a sequence of mappings (one per iteration,
// HTML::Template's TMPL_LOOP convention) and renders the body once per
// element in a scoped context. Each iteration's context layers the row's
// fields, opts.GlobalVars, and (when opts.LoopContextVars is set) the
// __first__/__last__/__odd__/__counter__ loop-context variables, over a
// clone of the enclosing context -- the loop body never mutates its caller.
func renderLoop(w *strings.Builder, n LoopNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	v, ok := ctx.Get(n.Name)
	if !ok {
		return nil
	}
	rows, err := v.Elements()
	if err != nil {
		// A loop var that isn't a sequence (e.g. a lone mapping) iterates
		// once over itself, matching a common HTML::Template convenience.
		if v.Kind() == value.KindMapping {
			rows = []value.Value{v}
		} else {
			return nil
		}
	}
	for i, row := range rows {
		inner := ctx.Clone()
		if opts.GlobalVars != nil {
			for _, k := range opts.GlobalVars.Keys() {
				gv, _ := opts.GlobalVars.Get(k)
				inner.Set(k, gv)
			}
		}
		if pairs, err := row.Pairs(); err == nil {
			for _, p := range pairs {
				inner.Set(p.Key, p.Value)
			}
		}
		if opts.LoopContextVars {
			inner.Set("__first__", value.NewBool(i == 0))
			inner.Set("__last__", value.NewBool(i == len(rows)-1))
			inner.Set("__odd__", value.NewBool(i%2 == 0))
			inner.Set("__counter__", value.NewNumber(float64(i+1)))
		}
		if err := renderNodes(w, n.Body, inner, opts); err != nil {
			return err
		}
	}
	return nil
}

func renderInclude(w *strings.Builder, n IncludeNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	for _, ldr := range opts.Loaders {
		tmpl, err := ldr.LoadTemplate(n.Name, opts.Directories)
		if err == nil {
			return tmpl.RenderToStream(w, ctx, opts)
		}
	}
	return wrapRenderError(n.Pos, "could not include "+n.Name, nil)
}

// urlEscape implements TMPL_VAR ESCAPE=URL: percent-encode everything
// outside the unreserved RFC 3986 set.
func urlEscape(s string) string {
	const hex = "0123456789ABCDEF"
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			out.WriteByte(c)
			continue
		}
		out.WriteByte('%')
		out.WriteByte(hex[c>>4])
		out.WriteByte(hex[c&0xf])
	}
	return out.String()
}
