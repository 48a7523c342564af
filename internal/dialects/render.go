package dialects

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// renderState holds the config directive's per-render, mutable settings
// (errmsg/timefmt/sizefmt), seeded from Options and never written back to
// it -- a render never mutates the shared Options.
type renderState struct {
	errMsg  string
	timeFmt string
	sizeFmt string // "bytes" or "abbrev"
}

func newRenderState(opts *tmplopts.Options) *renderState {
	return &renderState{errMsg: opts.ErrorMessage, timeFmt: opts.TimeFormat, sizeFmt: "bytes"}
}

func renderNodes(w *strings.Builder, nodes []Node, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	for _, n := range nodes {
		if err := renderNode(w, n, ctx, opts, rs); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(w *strings.Builder, n Node, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	switch v := n.(type) {
	case TextNode:
		w.WriteString(v.Text)
		return nil
	case IfNode:
		return renderIf(w, v, ctx, opts, rs)
	case Directive:
		return renderDirective(w, v, ctx, opts, rs)
	default:
		return nil
	}
}

func renderIf(w *strings.Builder, n IfNode, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	for _, b := range n.Branches {
		if b.Cond == nil {
			return renderNodes(w, b.Body, ctx, opts, rs)
		}
		ok, err := evalSExpr(b.Cond, ctx, opts, rs)
		if err != nil {
			return fail(opts, rs, w, n.Pos, "if condition failed", err)
		}
		if ok {
			return renderNodes(w, b.Body, ctx, opts, rs)
		}
	}
	return nil
}

func fail(opts *tmplopts.Options, rs *renderState, w *strings.Builder, pos sPos, msg string, cause error) error {
	if opts.ThrowOnErrors {
		return wrapRenderError(pos, msg, cause)
	}
	w.WriteString(rs.errMsg)
	return nil
}

func renderDirective(w *strings.Builder, d Directive, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	switch d.Name {
	case "set":
		return renderSet(d, ctx, opts, rs)
	case "echo":
		return renderEcho(w, d, ctx, opts, rs)
	case "include":
		return renderInclude(w, d, ctx, opts, rs)
	case "exec":
		// Running a host process is out of scope (no host-language
		// bindings, no CLI); always degrades to the error message,
		// matching Apache's "exec disabled" behavior.
		return fail(opts, rs, w, d.Pos, "exec is disabled", nil)
	case "fsize":
		return renderFsize(w, d, ctx, opts, rs)
	case "flastmod":
		// No mtime capability exists on tmplopts.Loader (by design: the
		// loader is bytes/template/library only), so flastmod always
		// reports the configured error message.
		return fail(opts, rs, w, d.Pos, "flastmod unsupported: loader exposes no modification time", nil)
	case "config":
		renderConfig(d, rs)
		return nil
	case "printenv":
		renderPrintenv(w, ctx)
		return nil
	default:
		return fail(opts, rs, w, d.Pos, "unknown directive "+d.Name, nil)
	}
}

func renderSet(d Directive, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	name, ok := attrValue(d.Attrs, "var")
	if !ok {
		return newParseErrorf(d.Pos, "set missing var attribute")
	}
	raw, _ := attrValue(d.Attrs, "value")
	ctx.Set(name, value.NewString(interpolate(raw, ctx, opts, rs)))
	return nil
}

func renderEcho(w *strings.Builder, d Directive, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	name, ok := attrValue(d.Attrs, "var")
	if !ok {
		return newParseErrorf(d.Pos, "echo missing var attribute")
	}
	w.WriteString(lookupVariable(name, ctx, opts, rs))
	return nil
}

func renderInclude(w *strings.Builder, d Directive, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	name, ok := attrValue(d.Attrs, "file")
	if !ok {
		name, ok = attrValue(d.Attrs, "virtual")
	}
	if !ok {
		return newParseErrorf(d.Pos, "include missing file/virtual attribute")
	}
	name = interpolate(name, ctx, opts, rs)
	for _, ldr := range opts.Loaders {
		b, err := ldr.LoadBytes(name, opts.Directories)
		if err == nil {
			w.Write(b)
			return nil
		}
	}
	return fail(opts, rs, w, d.Pos, "could not include "+name, nil)
}

func renderFsize(w *strings.Builder, d Directive, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	name, ok := attrValue(d.Attrs, "file")
	if !ok {
		name, ok = attrValue(d.Attrs, "virtual")
	}
	if !ok {
		return newParseErrorf(d.Pos, "fsize missing file/virtual attribute")
	}
	name = interpolate(name, ctx, opts, rs)
	for _, ldr := range opts.Loaders {
		b, err := ldr.LoadBytes(name, opts.Directories)
		if err == nil {
			if rs.sizeFmt == "abbrev" {
				w.WriteString(abbrevSize(len(b)))
			} else {
				w.WriteString(strconv.Itoa(len(b)))
			}
			return nil
		}
	}
	return fail(opts, rs, w, d.Pos, "could not stat "+name, nil)
}

func abbrevSize(n int) string {
	switch {
	case n >= 1<<30:
		return strconv.FormatFloat(float64(n)/(1<<30), 'f', 1, 64) + "G"
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + "M"
	case n >= 1<<10:
		return strconv.FormatFloat(float64(n)/(1<<10), 'f', 1, 64) + "k"
	default:
		return strconv.Itoa(n)
	}
}

func renderConfig(d Directive, rs *renderState) {
	if v, ok := attrValue(d.Attrs, "errmsg"); ok {
		rs.errMsg = v
	}
	if v, ok := attrValue(d.Attrs, "timefmt"); ok {
		rs.timeFmt = v
	}
	if v, ok := attrValue(d.Attrs, "sizefmt"); ok {
		rs.sizeFmt = v
	}
}

func renderPrintenv(w *strings.Builder, ctx *tmplopts.Context) {
	for _, k := range ctx.Keys() {
		v, _ := ctx.Get(k)
		w.WriteString(k)
		w.WriteString("=")
		w.WriteString(v.String())
		w.WriteString("\n")
	}
}
