package dialectd

import (
	"io"
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// TagFunc is the signature a library-loaded tag handler must satisfy
// (opts.LoadedTags, populated by {% load %}); type-asserted back out of
// the `any` storage tmplopts.Library/Options use to avoid an import cycle.
type TagFunc func(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool) error

func lookupTag(name string, opts *tmplopts.Options) (TagFunc, bool) {
	if opts != nil {
		if raw, ok := opts.LoadedTags[name]; ok {
			if fn, ok := raw.(TagFunc); ok {
				return fn, true
			}
		}
	}
	return nil, false
}

// renderState carries the per-render, per-tag-position mutable bookkeeping
// that {% cycle %} and {% ifchanged %} need across loop iterations. It is
// fresh for every top-level Render* call (never shared across renders)
// and keyed by source position rather than node identity, since the same
// syntactic tag is revisited by value on every iteration of an enclosing
// {% for %}.
type renderState struct {
	cycles     map[string]*cycleState
	ifchanged  map[string]string
}

func newRenderState() *renderState {
	return &renderState{cycles: map[string]*cycleState{}, ifchanged: map[string]string{}}
}

func posKey(p tokenPos) string {
	return p.File + ":" + itoa(p.Line) + ":" + itoa(p.Col)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Template is dialect D's compiled template: a node tree plus the logical
// name it was parsed under (used for circular-extends detection and error
// positions).
type Template struct {
	nodes   []Node
	name    string
	markers Markers
}

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
	if err := renderTemplate(t, ctx, opts, &b); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderTemplate(t *Template, ctx *tmplopts.Context, opts *tmplopts.Options, w *strings.Builder) error {
	rs := newRenderState()
	if extNode := findTopLevelExtends(t.nodes); extNode != nil {
		return renderExtends(t, extNode, ctx, opts, w, rs)
	}
	return walkNodes(w, t.nodes, ctx, opts, opts.Autoescape, rs)
}

func findTopLevelExtends(nodes []Node) *TagNode {
	for _, n := range nodes {
		if tn, ok := n.(TagNode); ok && tn.Name == "extends" {
			return &tn
		}
	}
	return nil
}

func renderExtends(t *Template, extNode *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, w *strings.Builder, rs *renderState) error {
	pe, err := parsePipeline(extNode.Args, t.name)
	if err != nil {
		return err
	}
	nameVal, err := evaluatePipeline(pe, ctx, opts)
	if err != nil {
		return err
	}
	parentName := nameVal.String()

	if err := opts.PushExtends(t.name); err != nil {
		return wrapRenderError(tmplopts.Position{File: t.name}, "extends failed", err)
	}
	defer opts.PopExtends()

	collectBlocks(t.nodes, opts)

	var parent tmplopts.Template
	var loadErr error
	for _, ldr := range opts.Loaders {
		parent, loadErr = ldr.LoadTemplate(parentName, opts.Directories)
		if loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		return wrapRenderError(tmplopts.Position{File: t.name}, "could not load parent template "+parentName, loadErr)
	}
	return parent.RenderToStream(w, ctx, opts)
}

// collectBlocks registers every {% block %} tag reachable from nodes
// (recursing into all branches, not just the primary body, since a block
// can legally sit inside an {% if %} or {% for %}) into the current
// extends frame.
func collectBlocks(nodes []Node, opts *tmplopts.Options) {
	for _, n := range nodes {
		tn, ok := n.(TagNode)
		if !ok {
			continue
		}
		if tn.Name == "block" {
			opts.SetBlock(strings.TrimSpace(tn.Args), tagPtr(tn))
		}
		collectBlocks(tn.Body, opts)
		for _, c := range tn.Clauses {
			collectBlocks(c.Body, opts)
		}
	}
}

func tagPtr(tn TagNode) *TagNode { return &tn }

func walkNodes(w *strings.Builder, nodes []Node, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	for _, n := range nodes {
		if err := walkNode(w, n, ctx, opts, autoescape, rs); err != nil {
			return err
		}
	}
	return nil
}

func walkNode(w *strings.Builder, n Node, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	switch v := n.(type) {
	case TextNode:
		w.WriteString(v.Text)
		return nil
	case CommentNode:
		return nil
	case VarNode:
		return renderVar(w, v, ctx, opts, autoescape)
	case TagNode:
		return renderTag(w, &v, ctx, opts, autoescape, rs)
	default:
		return nil
	}
}

func renderVar(w *strings.Builder, n VarNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool) error {
	v, err := evaluatePipeline(n.Pipeline, ctx, opts)
	if err != nil {
		return wrapRenderError(tmplopts.Position{Line: n.Pos.Line, Column: n.Pos.Col, File: n.Pos.File}, "variable evaluation failed", err)
	}
	s := v.String()
	if autoescape && !v.IsSafe() {
		s = value.EscapeString(s)
	}
	w.WriteString(s)
	return nil
}

func renderTag(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	if fn, ok := lookupTag(n.Name, opts); ok {
		return fn(w, n, ctx, opts, autoescape)
	}
	switch n.Name {
	case "extends":
		// Handled up front by renderTemplate/renderExtends; a non-top-level
		// or second extends tag is simply inert.
		return nil
	case "if":
		return renderIf(w, n, ctx, opts, autoescape, rs)
	case "ifequal":
		return renderIfEqual(w, n, ctx, opts, autoescape, rs, false)
	case "ifnotequal":
		return renderIfEqual(w, n, ctx, opts, autoescape, rs, true)
	case "ifchanged":
		return renderIfChanged(w, n, ctx, opts, autoescape, rs)
	case "for":
		return renderFor(w, n, ctx, opts, autoescape, rs)
	case "with":
		return renderWith(w, n, ctx, opts, autoescape, rs)
	case "block":
		return renderBlock(w, n, ctx, opts, autoescape, rs)
	case "filter":
		return renderFilterTag(w, n, ctx, opts, autoescape, rs)
	case "spaceless":
		return renderSpaceless(w, n, ctx, opts, autoescape, rs)
	case "autoescape":
		return renderAutoescape(w, n, ctx, opts, rs)
	case "comment":
		return nil
	case "verbatim":
		if len(n.Body) > 0 {
			if t, ok := n.Body[0].(TextNode); ok {
				w.WriteString(t.Text)
			}
		}
		return nil
	case "blocktrans":
		return renderBlocktrans(w, n, ctx, opts, autoescape)
	case "include":
		return renderInclude(w, n, ctx, opts)
	case "ssi":
		return renderSSI(w, n, ctx, opts)
	case "load":
		return renderLoad(n, opts)
	case "now":
		return renderNow(w, n, opts)
	case "firstof":
		return renderFirstof(w, n, ctx, opts, autoescape)
	case "cycle":
		return renderCycle(w, n, ctx, opts, rs)
	case "widthratio":
		return renderWidthratio(w, n, ctx, opts)
	case "regroup":
		return renderRegroup(n, ctx, opts)
	case "templatetag":
		return renderTemplatetag(w, n, opts)
	case "trans":
		return renderTrans(w, n, ctx, opts, autoescape)
	case "url":
		return renderURL(w, n, ctx, opts)
	case "csrf_token":
		return renderCSRFToken(w, ctx)
	case "debug":
		return renderDebug(w, ctx, opts)
	default:
		return &tmplopts.MissingTagError{Name: n.Name}
	}
}
