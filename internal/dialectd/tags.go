package dialectd

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// evalArgExpr parses and evaluates a bare tag-argument expression (not a
// full pipeline with filters), the form most block-tag arguments take:
// {% if %}, {% ifequal %}, {% with %}'s right-hand sides.
func evalArgExpr(src, file string, ctx *tmplopts.Context, opts *tmplopts.Options) (value.Value, error) {
	pe, err := parsePipeline(src, file)
	if err != nil {
		return value.None, err
	}
	return evaluatePipeline(pe, ctx, opts)
}

func renderIf(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	branches := []Clause{{Keyword: "if", Args: n.Args, Pos: n.Pos, Body: n.Body}}
	branches = append(branches, n.Clauses...)
	for _, b := range branches {
		if b.Keyword == "else" {
			return walkNodes(w, b.Body, ctx, opts, autoescape, rs)
		}
		v, err := evalArgExpr(b.Args, b.Pos.File, ctx, opts)
		if err != nil {
			return wrapRenderError(tmplopts.Position{File: b.Pos.File, Line: b.Pos.Line, Column: b.Pos.Col}, "if condition failed", err)
		}
		if v.Test() {
			return walkNodes(w, b.Body, ctx, opts, autoescape, rs)
		}
	}
	return nil
}

func renderIfEqual(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState, negate bool) error {
	args := splitArgs(n.Args)
	if len(args) != 2 {
		return &tmplopts.MissingArgumentError{Name: "ifequal expects exactly two arguments"}
	}
	left, err := evalArgExpr(args[0], n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	right, err := evalArgExpr(args[1], n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	match := left.Equal(right)
	if negate {
		match = !match
	}
	if match {
		return walkNodes(w, n.Body, ctx, opts, autoescape, rs)
	}
	for _, c := range n.Clauses {
		if c.Keyword == "else" {
			return walkNodes(w, c.Body, ctx, opts, autoescape, rs)
		}
	}
	return nil
}

func renderIfChanged(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	key := posKey(n.Pos)
	var watch string
	if strings.TrimSpace(n.Args) != "" {
		for _, a := range splitArgs(n.Args) {
			v, err := evalArgExpr(a, n.Pos.File, ctx, opts)
			if err != nil {
				return err
			}
			watch += "\x00" + v.String()
		}
	} else {
		var body strings.Builder
		if err := walkNodes(&body, n.Body, ctx, opts, autoescape, rs); err != nil {
			return err
		}
		watch = body.String()
		if prev, ok := rs.ifchanged[key]; !ok || prev != watch {
			rs.ifchanged[key] = watch
			w.WriteString(watch)
			return nil
		}
		for _, c := range n.Clauses {
			if c.Keyword == "else" {
				return walkNodes(w, c.Body, ctx, opts, autoescape, rs)
			}
		}
		return nil
	}
	if prev, ok := rs.ifchanged[key]; !ok || prev != watch {
		rs.ifchanged[key] = watch
		return walkNodes(w, n.Body, ctx, opts, autoescape, rs)
	}
	for _, c := range n.Clauses {
		if c.Keyword == "else" {
			return walkNodes(w, c.Body, ctx, opts, autoescape, rs)
		}
	}
	return nil
}

// loopContext is the "forloop" mapping exposed inside {% for %}, matching
// Django's counter/counter0/revcounter/revcounter0/first/last/parentloop.
func loopContext(i, n int, parent value.Value) value.Value {
	return value.NewMapping([]value.Pair{
		{Key: "counter", Value: value.NewNumber(float64(i + 1))},
		{Key: "counter0", Value: value.NewNumber(float64(i))},
		{Key: "revcounter", Value: value.NewNumber(float64(n - i))},
		{Key: "revcounter0", Value: value.NewNumber(float64(n - i - 1))},
		{Key: "first", Value: value.NewBool(i == 0)},
		{Key: "last", Value: value.NewBool(i == n-1)},
		{Key: "parentloop", Value: parent},
	})
}

func renderFor(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	args := strings.TrimSpace(n.Args)
	reversed := false
	if strings.HasSuffix(args, " reversed") {
		reversed = true
		args = strings.TrimSpace(strings.TrimSuffix(args, "reversed"))
	}
	inIdx := strings.Index(args, " in ")
	if inIdx < 0 {
		return &tmplopts.MissingArgumentError{Name: "for expects 'vars in expr'"}
	}
	varsPart := strings.TrimSpace(args[:inIdx])
	exprPart := strings.TrimSpace(args[inIdx+4:])
	loopVars := strings.Split(varsPart, ",")
	for i := range loopVars {
		loopVars[i] = strings.TrimSpace(loopVars[i])
	}

	seqVal, err := evalArgExpr(exprPart, n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	it, err := seqVal.Begin()
	if err != nil || it.Remaining() == 0 {
		for _, c := range n.Clauses {
			if c.Keyword == "empty" {
				return walkNodes(w, c.Body, ctx, opts, autoescape, rs)
			}
		}
		return nil
	}

	var items []value.Value
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		items = append(items, v)
	}
	if reversed {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	// The loop variables (and forloop) are scoped to the loop body, the
	// same way {% with %} scopes its bindings: save whatever each name was
	// bound to before the loop (if anything) and restore it afterward, so
	// a {% for %} can never leak its last iteration's value or clobber an
	// outer binding of the same name.
	parentLoop, _ := ctx.Get("forloop")
	saved := map[string]value.Value{}
	existed := map[string]bool{}
	for _, name := range loopVars {
		if old, ok := ctx.Get(name); ok {
			saved[name] = old
			existed[name] = true
		}
	}
	defer func() {
		for _, name := range loopVars {
			if existed[name] {
				ctx.Set(name, saved[name])
			} else {
				ctx.Delete(name)
			}
		}
		if parentLoop.Kind() != value.KindNone {
			ctx.Set("forloop", parentLoop)
		} else {
			ctx.Delete("forloop")
		}
	}()

	for i, item := range items {
		if len(loopVars) == 1 {
			ctx.Set(loopVars[0], item)
		} else if pairs, perr := item.Elements(); perr == nil {
			for j, name := range loopVars {
				if j < len(pairs) {
					ctx.Set(name, pairs[j])
				}
			}
		} else {
			ctx.Set(loopVars[0], item)
		}
		ctx.Set("forloop", loopContext(i, len(items), parentLoop))
		if err := walkNodes(w, n.Body, ctx, opts, autoescape, rs); err != nil {
			return err
		}
	}
	return nil
}

func renderWith(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	type binding struct {
		name string
		val  value.Value
	}
	var bindings []binding
	args := strings.TrimSpace(n.Args)
	// Django supports both the modern, space-separated `name=value` form
	// (one or more bindings) and the older single-binding `value as name`
	// form; only the first ever carries a top-level "=" token, so that's
	// what distinguishes them.
	if asIdx := strings.Index(args, " as "); asIdx >= 0 && !strings.Contains(args, "=") {
		exprPart := strings.TrimSpace(args[:asIdx])
		name := strings.TrimSpace(args[asIdx+4:])
		v, err := evalArgExpr(exprPart, n.Pos.File, ctx, opts)
		if err != nil {
			return err
		}
		bindings = append(bindings, binding{name: name, val: v})
	} else {
		for _, clause := range splitArgs(args) {
			eqIdx := strings.Index(clause, "=")
			if eqIdx <= 0 {
				continue
			}
			name := clause[:eqIdx]
			v, err := evalArgExpr(clause[eqIdx+1:], n.Pos.File, ctx, opts)
			if err != nil {
				return err
			}
			bindings = append(bindings, binding{name: name, val: v})
		}
	}
	saved := map[string]value.Value{}
	existed := map[string]bool{}
	for _, b := range bindings {
		if old, ok := ctx.Get(b.name); ok {
			saved[b.name] = old
			existed[b.name] = true
		}
		ctx.Set(b.name, b.val)
	}
	defer func() {
		for _, b := range bindings {
			if existed[b.name] {
				ctx.Set(b.name, saved[b.name])
			} else {
				ctx.Delete(b.name)
			}
		}
	}()
	return walkNodes(w, n.Body, ctx, opts, autoescape, rs)
}

// renderBlock renders name's block content, cascading block.super through
// every ancestor override (not just the immediate one): the base template's
// body renders first, then each override up to the most-derived one renders
// in turn with block.super bound to the previous level's output, so a
// 3-level {% extends %} chain's block.super resolves to the next-more-
// derived ancestor's rendered override rather than jumping straight to the
// root template's original content.
func renderBlock(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	name := strings.TrimSpace(n.Args)
	chain := []*TagNode{n}
	for _, override := range opts.FindBlockChain(name) {
		if tn, ok := override.(*TagNode); ok && tn != n {
			chain = append(chain, tn)
		}
	}
	if len(chain) == 1 {
		return walkNodes(w, n.Body, ctx, opts, autoescape, rs)
	}

	prevSuper, hadSuper := ctx.Get("block.super")
	defer func() {
		if hadSuper {
			ctx.Set("block.super", prevSuper)
		} else {
			ctx.Delete("block.super")
		}
	}()

	var base strings.Builder
	if err := walkNodes(&base, chain[0].Body, ctx, opts, autoescape, rs); err != nil {
		return err
	}
	rendered := base.String()
	for i := 1; i < len(chain)-1; i++ {
		ctx.Set("block.super", value.NewString(rendered).MarkSafe())
		var level strings.Builder
		if err := walkNodes(&level, chain[i].Body, ctx, opts, autoescape, rs); err != nil {
			return err
		}
		rendered = level.String()
	}
	ctx.Set("block.super", value.NewString(rendered).MarkSafe())
	return walkNodes(w, chain[len(chain)-1].Body, ctx, opts, autoescape, rs)
}

func renderFilterTag(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	var buf strings.Builder
	if err := walkNodes(&buf, n.Body, ctx, opts, autoescape, rs); err != nil {
		return err
	}
	v := value.NewString(buf.String())
	for _, fname := range strings.Split(n.Args, "|") {
		fname = strings.TrimSpace(fname)
		if fname == "" {
			continue
		}
		name, argSrc, hasArg := fname, "", false
		if i := strings.Index(fname, ":"); i >= 0 {
			name, argSrc, hasArg = fname[:i], fname[i+1:], true
		}
		fn, ok := lookupFilter(name, opts)
		if !ok {
			return &tmplopts.MissingFilterError{Name: name}
		}
		var arg value.Value
		if hasArg {
			var err error
			arg, err = evalArgExpr(argSrc, n.Pos.File, ctx, opts)
			if err != nil {
				return err
			}
		}
		var err error
		v, err = fn(v, arg, hasArg, opts)
		if err != nil {
			return err
		}
	}
	w.WriteString(v.String())
	return nil
}

var spacelessCollapseRx = regexp.MustCompile(`>\s+<`)

func renderSpaceless(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool, rs *renderState) error {
	var buf strings.Builder
	if err := walkNodes(&buf, n.Body, ctx, opts, autoescape, rs); err != nil {
		return err
	}
	w.WriteString(spacelessCollapseRx.ReplaceAllString(buf.String(), "><"))
	return nil
}

func renderAutoescape(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	on := strings.TrimSpace(n.Args) != "off"
	return walkNodes(w, n.Body, ctx, opts, on, rs)
}

func renderBlocktrans(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool) error {
	// Translation itself is out of scope (no host-language bindings, spec
	// non-goals); blocktrans renders its body as-is with var interpolation.
	return walkNodes(w, n.Body, ctx, opts, autoescape, newRenderState())
}

func renderTrans(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool) error {
	args := splitArgs(n.Args)
	if len(args) == 0 {
		return nil
	}
	s := strings.Trim(strings.TrimSpace(args[0]), `"'`)
	asName := ""
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "as" {
			asName = args[i+1]
		}
	}
	if asName != "" {
		ctx.Set(asName, value.NewString(s))
		return nil
	}
	if autoescape {
		s = value.EscapeString(s)
	}
	w.WriteString(s)
	return nil
}

func renderInclude(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	args := splitArgs(n.Args)
	if len(args) == 0 {
		return &tmplopts.MissingArgumentError{Name: "include"}
	}
	nameVal, err := evalArgExpr(args[0], n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	name := nameVal.String()

	// "with" introduces extra bindings; "only" (in either order, and with
	// or without a preceding "with") restricts the include to just those
	// bindings instead of the caller's full context.
	var withArgs []string
	only := false
	for _, a := range args[1:] {
		switch a {
		case "only":
			only = true
		case "with":
			// marker only, bindings follow as their own args
		default:
			withArgs = append(withArgs, a)
		}
	}

	childCtx := ctx
	switch {
	case only:
		childCtx = ctx.NewEmpty()
	case len(withArgs) > 0:
		childCtx = ctx.Clone()
	}
	for _, kv := range withArgs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		v, err := evalArgExpr(parts[1], n.Pos.File, ctx, opts)
		if err != nil {
			return err
		}
		childCtx.Set(parts[0], v)
	}
	for _, ldr := range opts.Loaders {
		tmpl, lerr := ldr.LoadTemplate(name, opts.Directories)
		if lerr != nil {
			continue
		}
		s, rerr := tmpl.RenderToString(childCtx, opts)
		if rerr != nil {
			return rerr
		}
		w.WriteString(s)
		return nil
	}
	return wrapRenderError(tmplopts.Position{File: n.Pos.File, Line: n.Pos.Line, Column: n.Pos.Col}, "could not load included template "+name, &tmplopts.MissingArgumentError{Name: name})
}

func renderSSI(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	args := splitArgs(n.Args)
	if len(args) == 0 {
		return &tmplopts.MissingArgumentError{Name: "ssi"}
	}
	path := strings.Trim(args[0], `"'`)
	for _, ldr := range opts.Loaders {
		b, err := ldr.LoadBytes(path, opts.Directories)
		if err != nil {
			continue
		}
		w.Write(b)
		return nil
	}
	return nil
}

func renderLoad(n *TagNode, opts *tmplopts.Options) error {
	args := splitArgs(n.Args)
	if len(args) == 0 {
		return &tmplopts.MissingArgumentError{Name: "load"}
	}
	fromIdx := -1
	for i, a := range args {
		if a == "from" {
			fromIdx = i
			break
		}
	}
	var libNames []string
	var wantNames []string
	if fromIdx >= 0 {
		wantNames = args[:fromIdx]
		libNames = args[fromIdx+1:]
	} else {
		libNames = args
	}
	for _, libName := range libNames {
		var lib *tmplopts.Library
		var found bool
		for _, ldr := range opts.Loaders {
			l, ok, err := ldr.LoadLibrary(libName)
			if err == nil && ok {
				lib, found = l, true
				break
			}
		}
		if !found {
			if l, ok := opts.Libraries[libName]; ok {
				lib, found = l, true
			}
		}
		if !found {
			return &tmplopts.MissingLibraryError{Name: libName}
		}
		if len(wantNames) > 0 {
			for _, want := range wantNames {
				if fn, ok := lib.Tags[want]; ok {
					opts.LoadedTags[want] = fn
				}
				if fn, ok := lib.Filters[want]; ok {
					opts.LoadedFilters[want] = fn
				}
			}
			continue
		}
		for name, fn := range lib.Tags {
			opts.LoadedTags[name] = fn
		}
		for name, fn := range lib.Filters {
			opts.LoadedFilters[name] = fn
		}
	}
	return nil
}

func renderNow(w *strings.Builder, n *TagNode, opts *tmplopts.Options) error {
	spec := strings.Trim(strings.TrimSpace(n.Args), `"'`)
	w.WriteString(formatDjangoDate(time.Now(), spec))
	return nil
}

func renderFirstof(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, autoescape bool) error {
	args := splitArgs(n.Args)
	asName := ""
	if len(args) >= 2 && args[len(args)-2] == "as" {
		asName = args[len(args)-1]
		args = args[:len(args)-2]
	}
	for _, a := range args {
		v, err := evalArgExpr(a, n.Pos.File, ctx, opts)
		if err != nil {
			return err
		}
		if v.Test() {
			s := v.String()
			if asName != "" {
				ctx.Set(asName, v)
				return nil
			}
			if autoescape && !v.IsSafe() {
				s = value.EscapeString(s)
			}
			w.WriteString(s)
			return nil
		}
	}
	if asName != "" {
		ctx.Set(asName, value.NewString(""))
	}
	return nil
}

// cycleState tracks one {% cycle %} tag's position in its value list across
// loop iterations.
type cycleState struct {
	values []value.Value
	pos    int
}

func renderCycle(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) error {
	args := splitArgs(n.Args)
	asName := ""
	if len(args) >= 2 && args[len(args)-2] == "as" {
		asName = args[len(args)-1]
		args = args[:len(args)-2]
	}
	if len(args) == 1 {
		if cs, ok := rs.cycles[args[0]]; ok {
			if len(cs.values) == 0 {
				return nil
			}
			v := cs.values[cs.pos%len(cs.values)]
			cs.pos++
			w.WriteString(v.String())
			return nil
		}
	}
	key := posKey(n.Pos)
	cs, ok := rs.cycles[key]
	if !ok {
		cs = &cycleState{}
		for _, a := range args {
			v, err := evalArgExpr(a, n.Pos.File, ctx, opts)
			if err != nil {
				return err
			}
			cs.values = append(cs.values, v)
		}
		rs.cycles[key] = cs
		if asName != "" {
			rs.cycles[asName] = cs
		}
	}
	if len(cs.values) == 0 {
		return nil
	}
	v := cs.values[cs.pos%len(cs.values)]
	cs.pos++
	if asName != "" {
		ctx.Set(asName, v)
	}
	w.WriteString(v.String())
	return nil
}

func renderWidthratio(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	args := splitArgs(n.Args)
	if len(args) != 3 {
		return &tmplopts.MissingArgumentError{Name: "widthratio expects value, max, max_width"}
	}
	val, err := evalArgExpr(args[0], n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	maxVal, err := evalArgExpr(args[1], n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	width, err := evalArgExpr(args[2], n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	v, _ := val.ToNumber()
	m, _ := maxVal.ToNumber()
	wd, _ := width.ToNumber()
	if m == 0 {
		w.WriteString("0")
		return nil
	}
	ratio := roundHalfToEven(v / m * wd)
	w.WriteString(strconv.FormatFloat(ratio, 'f', -1, 64))
	return nil
}

// roundHalfToEven matches Django's widthratio rounding (Python's round());
// math.Round is half-away-from-zero and would tie-break 0.5 differently.
func roundHalfToEven(f float64) float64 {
	floor := math.Floor(f)
	diff := f - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if math.Mod(floor, 2) == 0 {
			return floor
		}
		return floor + 1
	}
}

func renderRegroup(n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	args := splitArgs(n.Args)
	// Expected shape: "<expr> by <attr> as <name>"
	byIdx, asIdx := -1, -1
	for i, a := range args {
		if a == "by" && byIdx < 0 {
			byIdx = i
		}
		if a == "as" {
			asIdx = i
		}
	}
	if byIdx < 0 || asIdx < 0 || asIdx != len(args)-2 {
		return &tmplopts.MissingArgumentError{Name: "regroup expects 'expr by attr as name'"}
	}
	exprSrc := strings.Join(args[:byIdx], " ")
	attr := args[byIdx+1]
	name := args[asIdx+1]

	seqVal, err := evalArgExpr(exprSrc, n.Pos.File, ctx, opts)
	if err != nil {
		return err
	}
	elems, err := seqVal.Elements()
	if err != nil {
		ctx.Set(name, value.NewSequence(nil))
		return nil
	}
	var groups []value.Pair
	order := []string{}
	byKey := map[string][]value.Value{}
	for _, e := range elems {
		keyVal, kerr := e.MustGetAttribute(attr)
		if kerr != nil {
			keyVal = opts.DefaultValue
		}
		k := keyVal.String()
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], e)
	}
	for _, k := range order {
		groups = append(groups, value.Pair{Key: k, Value: value.NewMapping([]value.Pair{
			{Key: "grouper", Value: value.NewString(k)},
			{Key: "list", Value: value.NewSequence(byKey[k])},
		})})
	}
	seq := make([]value.Value, len(groups))
	for i, g := range groups {
		seq[i] = g.Value
	}
	ctx.Set(name, value.NewSequence(seq))
	return nil
}

var templateTagLiterals = map[string]string{
	"openblock": "{%", "closeblock": "%}",
	"openvariable": "{{", "closevariable": "}}",
	"openbrace": "{", "closebrace": "}",
	"opencomment": "{#", "closecomment": "#}",
}

func renderTemplatetag(w *strings.Builder, n *TagNode, opts *tmplopts.Options) error {
	w.WriteString(templateTagLiterals[strings.TrimSpace(n.Args)])
	return nil
}

func renderURL(w *strings.Builder, n *TagNode, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	args := splitArgs(n.Args)
	if len(args) == 0 {
		return &tmplopts.MissingArgumentError{Name: "url"}
	}
	name := strings.Trim(args[0], `"'`)
	asName := ""
	rest := args[1:]
	if len(rest) >= 2 && rest[len(rest)-2] == "as" {
		asName = rest[len(rest)-1]
		rest = rest[:len(rest)-2]
	}
	var urlArgs []string
	for _, a := range rest {
		v, err := evalArgExpr(a, n.Pos.File, ctx, opts)
		if err != nil {
			return err
		}
		urlArgs = append(urlArgs, v.String())
	}
	for _, r := range opts.Resolvers {
		resolved, err := r.Resolve(name, urlArgs)
		if err != nil {
			continue
		}
		if asName != "" {
			ctx.Set(asName, value.NewString(resolved))
			return nil
		}
		w.WriteString(resolved)
		return nil
	}
	if asName != "" {
		ctx.Set(asName, value.NewString(""))
		return nil
	}
	return &tmplopts.BadArgumentError{Expected: "a registered url resolver", Got: name}
}

func renderCSRFToken(w *strings.Builder, ctx *tmplopts.Context) error {
	token := uuid.NewString()
	fmt.Fprintf(w, `<input type="hidden" name="csrfmiddlewaretoken" value="%s">`, token)
	return nil
}

func renderDebug(w *strings.Builder, ctx *tmplopts.Context, opts *tmplopts.Options) error {
	if !opts.Debug {
		return nil
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"variable", "value"})
	for _, k := range ctx.Keys() {
		v, _ := ctx.Get(k)
		t.AppendRow(table.Row{k, v.String()})
	}
	w.WriteString(t.Render())
	w.WriteString("\n")
	return nil
}

// splitArgs splits a tag's argument string on whitespace, respecting quoted
// substrings so `"a b"` stays one token.
func splitArgs(s string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
