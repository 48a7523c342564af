package dialectt

// parser builds the Node tree from the flat token stream produced by
// tokenize, mirroring dialectd's hand-written recursive-descent top-level
// parser rather than reusing the generic grammar kernel (that PEG kernel
// is reserved for dialect D's expression grammar).
type parser struct {
	toks []rawToken
	pos  int
}

// ParseSource compiles dialect T source under name.
func ParseSource(src, name string) ([]Node, error) {
	toks, err := tokenize(src, name)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	nodes, err := p.parseUntil()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		t := p.toks[p.pos]
		return nil, newParseErrorf(t.pos, "unmatched closing TMPL_%s", t.name)
	}
	return nodes, nil
}

// parseUntil parses nodes until end of input or a closing tag whose name is
// in stop, leaving that closing tag unconsumed for the caller to inspect; a
// closing tag not in stop is a ParseError.
func (p *parser) parseUntil(stop ...string) ([]Node, error) {
	var nodes []Node
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.kind == tokClose {
			if contains(stop, t.name) {
				return nodes, nil
			}
			return nodes, newParseErrorf(t.pos, "unexpected closing TMPL_%s", t.name)
		}
		if t.kind == tokText {
			nodes = append(nodes, TextNode{Text: t.text})
			p.pos++
			continue
		}
		n, err := p.parseOpen(t)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (p *parser) parseOpen(t rawToken) (Node, error) {
	switch t.name {
	case "VAR":
		p.pos++
		return p.buildVar(t), nil
	case "INCLUDE":
		p.pos++
		name, _ := tagName(t.attrs, true)
		return IncludeNode{Name: name, Pos: t.pos}, nil
	case "IF":
		return p.parseConditional(t, false)
	case "UNLESS":
		return p.parseConditional(t, true)
	case "LOOP":
		return p.parseLoop(t)
	default:
		return nil, newParseErrorf(t.pos, "unknown tag TMPL_%s", t.name)
	}
}

func (p *parser) buildVar(t rawToken) Node {
	name, _ := tagName(t.attrs, true)
	def, _ := attrValue(t.attrs, "default")
	esc := EscapeNone
	if ev, ok := attrValue(t.attrs, "escape"); ok {
		switch ev {
		case "HTML", "html", "1":
			esc = EscapeHTML
		case "URL", "url":
			esc = EscapeURL
		}
	}
	return VarNode{Name: name, Default: def, Escape: esc, Pos: t.pos}
}

// parseConditional parses the body of TMPL_IF/TMPL_UNLESS up to its closing
// tag, splitting on a bare TMPL_ELSE marker. TMPL_ELSE has no closing tag of
// its own (it is a marker, not a container), so it can't be handled by the
// generic close-tag stop mechanism parseUntil uses elsewhere.
func (p *parser) parseConditional(open rawToken, negate bool) (Node, error) {
	p.pos++
	name, ok := tagName(open.attrs, true)
	if !ok {
		return nil, newParseErrorf(open.pos, "TMPL_%s missing NAME attribute", open.name)
	}
	var body, elseBody []Node
	cur := &body
	for {
		if p.pos >= len(p.toks) {
			return nil, newParseErrorf(open.pos, "unterminated TMPL_%s", open.name)
		}
		t := p.toks[p.pos]
		if t.kind == tokOpen && t.name == "ELSE" {
			if cur == &elseBody {
				return nil, newParseErrorf(t.pos, "duplicate TMPL_ELSE in TMPL_%s", open.name)
			}
			p.pos++
			cur = &elseBody
			continue
		}
		if t.kind == tokClose && t.name == open.name {
			p.pos++
			break
		}
		if t.kind == tokClose {
			return nil, newParseErrorf(t.pos, "unexpected closing TMPL_%s", t.name)
		}
		if t.kind == tokText {
			*cur = append(*cur, TextNode{Text: t.text})
			p.pos++
			continue
		}
		n, err := p.parseOpen(t)
		if err != nil {
			return nil, err
		}
		*cur = append(*cur, n)
	}
	return IfNode{Name: name, Negate: negate, Body: body, ElseBody: elseBody, Pos: open.pos}, nil
}

func (p *parser) parseLoop(open rawToken) (Node, error) {
	p.pos++
	name, ok := tagName(open.attrs, true)
	if !ok {
		return nil, newParseErrorf(open.pos, "TMPL_LOOP missing NAME attribute")
	}
	body, err := p.parseUntil("LOOP")
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.toks) || p.toks[p.pos].name != "LOOP" {
		return nil, newParseErrorf(open.pos, "unterminated TMPL_LOOP")
	}
	p.pos++
	return LoopNode{Name: name, Body: body, Pos: open.pos}, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
