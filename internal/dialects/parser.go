package dialects

// conditionalDirectives are the names the structural parser recognizes as
// part of the `outside -> if -> elif* -> else? -> endif` state machine;
// every other directive name is a simple leaf node.
var conditionalDirectives = map[string]bool{
	"if": true, "elif": true, "else": true, "endif": true,
}

type parser struct {
	lex *lexer
}

// ParseSource parses dialect S source into its node tree.
func ParseSource(src, file string) ([]Node, error) {
	p := &parser{lex: newLexer(src, file)}
	nodes, stopName, _, stopPos, err := p.parseUntil()
	if err != nil {
		return nil, err
	}
	if stopName != "" {
		return nil, newParseErrorf(stopPos, "unexpected %s with no matching if", stopName)
	}
	return nodes, nil
}

// parseUntil reads nodes until EOF or a directive whose name is one of
// stopNames is encountered (without consuming it); it returns that
// directive's name/attrs/position.
func (p *parser) parseUntil(stopNames ...string) (nodes []Node, stopName string, stopAttrs []Attr, stopPos sPos, err error) {
	isStop := func(name string) bool {
		for _, w := range stopNames {
			if w == name {
				return true
			}
		}
		return false
	}
	for {
		tok, terr := p.lex.next()
		if terr != nil {
			return nil, "", nil, sPos{}, terr
		}
		switch tok.kind {
		case rawEOF:
			if len(stopNames) > 0 {
				return nil, "", nil, sPos{}, newParseErrorf(tok.pos, "unclosed if: expected one of %v", stopNames)
			}
			return nodes, "", nil, sPos{}, nil
		case rawText:
			nodes = append(nodes, TextNode{Text: tok.text})
		case rawDirective:
			name, attrs := parseDirectiveContent(tok.text)
			if isStop(name) {
				return nodes, name, attrs, tok.pos, nil
			}
			if name == "if" {
				ifNode, perr := p.parseIf(attrs, tok.pos)
				if perr != nil {
					return nil, "", nil, sPos{}, perr
				}
				nodes = append(nodes, ifNode)
				continue
			}
			if conditionalDirectives[name] {
				return nil, "", nil, sPos{}, newParseErrorf(tok.pos, "%s with no matching if", name)
			}
			nodes = append(nodes, Directive{Name: name, Attrs: attrs, Pos: tok.pos})
		}
	}
}

func (p *parser) parseIf(ifAttrs []Attr, ifPos sPos) (Node, error) {
	node := IfNode{Pos: ifPos}
	cond, err := attrExpr(ifAttrs, ifPos)
	if err != nil {
		return nil, err
	}
	body, stopName, stopAttrs, stopPos, err := p.parseUntil("elif", "else", "endif")
	if err != nil {
		return nil, err
	}
	node.Branches = append(node.Branches, Branch{Cond: cond, Body: body})

	for stopName == "elif" {
		elifCond, err := attrExpr(stopAttrs, stopPos)
		if err != nil {
			return nil, err
		}
		body, nextName, nextAttrs, nextPos, err := p.parseUntil("elif", "else", "endif")
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, Branch{Cond: elifCond, Body: body})
		stopName, stopAttrs, stopPos = nextName, nextAttrs, nextPos
	}
	if stopName == "else" {
		body, nextName, _, _, err := p.parseUntil("endif")
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, Branch{Cond: nil, Body: body})
		stopName = nextName
	}
	if stopName != "endif" {
		return nil, newParseErrorf(ifPos, "unclosed if: missing endif")
	}
	return node, nil
}

func attrExpr(attrs []Attr, pos sPos) (Expr, error) {
	raw, ok := attrValue(attrs, "expr")
	if !ok {
		return nil, newParseErrorf(pos, "missing expr attribute")
	}
	e, err := parseSExpr(raw)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.pos = pos
		}
		return nil, err
	}
	return e, nil
}
