package dialectd

import (
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

type parser struct {
	lex *lexer
}

// ParseTemplateSource parses dialect D source into its node tree. Expression
// content inside {{ }} is parsed here, so a syntactically invalid variable
// expression fails construction with a ParseError even inside a never-taken
// {% if %} branch. Tag arguments are kept as raw text and parsed only when
// the tag renders (evalArgExpr), so an invalid expression in a tag's
// arguments is reported as a render error, and not at all if the tag never
// renders.
func ParseTemplateSource(src, file string, markers Markers) ([]Node, error) {
	p := &parser{lex: newLexer(src, file, markers)}
	nodes, stopName, _, stopPos, err := p.parseUntil()
	if err != nil {
		return nil, err
	}
	if stopName != "" {
		return nil, newUnmatchedBlockError(stopPos, stopName, "unexpected end/intermediate tag with no opener: "+stopName)
	}
	return nodes, nil
}

func toTokenPos(p tmplopts.Position) tokenPos {
	return tokenPos{File: p.File, Line: p.Line, Col: p.Column}
}

// parseUntil reads nodes until EOF or until a {% tag %} whose name is one
// of stopWords is encountered (without consuming it into the node stream);
// it returns that tag's name/args/position so the caller (parseBlock) can
// drive clause-by-clause parsing.
func (p *parser) parseUntil(stopWords ...string) (nodes []Node, stopName, stopArgs string, stopPos tmplopts.Position, err error) {
	isStop := func(name string) bool {
		for _, w := range stopWords {
			if w == name {
				return true
			}
		}
		return false
	}
	for {
		tok, terr := p.lex.next()
		if terr != nil {
			return nil, "", "", tmplopts.Position{}, terr
		}
		switch tok.kind {
		case tokEOF:
			if len(stopWords) > 0 {
				return nil, "", "", tmplopts.Position{}, newUnmatchedBlockError(tok.pos, strings.Join(stopWords, "/"), "unclosed block: expected one of "+strings.Join(stopWords, ", "))
			}
			return nodes, "", "", tmplopts.Position{}, nil
		case tokText:
			nodes = append(nodes, TextNode{Text: tok.text})
		case tokComment:
			nodes = append(nodes, CommentNode{})
		case tokVar:
			pe, perr := parsePipeline(tok.text, p.lex.file)
			if perr != nil {
				return nil, "", "", tmplopts.Position{}, perr
			}
			nodes = append(nodes, VarNode{Pipeline: pe, Pos: toTokenPos(tok.pos)})
		case tokTag:
			name, args := splitTagName(tok.text)
			if isStop(name) {
				return nodes, name, args, tok.pos, nil
			}
			if def, ok := blockTags[name]; ok {
				node, berr := p.parseBlock(name, args, tok.pos, def)
				if berr != nil {
					return nil, "", "", tmplopts.Position{}, berr
				}
				nodes = append(nodes, node)
				continue
			}
			nodes = append(nodes, TagNode{Name: name, Args: args, Pos: toTokenPos(tok.pos)})
		}
	}
}

func (p *parser) parseBlock(name, args string, pos tmplopts.Position, def blockTagDef) (Node, error) {
	node := TagNode{Name: name, Args: args, Pos: toTokenPos(pos)}
	if def.raw {
		raw, err := p.lex.skipRawUntil(def.endTag)
		if err != nil {
			return nil, err
		}
		if name == "verbatim" {
			node.Body = []Node{TextNode{Text: raw}}
		}
		return node, nil
	}
	stops := append(append([]string{}, def.intermediates...), def.endTag)
	body, stopName, stopArgs, stopPos, err := p.parseUntil(stops...)
	if err != nil {
		return nil, err
	}
	node.Body = body
	for stopName != def.endTag {
		keyword, kargs, kpos := stopName, stopArgs, stopPos
		cbody, nextName, nextArgs, nextPos, cerr := p.parseUntil(stops...)
		if cerr != nil {
			return nil, cerr
		}
		node.Clauses = append(node.Clauses, Clause{Keyword: keyword, Args: kargs, Pos: toTokenPos(kpos), Body: cbody})
		stopName, stopArgs, stopPos = nextName, nextArgs, nextPos
	}
	return node, nil
}

func splitTagName(text string) (name, args string) {
	text = strings.TrimSpace(text)
	i := strings.IndexAny(text, " \t\n")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}
