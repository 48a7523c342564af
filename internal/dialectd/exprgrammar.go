package dialectd

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/grammar"
	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

// The expression grammar below is the parser-kernel half of dialect D:
// literal/link/chain/unary/binary/nested/expression/filter/pipeline,
// built from internal/grammar's combinators
// and tagged with the rule handles declared in grammar_rules.go. Template
// structure (text/var/tag scanning, block nesting) is handled separately
// by the hand-written lexer and tag parser; only the content of a {{ }}
// or the expression portion of a {% %} is run through this grammar.
var (
	exprRef grammar.Expr = &grammar.Ref{}

	wsExpr     = grammar.Rx(`[ \t\r\n]*`)
	identRx    = grammar.Rx(`[A-Za-z_][A-Za-z0-9_]*`)
	numberRx   = grammar.Rx(`-?(?:[0-9]+\.[0-9]+|[0-9]+)`)
	stringRx   = grammar.Rx(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)

	literalExpr  grammar.Expr
	linkExpr     grammar.Expr
	chainExpr    grammar.Expr
	filterExpr   grammar.Expr
	pipelineTop  grammar.Expr
)

func init() {
	ref := exprRef.(*grammar.Ref)

	noneLit := grammar.Node(ruleNoneLit, grammar.Rx(`None\b`))
	boolLit := grammar.Node(ruleBoolLit, grammar.Rx(`True\b|False\b`))
	superLit := grammar.Node(ruleSuperLit, grammar.Rx(`block\.super\b`))
	stringLit := grammar.Node(ruleStringLit, stringRx)
	numberLit := grammar.Node(ruleNumberLit, numberRx)
	variableLit := grammar.Node(ruleVariableLit, identRx)

	// Order matters: the keyword/literal forms must be tried before the
	// catch-all identifier so "None"/"True"/"False"/"block.super" are
	// never parsed as variable names.
	literalExpr = grammar.Alt(noneLit, boolLit, superLit, stringLit, numberLit, variableLit)

	dotLink := grammar.Node(ruleDotLink, grammar.Seq(grammar.Lit("."), grammar.Node(ruleIdent, identRx)))
	indexLink := grammar.Node(ruleIndexLink, grammar.Seq(grammar.Lit("["), wsExpr, ref, wsExpr, grammar.Lit("]")))
	linkExpr = grammar.Alt(dotLink, indexLink)

	chainExpr = grammar.Node(ruleChain, grammar.Seq(literalExpr, grammar.Star(linkExpr)))

	// Alternation order resolves "not in" vs "in" and "not" vs a bare
	// variable named similarly: the longer operator forms are tried first.
	binOp := grammar.Node(ruleBinOp, grammar.Rx(`==|!=|<=|>=|<|>|and\b|or\b|not\s+in\b|in\b`))

	unaryExpr := grammar.Node(ruleUnary, grammar.Seq(grammar.Rx(`not\b`), wsExpr, ref))
	binaryExpr := grammar.Node(ruleBinary, grammar.Seq(chainExpr, grammar.Star(grammar.Seq(wsExpr, binOp, wsExpr, ref))))
	nestedExpr := grammar.Node(ruleNested, grammar.Seq(grammar.Lit("("), wsExpr, ref, wsExpr, grammar.Lit(")")))

	// unary is tried first so "not <expr>" is never mistaken for a chain
	// starting with a variable literal named "not" (the none_literal-style
	// keywords are excluded from variable_literal only by convention of
	// spec usage, so ordering here is what actually enforces it).
	expression := grammar.Alt(unaryExpr, binaryExpr, nestedExpr)
	ref.Set(expression)

	filterName := grammar.Node(ruleFilterName, identRx)
	filterExpr = grammar.Node(ruleFilter, grammar.Seq(filterName, grammar.Opt(grammar.Seq(grammar.Lit(":"), chainExpr))))

	pipelineTop = grammar.Seq(wsExpr, ref, grammar.Star(grammar.Seq(wsExpr, grammar.Lit("|"), wsExpr, filterExpr)), wsExpr)
}

func toPosition(p grammar.Position) tmplopts.Position {
	return tmplopts.Position{File: p.File, Line: p.Line, Column: p.Column, Offset: p.Offset}
}

// parsePipeline parses one dialect D expression-with-filters: the content
// of a {{ }} variable, or the right-hand side of many tag arguments.
func parsePipeline(src, file string) (*PipelineExpr, error) {
	m, err := grammar.Parse(pipelineTop, src, file)
	if err != nil {
		pe := err.(*grammar.ParseError)
		return nil, newParseErrorf(toPosition(pe.Pos), "%s near %q", pe.Message, pe.Snippet)
	}
	return convertPipeline(m)
}

func convertPipeline(m *grammar.Match) (*PipelineExpr, error) {
	// m is the top-level Seq carrier: [ws, expression, filterStar, ws].
	exprMatch := m.Children[1]
	expr, err := convertExpr(exprMatch)
	if err != nil {
		return nil, err
	}
	var filters []FilterCall
	for _, step := range m.Children[2].Children {
		// step is [ws, "|", ws, filter].
		fc, err := convertFilter(step.Children[3])
		if err != nil {
			return nil, err
		}
		filters = append(filters, fc)
	}
	return &PipelineExpr{Expr: expr, Filters: filters}, nil
}

func convertExpr(m *grammar.Match) (ExprNode, error) {
	switch m.Rule {
	case ruleUnary:
		inner, err := convertExpr(m.Children[2])
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Expr: inner}, nil
	case ruleBinary:
		first, err := convertChain(m.Children[0])
		if err != nil {
			return nil, err
		}
		steps := m.Children[1].Children
		if len(steps) == 0 {
			return first, nil
		}
		rest := make([]BinaryStep, 0, len(steps))
		for _, step := range steps {
			// step is [ws, bin_op, ws, expression].
			right, err := convertExpr(step.Children[3])
			if err != nil {
				return nil, err
			}
			op := normalizeBinOp(step.Children[1].Text)
			// The grammar nests the rest of a chain as the right operand;
			// flatten it so the chain evaluates left to right.
			if be, ok := right.(BinaryExpr); ok && step.Children[3].Rule == ruleBinary {
				rest = append(rest, BinaryStep{Op: op, Right: be.First})
				rest = append(rest, be.Rest...)
				continue
			}
			rest = append(rest, BinaryStep{Op: op, Right: right})
		}
		return BinaryExpr{First: first, Rest: rest}, nil
	case ruleNested:
		return convertExpr(m.Children[2])
	default:
		return nil, newParseErrorf(toPosition(m.Pos), "unrecognized expression node")
	}
}

func normalizeBinOp(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

func convertChain(m *grammar.Match) (ExprNode, error) {
	base, err := convertLiteral(m.Children[0])
	if err != nil {
		return nil, err
	}
	linkMatches := m.Children[1].Children
	if len(linkMatches) == 0 {
		return base, nil
	}
	links := make([]Link, 0, len(linkMatches))
	for _, lm := range linkMatches {
		switch lm.Rule {
		case ruleDotLink:
			links = append(links, DotLink{Name: lm.Children[1].Text})
		case ruleIndexLink:
			idx, err := convertExpr(lm.Children[2])
			if err != nil {
				return nil, err
			}
			links = append(links, IndexLink{Expr: idx})
		}
	}
	return ChainExpr{Base: base, Links: links}, nil
}

func convertLiteral(m *grammar.Match) (ExprNode, error) {
	switch m.Rule {
	case ruleNoneLit:
		return NoneLit{}, nil
	case ruleBoolLit:
		return BoolLit{Value: m.Text == "True"}, nil
	case ruleSuperLit:
		return SuperLit{}, nil
	case ruleNumberLit:
		v, err := strconv.ParseFloat(m.Text, 64)
		if err != nil {
			return nil, newParseErrorf(toPosition(m.Pos), "invalid number literal %q", m.Text)
		}
		return NumberLit{Value: v}, nil
	case ruleStringLit:
		return StringLit{Value: unquoteStringLit(m.Text)}, nil
	case ruleVariableLit:
		return VarLit{Name: m.Text}, nil
	default:
		return nil, newParseErrorf(toPosition(m.Pos), "unrecognized literal")
	}
}

func convertFilter(m *grammar.Match) (FilterCall, error) {
	name := m.Children[0].Text
	opt := m.Children[1]
	if len(opt.Children) == 0 {
		return FilterCall{Name: name}, nil
	}
	arg, err := convertChain(opt.Children[1])
	if err != nil {
		return FilterCall{}, err
	}
	return FilterCall{Name: name, Arg: arg}, nil
}

// unquoteStringLit strips the surrounding quotes from a string_literal
// token and resolves backslash escapes.
func unquoteStringLit(text string) string {
	if len(text) < 2 {
		return text
	}
	body := text[1 : len(text)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
