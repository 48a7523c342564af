package dialects

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// Expr is dialect S's boolean/comparison expression AST: the `expr`
// attribute of `if`/`elif` supports &&, ||, unary !, parenthesized
// grouping, and a comparison layer whose right-hand side may be a /regex/
// literal.
type Expr interface{ sExprNode() }

type orExpr struct{ terms []Expr }
type andExpr struct{ terms []Expr }
type notExpr struct{ term Expr }
type cmpExpr struct {
	left  string // raw operand text (interpolated at eval time)
	op    string // "", "=", "==", "!=", "<", ">", "<=", ">=", "=~", "!~"
	right string
}

func (orExpr) sExprNode()  {}
func (andExpr) sExprNode() {}
func (notExpr) sExprNode() {}
func (cmpExpr) sExprNode() {}

// exprParser is a small hand-written recursive-descent parser over the raw
// `expr=` attribute text, mirroring dialectd's hand-written lexer/parser
// style rather than reusing the generic grammar kernel -- the grammar here
// is a half-dozen productions, not worth a PEG rule registry.
type exprParser struct {
	s   string
	pos int
}

func parseSExpr(s string) (Expr, error) {
	p := &exprParser{s: s}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.s) {
		return nil, newParseErrorf(sPos{}, "unexpected trailing input in expr: %q", p.s[p.pos:])
	}
	return e, nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.s) && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) peekOp(op string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.s[p.pos:], op)
}

func (p *exprParser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.peekOp("||") {
		p.pos += 2
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return orExpr{terms: terms}, nil
}

func (p *exprParser) parseAnd() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.peekOp("&&") {
		p.pos += 2
		next, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return andExpr{terms: terms}, nil
}

func (p *exprParser) parseUnary() (Expr, error) {
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '!' && !p.peekOp("!=") {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{term: inner}, nil
	}
	if p.pos < len(p.s) && p.s[p.pos] == '(' {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ')' {
			return nil, newParseErrorf(sPos{}, "unclosed ( in expr: %q", p.s)
		}
		p.pos++
		return inner, nil
	}
	return p.parseComparison()
}

var sOperandRx = regexp.MustCompile(`^(/(?:\\.|[^/\\])*/|"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'|[^\s()!&|]+)`)

func (p *exprParser) parseOperand() (string, error) {
	p.skipSpace()
	rest := p.s[p.pos:]
	m := sOperandRx.FindString(rest)
	if m == "" {
		return "", newParseErrorf(sPos{}, "expected operand at %q", rest)
	}
	p.pos += len(m)
	return m, nil
}

func (p *exprParser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	for _, op := range []string{"==", "!=", "<=", ">=", "=~", "!~", "<", ">", "="} {
		if strings.HasPrefix(p.s[p.pos:], op) {
			p.pos += len(op)
			right, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			return cmpExpr{left: left, op: op, right: right}, nil
		}
	}
	return cmpExpr{left: left, op: "", right: ""}, nil
}

// evalSExpr evaluates a parsed Expr against ctx/opts, populating regex
// capture groups into context keys "0".."N" whenever a /pattern/ operand is
// matched; captures are cleared before each regex comparison so they
// reflect only the most recent match.
func evalSExpr(e Expr, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) (bool, error) {
	switch n := e.(type) {
	case orExpr:
		for _, t := range n.terms {
			v, err := evalSExpr(t, ctx, opts, rs)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case andExpr:
		for _, t := range n.terms {
			v, err := evalSExpr(t, ctx, opts, rs)
			if err != nil {
				return false, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case notExpr:
		v, err := evalSExpr(n.term, ctx, opts, rs)
		if err != nil {
			return false, err
		}
		return !v, nil
	case cmpExpr:
		return evalCmp(n, ctx, opts, rs)
	default:
		return false, nil
	}
}

func evalCmp(n cmpExpr, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) (bool, error) {
	left := resolveOperand(n.left, ctx, opts, rs)
	if n.op == "" {
		return left != "" && left != "0", nil
	}
	if isRegexLiteral(n.right) {
		pat := n.right[1 : len(n.right)-1]
		rx, err := regexp.Compile(pat)
		if err != nil {
			return false, newParseErrorf(sPos{}, "bad regex /%s/: %v", pat, err)
		}
		clearCaptures(ctx, opts)
		m := rx.FindStringSubmatch(left)
		matched := m != nil
		if matched {
			max := opts.MaxRegexCaptures
			for i, g := range m {
				if i > max {
					break
				}
				ctx.Set(strconv.Itoa(i), value.NewString(g))
			}
		}
		if n.op == "!=" || n.op == "!~" {
			return !matched, nil
		}
		return matched, nil
	}
	right := resolveOperand(n.right, ctx, opts, rs)
	switch n.op {
	case "<", ">", "<=", ">=":
		return evalOrdering(n.op, left, right), nil
	}
	eq := left == right
	if n.op == "!=" || n.op == "!~" {
		return !eq, nil
	}
	return eq, nil
}

// evalOrdering compares left/right numerically when both parse as numbers
// (the common case for SSI's size/count-style checks), falling back to a
// byte-wise string comparison otherwise.
func evalOrdering(op, left, right string) bool {
	lf, lerr := strconv.ParseFloat(left, 64)
	rf, rerr := strconv.ParseFloat(right, 64)
	var cmp int
	if lerr == nil && rerr == nil {
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(left, right)
	}
	switch op {
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	default: // ">="
		return cmp >= 0
	}
}

func clearCaptures(ctx *tmplopts.Context, opts *tmplopts.Options) {
	for i := 0; i <= opts.MaxRegexCaptures; i++ {
		ctx.Delete(strconv.Itoa(i))
	}
}

func isRegexLiteral(s string) bool {
	return len(s) >= 2 && s[0] == '/' && s[len(s)-1] == '/'
}

// resolveOperand strips quoting from a comparison operand and applies
// $-interpolation, the same rule attribute values follow.
func resolveOperand(raw string, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		raw = raw[1 : len(raw)-1]
	}
	return interpolate(raw, ctx, opts, rs)
}
