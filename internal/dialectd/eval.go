package dialectd

import (
	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// FilterFunc is a dialect D filter implementation: it receives the piped-in
// value, the (optional) argument chain's evaluated value, and whether an
// argument was actually supplied (since None is itself a valid argument
// value distinct from "no argument").
type FilterFunc func(in value.Value, arg value.Value, hasArg bool, opts *tmplopts.Options) (value.Value, error)

func lookupFilter(name string, opts *tmplopts.Options) (FilterFunc, bool) {
	if opts != nil {
		if raw, ok := opts.LoadedFilters[name]; ok {
			if fn, ok := raw.(FilterFunc); ok {
				return fn, true
			}
		}
	}
	fn, ok := builtinFilters[name]
	return fn, ok
}

// evaluatePipeline evaluates the expression, then applies each filter
// left-to-right, substituting opts.DefaultValue wherever the expression
// side reports a missing variable or attribute.
func evaluatePipeline(pe *PipelineExpr, ctx *tmplopts.Context, opts *tmplopts.Options) (value.Value, error) {
	v, err := evaluate(pe.Expr, ctx, opts)
	if err != nil {
		return value.None, err
	}
	for _, f := range pe.Filters {
		fn, ok := lookupFilter(f.Name, opts)
		if !ok {
			return value.None, &tmplopts.MissingFilterError{Name: f.Name}
		}
		var arg value.Value
		hasArg := f.Arg != nil
		if hasArg {
			arg, err = evaluate(f.Arg, ctx, opts)
			if err != nil {
				return value.None, err
			}
		}
		v, err = fn(v, arg, hasArg, opts)
		if err != nil {
			return value.None, err
		}
	}
	return v, nil
}

// evaluate resolves one expression AST node to a Value. It never returns an
// error for a missing variable/attribute; those resolve silently to
// opts.DefaultValue.
func evaluate(node ExprNode, ctx *tmplopts.Context, opts *tmplopts.Options) (value.Value, error) {
	switch n := node.(type) {
	case NoneLit:
		return value.None, nil
	case BoolLit:
		return value.NewBool(n.Value), nil
	case NumberLit:
		return value.NewNumber(n.Value), nil
	case StringLit:
		return value.NewString(n.Value), nil
	case SuperLit:
		if v, ok := ctx.Get("block.super"); ok {
			return v, nil
		}
		return value.NewString("").MarkSafe(), nil
	case VarLit:
		if v, ok := ctx.Get(n.Name); ok {
			return v, nil
		}
		return opts.DefaultValue, nil
	case ChainExpr:
		return evaluateChain(n, ctx, opts)
	case UnaryExpr:
		v, err := evaluate(n.Expr, ctx, opts)
		if err != nil {
			return value.None, err
		}
		return value.NewBool(!v.Test()), nil
	case BinaryExpr:
		return evaluateBinary(n, ctx, opts)
	default:
		return value.None, nil
	}
}

func evaluateChain(n ChainExpr, ctx *tmplopts.Context, opts *tmplopts.Options) (value.Value, error) {
	cur, err := evaluate(n.Base, ctx, opts)
	if err != nil {
		return value.None, err
	}
	for _, link := range n.Links {
		switch l := link.(type) {
		case DotLink:
			next, err := cur.MustGetAttribute(l.Name)
			if err != nil {
				return opts.DefaultValue, nil
			}
			cur = next
		case IndexLink:
			idx, err := evaluate(l.Expr, ctx, opts)
			if err != nil {
				return value.None, err
			}
			next, ok := cur.Index(idx)
			if !ok {
				return opts.DefaultValue, nil
			}
			cur = next
		}
	}
	return cur, nil
}

func evaluateBinary(n BinaryExpr, ctx *tmplopts.Context, opts *tmplopts.Options) (value.Value, error) {
	left, err := evaluate(n.First, ctx, opts)
	if err != nil {
		return value.None, err
	}
	for _, step := range n.Rest {
		switch step.Op {
		case "and":
			if !left.Test() {
				continue
			}
			right, err := evaluate(step.Right, ctx, opts)
			if err != nil {
				return value.None, err
			}
			left = right
		case "or":
			if left.Test() {
				continue
			}
			right, err := evaluate(step.Right, ctx, opts)
			if err != nil {
				return value.None, err
			}
			left = right
		default:
			right, err := evaluate(step.Right, ctx, opts)
			if err != nil {
				return value.None, err
			}
			left = applyComparison(step.Op, left, right)
		}
	}
	return left, nil
}

func applyComparison(op string, left, right value.Value) value.Value {
	switch op {
	case "==":
		return value.NewBool(left.Equal(right))
	case "!=":
		return value.NewBool(!left.Equal(right))
	case "<":
		return value.NewBool(left.Less(right))
	case ">":
		return value.NewBool(!left.Less(right) && !left.Equal(right))
	case "<=":
		return value.NewBool(left.Less(right) || left.Equal(right))
	case ">=":
		return value.NewBool(!left.Less(right))
	case "in":
		return value.NewBool(right.Contains(left))
	case "not in":
		return value.NewBool(!right.Contains(left))
	default:
		return value.None
	}
}
