package expr

import (
	"strings"

	"github.com/go-stencil/stencil/pkg/errors"
)

// Context supplies the named values and percentage base an expression needs
// during evaluation. The layout evaluator builds one per (node, property)
// resolution; the expression itself stays context-free.
type Context interface {
	// LookupSymbol resolves a symbol path to a value. Symbol lookups are the
	// dependency edges of the layout cache: the context records each one.
	LookupSymbol(path []string) (Value, error)
	// PercentBase returns the container dimension a percentage literal in
	// the current property resolves against.
	PercentBase() (float64, error)
}

// Evaluate computes the expression's value in the given context. Evaluation
// is synchronous and side-effect-free apart from the context's own
// dependency recording.
func (e *Expression) Evaluate(ctx Context) (Value, error) {
	v, err := evalNode(e.root, ctx)
	if err != nil {
		if layoutErr, ok := err.(*errors.Error); ok && layoutErr.Expression == "" {
			layoutErr.Expression = e.source
		}
		return Value{}, err
	}
	return v, nil
}

func evalNode(n astNode, ctx Context) (Value, error) {
	switch node := n.(type) {
	case *numberLit:
		return Number(node.Value), nil
	case *stringLit:
		return String(node.Value), nil
	case *boolLit:
		return Bool(node.Value), nil
	case *colorLit:
		return ColorValue(node.Value), nil
	case *identExpr:
		return ctx.LookupSymbol(node.Path)
	case *percentExpr:
		return evalPercent(node, ctx)
	case *prefixExpr:
		return evalPrefix(node, ctx)
	case *infixExpr:
		return evalInfix(node, ctx)
	case *conditionalExpr:
		return evalConditional(node, ctx)
	case *callExpr:
		return evalCall(node, ctx)
	case *templateExpr:
		return evalTemplate(node, ctx)
	}
	return Value{}, errors.New("expr.Evaluate", errors.KindUnknown,
		"unhandled expression node %T", n)
}

func evalPercent(n *percentExpr, ctx Context) (Value, error) {
	operand, err := evalNode(n.Operand, ctx)
	if err != nil {
		return Value{}, err
	}
	fraction, err := operand.AsNumber()
	if err != nil {
		return Value{}, err
	}
	base, err := ctx.PercentBase()
	if err != nil {
		return Value{}, err
	}
	return Number(fraction / 100 * base), nil
}

func evalPrefix(n *prefixExpr, ctx Context) (Value, error) {
	right, err := evalNode(n.Right, ctx)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "-":
		num, err := right.AsNumber()
		if err != nil {
			return Value{}, err
		}
		return Number(-num), nil
	case "!":
		b, err := right.AsBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(!b), nil
	}
	return Value{}, errors.New("expr.Evaluate", errors.KindUnknown,
		"unhandled prefix operator %q", n.Op)
}

func evalInfix(n *infixExpr, ctx Context) (Value, error) {
	// Short-circuit logical operators before evaluating the right side.
	if n.Op == "&&" || n.Op == "||" {
		left, err := evalNode(n.Left, ctx)
		if err != nil {
			return Value{}, err
		}
		lb, err := left.AsBool()
		if err != nil {
			return Value{}, err
		}
		if (n.Op == "&&" && !lb) || (n.Op == "||" && lb) {
			return Bool(lb), nil
		}
		right, err := evalNode(n.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		rb, err := right.AsBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(rb), nil
	}

	left, err := evalNode(n.Left, ctx)
	if err != nil {
		return Value{}, err
	}
	right, err := evalNode(n.Right, ctx)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case "==":
		return Bool(looseEqual(left, right)), nil
	case "!=":
		return Bool(!looseEqual(left, right)), nil
	}

	// String + concatenates when either side is a string.
	if n.Op == "+" && (left.Kind() == KindString || right.Kind() == KindString) {
		return String(left.AsString() + right.AsString()), nil
	}

	ln, err := left.AsNumber()
	if err != nil {
		return Value{}, err
	}
	rn, err := right.AsNumber()
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case "+":
		return Number(ln + rn), nil
	case "-":
		return Number(ln - rn), nil
	case "*":
		return Number(ln * rn), nil
	case "/":
		if rn == 0 {
			return Value{}, errors.New("expr.Evaluate", errors.KindUnknown,
				"division by zero in %q", n.String())
		}
		return Number(ln / rn), nil
	case "<":
		return Bool(ln < rn), nil
	case ">":
		return Bool(ln > rn), nil
	case "<=":
		return Bool(ln <= rn), nil
	case ">=":
		return Bool(ln >= rn), nil
	}
	return Value{}, errors.New("expr.Evaluate", errors.KindUnknown,
		"unhandled operator %q", n.Op)
}

// looseEqual compares values, coercing numeric strings so that
// state-sourced strings compare naturally against numbers.
func looseEqual(a, b Value) bool {
	if a.Kind() == b.Kind() {
		return a.Equal(b)
	}
	an, aerr := a.AsNumber()
	bn, berr := b.AsNumber()
	if aerr == nil && berr == nil {
		return an == bn
	}
	return a.AsString() == b.AsString()
}

func evalConditional(n *conditionalExpr, ctx Context) (Value, error) {
	cond, err := evalNode(n.Cond, ctx)
	if err != nil {
		return Value{}, err
	}
	b, err := cond.AsBool()
	if err != nil {
		return Value{}, err
	}
	if b {
		return evalNode(n.Then, ctx)
	}
	return evalNode(n.Else, ctx)
}

func evalCall(n *callExpr, ctx Context) (Value, error) {
	fn, ok := LookupFunc(n.Name)
	if !ok {
		// The function existed at parse time but was unregistered since.
		return Value{}, errors.New("expr.Evaluate", errors.KindSymbolNotFound,
			"unknown function %q", n.Name)
	}
	args := make([]Value, len(n.Args))
	for i, argNode := range n.Args {
		arg, err := evalNode(argNode, ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = arg
	}
	return fn.Call(args)
}

func evalTemplate(n *templateExpr, ctx Context) (Value, error) {
	// Single-substitution passthrough: "{expr}" yields the inner value
	// without string conversion.
	if len(n.Parts) == 1 {
		if _, isLit := n.Parts[0].(*stringLit); !isLit {
			return evalNode(n.Parts[0], ctx)
		}
	}
	var b strings.Builder
	for _, part := range n.Parts {
		v, err := evalNode(part, ctx)
		if err != nil {
			return Value{}, err
		}
		b.WriteString(v.AsString())
	}
	return String(b.String()), nil
}
