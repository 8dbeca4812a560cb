package expr

import (
	"strings"

	"github.com/go-stencil/stencil/pkg/geometry"
)

// astNode is one node of a parsed expression tree.
type astNode interface {
	// String reconstructs an approximate source form, used in error messages.
	String() string
}

type numberLit struct {
	Value float64
}

func (n *numberLit) String() string { return Number(n.Value).AsString() }

type stringLit struct {
	Value string
}

func (n *stringLit) String() string { return "'" + n.Value + "'" }

type boolLit struct {
	Value bool
}

func (n *boolLit) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}

type colorLit struct {
	Value geometry.Color
}

func (n *colorLit) String() string { return n.Value.String() }

// percentExpr is the postfix % operator: the operand is a fraction of the
// container dimension supplied by the evaluation context.
type percentExpr struct {
	Operand astNode
}

func (n *percentExpr) String() string { return n.Operand.String() + "%" }

// identExpr is a symbol reference, possibly dotted ("previous.bottom").
type identExpr struct {
	Path []string
}

func (n *identExpr) String() string { return strings.Join(n.Path, ".") }

type prefixExpr struct {
	Op    string
	Right astNode
}

func (n *prefixExpr) String() string { return "(" + n.Op + n.Right.String() + ")" }

type infixExpr struct {
	Op    string
	Left  astNode
	Right astNode
}

func (n *infixExpr) String() string {
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

type conditionalExpr struct {
	Cond astNode
	Then astNode
	Else astNode
}

func (n *conditionalExpr) String() string {
	return "(" + n.Cond.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

type callExpr struct {
	Name string
	Args []astNode
}

func (n *callExpr) String() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

// templateExpr is an interpolated string: literal segments interleaved with
// embedded expressions. A template consisting of exactly one embedded
// expression spanning the whole source passes the inner value through
// without string conversion.
type templateExpr struct {
	Parts []astNode
}

func (n *templateExpr) String() string {
	var b strings.Builder
	for _, part := range n.Parts {
		if lit, ok := part.(*stringLit); ok {
			b.WriteString(lit.Value)
		} else {
			b.WriteString("{" + part.String() + "}")
		}
	}
	return b.String()
}

// Expression is the immutable parsed representation of one attribute's
// source string. It is created once per attribute per node at attach time
// and shared until the source string changes.
type Expression struct {
	source   string
	root     astNode
	symbols  [][]string
	template bool
}

// Source returns the original source string.
func (e *Expression) Source() string { return e.source }

// IsTemplate reports whether the expression was parsed in string
// interpolation mode.
func (e *Expression) IsTemplate() bool { return e.template }

// Symbols returns the symbol paths the expression references, in first
// appearance order. The set is computed once at parse time.
func (e *Expression) Symbols() [][]string { return e.symbols }

// collectSymbols walks the tree appending referenced symbol paths.
func collectSymbols(n astNode, out *[][]string) {
	switch node := n.(type) {
	case *identExpr:
		for _, existing := range *out {
			if pathEqual(existing, node.Path) {
				return
			}
		}
		*out = append(*out, node.Path)
	case *percentExpr:
		collectSymbols(node.Operand, out)
	case *prefixExpr:
		collectSymbols(node.Right, out)
	case *infixExpr:
		collectSymbols(node.Left, out)
		collectSymbols(node.Right, out)
	case *conditionalExpr:
		collectSymbols(node.Cond, out)
		collectSymbols(node.Then, out)
		collectSymbols(node.Else, out)
	case *callExpr:
		for _, arg := range node.Args {
			collectSymbols(arg, out)
		}
	case *templateExpr:
		for _, part := range node.Parts {
			collectSymbols(part, out)
		}
	}
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
