package expr

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/geometry"
)

// Func is a named function callable from expressions with positional
// arguments. MaxArgs of -1 means variadic.
type Func struct {
	Name    string
	MinArgs int
	MaxArgs int
	Call    func(args []Value) (Value, error)
}

func (f *Func) arity() string {
	switch {
	case f.MaxArgs < 0:
		return fmt.Sprintf("at least %d args", f.MinArgs)
	case f.MinArgs == f.MaxArgs && f.MinArgs == 1:
		return "1 arg"
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%d args", f.MinArgs)
	default:
		return fmt.Sprintf("%d to %d args", f.MinArgs, f.MaxArgs)
	}
}

var (
	funcsMu sync.RWMutex
	funcs   = map[string]*Func{}
)

// RegisterFunc makes a function available to subsequently parsed
// expressions. Registering an existing name replaces it.
func RegisterFunc(f *Func) {
	funcsMu.Lock()
	defer funcsMu.Unlock()
	funcs[f.Name] = f
}

// LookupFunc returns the registered function with the given name.
func LookupFunc(name string) (*Func, bool) {
	funcsMu.RLock()
	defer funcsMu.RUnlock()
	f, ok := funcs[name]
	return f, ok
}

func numeric1(name string, fn func(float64) float64) *Func {
	return &Func{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Call: func(args []Value) (Value, error) {
			n, err := args[0].AsNumber()
			if err != nil {
				return Value{}, err
			}
			return Number(fn(n)), nil
		},
	}
}

func numeric2(name string, fn func(a, b float64) float64) *Func {
	return &Func{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Call: func(args []Value) (Value, error) {
			a, err := args[0].AsNumber()
			if err != nil {
				return Value{}, err
			}
			b, err := args[1].AsNumber()
			if err != nil {
				return Value{}, err
			}
			return Number(fn(a, b)), nil
		},
	}
}

func fold(name string, fn func(a, b float64) float64) *Func {
	return &Func{
		Name:    name,
		MinArgs: 1,
		MaxArgs: -1,
		Call: func(args []Value) (Value, error) {
			acc, err := args[0].AsNumber()
			if err != nil {
				return Value{}, err
			}
			for _, arg := range args[1:] {
				n, err := arg.AsNumber()
				if err != nil {
					return Value{}, err
				}
				acc = fn(acc, n)
			}
			return Number(acc), nil
		},
	}
}

func colorByte(v Value) (uint8, error) {
	n, err := v.AsNumber()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, errors.New("expr.Call", errors.KindTypeMismatch,
			"color component %v out of range 0-255", n)
	}
	return uint8(math.Round(n)), nil
}

func init() {
	for _, f := range []*Func{
		numeric1("abs", math.Abs),
		numeric1("floor", math.Floor),
		numeric1("ceil", math.Ceil),
		numeric1("round", math.Round),
		numeric1("sqrt", math.Sqrt),
		numeric2("pow", math.Pow),
		numeric2("mod", math.Mod),
		fold("min", math.Min),
		fold("max", math.Max),
		{
			Name:    "clamp",
			MinArgs: 3,
			MaxArgs: 3,
			Call: func(args []Value) (Value, error) {
				x, err := args[0].AsNumber()
				if err != nil {
					return Value{}, err
				}
				lo, err := args[1].AsNumber()
				if err != nil {
					return Value{}, err
				}
				hi, err := args[2].AsNumber()
				if err != nil {
					return Value{}, err
				}
				return Number(math.Min(math.Max(x, lo), hi)), nil
			},
		},
		{
			Name:    "rgb",
			MinArgs: 3,
			MaxArgs: 3,
			Call: func(args []Value) (Value, error) {
				var c [3]uint8
				for i, arg := range args {
					b, err := colorByte(arg)
					if err != nil {
						return Value{}, err
					}
					c[i] = b
				}
				return ColorValue(geometry.RGB(c[0], c[1], c[2])), nil
			},
		},
		{
			Name:    "rgba",
			MinArgs: 4,
			MaxArgs: 4,
			Call: func(args []Value) (Value, error) {
				var c [3]uint8
				for i, arg := range args[:3] {
					b, err := colorByte(arg)
					if err != nil {
						return Value{}, err
					}
					c[i] = b
				}
				alpha, err := args[3].AsNumber()
				if err != nil {
					return Value{}, err
				}
				return ColorValue(geometry.RGBA(c[0], c[1], c[2], alpha)), nil
			},
		},
	} {
		RegisterFunc(f)
	}
}
