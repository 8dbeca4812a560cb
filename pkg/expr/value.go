package expr

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/geometry"
)

// ValueKind identifies the dynamic type of a Value.
type ValueKind int

const (
	// KindNumber is a float64 value.
	KindNumber ValueKind = iota
	// KindString is a string value.
	KindString
	// KindBool is a boolean value.
	KindBool
	// KindColor is an ARGB color value.
	KindColor
	// KindObject is an opaque host value passed through unchanged.
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindColor:
		return "color"
	default:
		return "object"
	}
}

// Value is the tagged result of evaluating an expression. State and constant
// entries flow through expressions as Values; coercion to the target property
// type is explicit and fails with a type-mismatch error when impossible.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	b    bool
	col  geometry.Color
	obj  any
}

// Number wraps a float64.
func Number(v float64) Value { return Value{kind: KindNumber, num: v} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// ColorValue wraps a color.
func ColorValue(c geometry.Color) Value { return Value{kind: KindColor, col: c} }

// Object wraps an opaque host value.
func Object(v any) Value { return Value{kind: KindObject, obj: v} }

// FromAny converts a dynamically-typed host value (state entries, yaml
// constants) into a Value. Unrecognized types become opaque objects.
func FromAny(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case geometry.Color:
		return ColorValue(x)
	default:
		return Object(v)
	}
}

// Kind returns the dynamic type tag.
func (v Value) Kind() ValueKind { return v.kind }

// AsNumber coerces the value to a float64. Numeric strings coerce; anything
// else is a type mismatch.
func (v Value) AsNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindString:
		if n, err := strconv.ParseFloat(v.str, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("expr.AsNumber", errors.KindTypeMismatch,
		"cannot convert %s %s to number", v.kind, v)
}

// AsString renders the value as a string. Every kind has a string form.
func (v Value) AsString() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindColor:
		return v.col.String()
	default:
		return fmt.Sprintf("%v", v.obj)
	}
}

// AsBool coerces the value to a bool. Numbers are true when non-zero;
// the strings "true" and "false" coerce; anything else is a type mismatch.
func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindNumber:
		return v.num != 0, nil
	case KindString:
		if b, err := strconv.ParseBool(v.str); err == nil {
			return b, nil
		}
	}
	return false, errors.New("expr.AsBool", errors.KindTypeMismatch,
		"cannot convert %s %s to bool", v.kind, v)
}

// AsColor coerces the value to a color. Strings resolve as hex literals or
// CSS/SVG color names.
func (v Value) AsColor() (geometry.Color, error) {
	switch v.kind {
	case KindColor:
		return v.col, nil
	case KindString:
		if c, ok := geometry.NamedColor(v.str); ok {
			return c, nil
		}
		if c, err := geometry.ParseHexColor(v.str); err == nil {
			return c, nil
		}
	}
	return 0, errors.New("expr.AsColor", errors.KindTypeMismatch,
		"cannot convert %s %s to color", v.kind, v)
}

// AsObject returns the wrapped host value for opaque objects, or the
// natural Go value for the other kinds.
func (v Value) AsObject() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindColor:
		return v.col
	default:
		return v.obj
	}
}

// Equal reports whether two values have the same kind and contents.
// Opaque objects compare by deep equality; maps and slices pulled from
// state are valid objects and must never make comparison panic.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindColor:
		return v.col == o.col
	default:
		return reflect.DeepEqual(v.obj, o.obj)
	}
}

func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.AsString()
}
