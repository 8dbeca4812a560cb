// Package errors provides structured error handling for the Stencil framework.
package errors

import (
	"fmt"
	"time"
)

// Kind identifies the category of a layout error.
type Kind int

const (
	// KindUnknown indicates a wrapped error of unknown type.
	KindUnknown Kind = iota
	// KindParse indicates an expression or markup parse failure.
	KindParse
	// KindSymbolNotFound indicates an unresolvable symbol reference.
	KindSymbolNotFound
	// KindTypeMismatch indicates a value that cannot coerce to the target type.
	KindTypeMismatch
	// KindCycle indicates a circular expression dependency.
	KindCycle
	// KindMount indicates a native view attachment failure.
	KindMount
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindSymbolNotFound:
		return "symbol not found"
	case KindTypeMismatch:
		return "type mismatch"
	case KindCycle:
		return "cyclic dependency"
	case KindMount:
		return "mount"
	default:
		return "unknown"
	}
}

// Error represents a structured layout error.
type Error struct {
	// Op is the operation that failed (e.g., "layout.Resolve").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// Node is the path of the originating node (e.g., "root/stack[1]/label#title").
	Node string
	// Expression is the source string of the failing expression, if any.
	Expression string
	// Err is the underlying error.
	Err error
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	if e.Node != "" {
		msg += " node=" + e.Node
	}
	if e.Expression != "" {
		msg += fmt.Sprintf(" expr=%q", e.Expression)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Equal reports whether two errors describe the same failure.
// Timestamps are ignored so a redisplayed error compares equal to the
// currently shown one.
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Op != other.Op || e.Kind != other.Kind ||
		e.Node != other.Node || e.Expression != other.Expression {
		return false
	}
	switch {
	case e.Err == nil && other.Err == nil:
		return true
	case e.Err == nil || other.Err == nil:
		return false
	}
	return e.Err.Error() == other.Err.Error()
}

// New constructs an Error with the given kind and a formatted message.
func New(op string, kind Kind, format string, args ...any) *Error {
	return &Error{
		Op:        op,
		Kind:      kind,
		Err:       fmt.Errorf(format, args...),
		Timestamp: time.Now(),
	}
}

// Wrap converts err into an *Error, preserving it when it already is one.
func Wrap(op string, err error) *Error {
	if err == nil {
		return nil
	}
	if layoutErr, ok := err.(*Error); ok {
		return layoutErr
	}
	return &Error{
		Op:        op,
		Kind:      KindUnknown,
		Err:       err,
		Timestamp: time.Now(),
	}
}
