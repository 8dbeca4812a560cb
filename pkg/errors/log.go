package errors

import (
	"fmt"
	"os"
)

// LogHandler is a Handler that logs errors to stderr.
type LogHandler struct {
	// Verbose enables detailed output including node path and expression source.
	Verbose bool
}

// HandleLayoutError logs an Error to stderr.
func (h *LogHandler) HandleLayoutError(err *Error) {
	if err == nil {
		return
	}
	if h.Verbose {
		fmt.Fprintf(os.Stderr, "[stencil error] %s [%s]", err.Op, err.Kind)
		if err.Node != "" {
			fmt.Fprintf(os.Stderr, " node=%s", err.Node)
		}
		if err.Expression != "" {
			fmt.Fprintf(os.Stderr, " expr=%q", err.Expression)
		}
		fmt.Fprintf(os.Stderr, ": %v\n", err.Err)
	} else {
		fmt.Fprintf(os.Stderr, "[stencil error] %s: %v\n", err.Op, err.Err)
	}
}
