// Command stencil is the developer CLI for the Stencil layout framework.
package main

import (
	"os"

	"github.com/go-stencil/stencil/cmd/stencil/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
