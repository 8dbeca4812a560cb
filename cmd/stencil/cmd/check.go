package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-stencil/stencil/pkg/backend/headless"
	"github.com/go-stencil/stencil/pkg/controller"
	"github.com/go-stencil/stencil/pkg/geometry"
	"github.com/go-stencil/stencil/pkg/markup"
)

func init() {
	RegisterCommand(&Command{
		Name:  "check",
		Short: "Validate layout files",
		Long: `Parse layout files, resolve every expression, and mount the result
against a headless backend. Any parse error, unresolvable symbol,
type mismatch, or dependency cycle is reported per node.

Percentage expressions resolve against the given viewport size.
Constants come from --constants, or from a constants.yaml next to
each layout file when the flag is omitted.

Examples:
  stencil check layouts/main.xml
  stencil check --width 414 --height 896 layouts/*.xml
  stencil check --constants layouts/constants.yaml layouts/main.xml`,
		Usage: "stencil check [--width N] [--height N] [--constants FILE] <file>...",
		Run:   runCheck,
	})
}

func runCheck(args []string) error {
	width, height := 375.0, 812.0
	constantsPath := ""
	var files []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--width":
			if i+1 >= len(args) {
				return fmt.Errorf("--width requires a value")
			}
			i++
			v, err := strconv.ParseFloat(args[i], 64)
			if err != nil || v <= 0 {
				return fmt.Errorf("invalid --width value %q", args[i])
			}
			width = v
		case arg == "--height":
			if i+1 >= len(args) {
				return fmt.Errorf("--height requires a value")
			}
			i++
			v, err := strconv.ParseFloat(args[i], 64)
			if err != nil || v <= 0 {
				return fmt.Errorf("invalid --height value %q", args[i])
			}
			height = v
		case arg == "--constants":
			if i+1 >= len(args) {
				return fmt.Errorf("--constants requires a file path")
			}
			i++
			constantsPath = args[i]
		case strings.HasPrefix(arg, "--"):
			return fmt.Errorf("unknown flag %q", arg)
		default:
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("at least one layout file is required\n\nUsage: stencil check [flags] <file>...")
	}

	var constants map[string]any
	if constantsPath != "" {
		loaded, lerr := controller.LoadConstantsFile(constantsPath)
		if lerr != nil {
			return fmt.Errorf("loading constants: %v", lerr)
		}
		constants = loaded
	}

	bounds := geometry.RectFromLTWH(0, 0, width, height)
	failed := 0

	for _, path := range files {
		if err := checkFile(path, bounds, constants); err != nil {
			fmt.Printf("  FAIL  %s\n        %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("  ok    %s\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d layout file(s) failed", failed, len(files))
	}
	fmt.Printf("\n%d layout file(s) ok\n", len(files))
	return nil
}

func checkFile(path string, bounds geometry.Rect, constants map[string]any) error {
	if constants == nil {
		// No --constants flag: pick up a constants.yaml next to the
		// layout, the same file stencil init scaffolds.
		loaded, lerr := controller.LoadConstantsFile(filepath.Join(filepath.Dir(path), "constants.yaml"))
		if lerr != nil {
			return lerr
		}
		constants = loaded
	}

	root, err := markup.LoadFile(path, markup.Options{
		Constants:    constants,
		RelativeBase: filepath.Dir(path),
	})
	if err != nil {
		return err
	}

	root.SetFactory(headless.New())
	if err := root.Mount(nil, bounds); err != nil {
		return err
	}
	root.Unmount()
	return nil
}
