package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-stencil/stencil/cmd/stencil/internal/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "init",
		Short: "Scaffold layout files in the current project",
		Long: `Scaffold Stencil layout files inside an existing Go module.

This command creates:
  - layouts/main.xml with a starter layout
  - layouts/constants.yaml with example constants

The layout directory can be overridden with stencil.yaml. The app
title in the starter layout is derived from the module path.

Examples:
  stencil init`,
		Usage: "stencil init",
		Run:   runInit,
	})
}

const mainLayoutTemplate = `<column name="root" width="100%%" padding="spacing.page">
    <label name="title" text="%s" fontSize="24" />
    <label name="subtitle"
           top="title.bottom + spacing.stack"
           text="Edit layouts/main.xml and save to reload."
           fontSize="14" />
</column>
`

const constantsTemplate = `# Constants available to every layout in this directory.
spacing:
  page: 16
  stack: 8
`

func runInit(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("init takes no arguments\n\nUsage: stencil init")
	}

	root, err := config.FindProjectRoot()
	if err != nil {
		return err
	}
	resolved, err := config.Resolve(root)
	if err != nil {
		return err
	}

	layoutsDir := filepath.Join(root, resolved.LayoutsDir)
	if err := os.MkdirAll(layoutsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", layoutsDir, err)
	}

	mainPath := filepath.Join(layoutsDir, "main.xml")
	if _, err := os.Stat(mainPath); err == nil {
		return fmt.Errorf("%s already exists", mainPath)
	}
	layout := fmt.Sprintf(mainLayoutTemplate, resolved.AppName)
	if err := os.WriteFile(mainPath, []byte(layout), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", mainPath, err)
	}
	fmt.Printf("  Created %s\n", mainPath)

	constantsPath := filepath.Join(root, resolved.ConstantsFile)
	if _, err := os.Stat(constantsPath); err == nil {
		fmt.Printf("  Keeping existing %s\n", constantsPath)
	} else {
		if err := os.WriteFile(constantsPath, []byte(constantsTemplate), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", constantsPath, err)
		}
		fmt.Printf("  Created %s\n", constantsPath)
	}

	fmt.Println()
	fmt.Printf("Layouts scaffolded for %s.\n\n", resolved.AppName)
	fmt.Println("Next steps:")
	fmt.Printf("  stencil check %s\n", filepath.Join(resolved.LayoutsDir, "main.xml"))
	return nil
}
