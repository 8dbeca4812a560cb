package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func TestResolve_Defaults(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"go.mod": "module github.com/acme/myapp\n\ngo 1.24.0\n",
	})

	resolved, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ModulePath != "github.com/acme/myapp" {
		t.Errorf("ModulePath = %q", resolved.ModulePath)
	}
	if resolved.AppName != "myapp" {
		t.Errorf("AppName = %q, want module basename", resolved.AppName)
	}
	if resolved.LayoutsDir != "layouts" {
		t.Errorf("LayoutsDir = %q", resolved.LayoutsDir)
	}
	if resolved.ConstantsFile != filepath.Join("layouts", "constants.yaml") {
		t.Errorf("ConstantsFile = %q", resolved.ConstantsFile)
	}
}

func TestResolve_StencilYAMLOverrides(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"go.mod":       "module example.com/thing/v2\n",
		"stencil.yaml": "app:\n  name: Fancy\nlayouts:\n  dir: ui\n",
	})

	resolved, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.AppName != "Fancy" {
		t.Errorf("AppName = %q", resolved.AppName)
	}
	if resolved.LayoutsDir != "ui" {
		t.Errorf("LayoutsDir = %q", resolved.LayoutsDir)
	}
	if resolved.ConstantsFile != filepath.Join("ui", "constants.yaml") {
		t.Errorf("ConstantsFile = %q", resolved.ConstantsFile)
	}
}

func TestResolve_VersionedModulePath(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"go.mod": "module example.com/thing/v2\n",
	})
	resolved, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.AppName != "thing" {
		t.Errorf("AppName = %q, want the /v2 suffix stripped", resolved.AppName)
	}
}

func TestResolve_Errors(t *testing.T) {
	if _, err := Resolve(t.TempDir()); err == nil {
		t.Error("expected error without go.mod")
	}

	dir := writeProject(t, map[string]string{
		"go.mod":       "module ok\n",
		"stencil.yaml": "app: [not a mapping",
	})
	if _, err := Resolve(dir); err == nil {
		t.Error("expected error for malformed stencil.yaml")
	}
}
