// Package main contains Mage build targets for formatbridge developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binDir = "bin"

// binaries maps each output binary to its main package.
var binaries = map[string]string{
	"formatbridge-server": "./cmd/server",
	"formatbridge":        "./cmd/formatbridge",
	"formatbridge-mcp":    "./cmd/formatbridge-mcp",
}

// Default target when mage runs without arguments.
var Default = Build

// Generate regenerates the templ components.
func Generate() error {
	return sh.RunV("go", "run", "github.com/a-h/templ/cmd/templ@v0.3.960", "generate", "-path", "internal/web/templates")
}

// Build compiles every binary into bin/.
func Build() error {
	mg.Deps(Vet)

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := "dev"
	if v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && v != "" {
		version = v
	}

	for name, pkg := range binaries {
		out := filepath.Join(binDir, name)
		ldflags := "-s -w -X main.version=" + version
		if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, pkg); err != nil {
			return fmt.Errorf("go build %s: %w", pkg, err)
		}
		fmt.Printf("Built %s\n", out)
	}
	return nil
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Cover writes a coverage profile to coverage.out and prints the summary.
func Cover() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Run starts the web server with the local .env.
func Run() error {
	return sh.RunV("go", "run", "./cmd/server")
}

// Tidy syncs go.mod and go.sum.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// Clean removes build and coverage output.
func Clean() error {
	for _, p := range []string{binDir, "coverage.out"} {
		if err := sh.Rm(p); err != nil {
			return err
		}
	}
	return nil
}
