//go:build mage

// Package main contains Mage build targets for confplan developer tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the planner expects.
var projectDirs = []string{
	"conferences",
	".confplan/cache",
	".confplan/index",
	"output",
}

// Init creates the project directories and a profile template.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat(profileFile); os.IsNotExist(err) {
		mg.Deps(Build)
		if err := sh.RunV(binPath(), "profile", "init", profileFile); err != nil {
			return err
		}
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir      = "bin"
	binName     = "confplan"
	cmdPkg      = "./cmd/confplan"
	profileFile = "research_interests.md"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", binPath(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", binPath())
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Plan builds the CLI and plans a schedule. PDF selects the abstract book
// (default conferences/abstracts.pdf), PROFILE the research profile and
// CONFERENCE the cache name.
func Plan() error {
	mg.Deps(Build)
	pdf := envOr("PDF", filepath.Join("conferences", "abstracts.pdf"))
	args := []string{"plan", "--pdf", pdf, "--profile", envOr("PROFILE", profileFile)}
	if c := os.Getenv("CONFERENCE"); c != "" {
		args = append(args, "--conference", c)
	}
	return sh.RunV(binPath(), args...)
}

// Clean removes build output and the planner caches.
func Clean() error {
	for _, dir := range []string{binDir, ".confplan"} {
		if err := sh.Rm(dir); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Stats prints Go line counts for production and test code and the word
// count of Markdown and YAML files.
func Stats() error {
	var prod, tests, words int
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".") || d.Name() == binDir) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".go":
			n, err := countLines(path)
			if err != nil {
				return err
			}
			if strings.HasSuffix(path, "_test.go") {
				tests += n
			} else {
				prod += n
			}
		case ".md", ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			words += len(strings.Fields(string(data)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)
	fmt.Printf("Words (documentation):           %d\n", words)
	return nil
}

// countLines counts non-blank lines.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n, nil
}
