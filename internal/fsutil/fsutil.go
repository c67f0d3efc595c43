// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fsutil holds the small file helpers shared by the cache, index and
// schedule writers.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers see either the old or the new file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName turns a conference name into a file name component.
func SafeName(name string) string {
	s := strings.Trim(unsafeNameRe.ReplaceAllString(strings.TrimSpace(name), "-"), "-.")
	if s == "" {
		return "conference"
	}
	return s
}
