// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files and
// from a dotenv file. In the directory, the file name is the key and the
// trimmed contents are the value.
//
// Supported keys: embedding-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EmbeddingAPIKey names the bearer token for the embedding service.
const EmbeddingAPIKey = "embedding-api-key"

// Load reads all files in dir and returns a map of file name to trimmed
// contents. A missing directory yields an empty map. Unreadable files are
// reported on stderr and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// LoadEnv reads a dotenv file without touching the process environment.
// Keys are lowercased with underscores turned into dashes, so
// EMBEDDING_API_KEY becomes embedding-api-key. A missing file yields an
// empty map.
func LoadEnv(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	out := make(map[string]string, len(vals))
	for k, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out[envKey(k)] = v
		}
	}
	return out, nil
}

func envKey(k string) string {
	k = strings.TrimPrefix(strings.ToUpper(k), "CONFPLAN_")
	return strings.ReplaceAll(strings.ToLower(k), "_", "-")
}

// Resolve merges the dotenv file and the secrets directory. Directory
// entries win over dotenv values.
func Resolve(dir, envFile string) (map[string]string, error) {
	env, err := LoadEnv(envFile)
	if err != nil {
		return nil, err
	}
	files, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for k, v := range files {
		env[k] = v
	}
	return env, nil
}
