// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package talkcache persists extracted talks so the abstract book is parsed
// once per source file. The cache is one versioned YAML document per
// conference; a missing, stale or unreadable file is a cache miss.
package talkcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/confplan/internal/fsutil"
	"github.com/pdiddy/confplan/pkg/types"
)

// SchemaVersion is the version of the cache document layout. Documents with
// any other version are rejected.
const SchemaVersion = 1

var (
	// ErrCacheMiss means no cache exists for the key.
	ErrCacheMiss = errors.New("talk cache miss")

	// ErrCacheCorrupt means the cache file exists but cannot be trusted.
	ErrCacheCorrupt = errors.New("talk cache corrupt")
)

// document is the on-disk layout.
type document struct {
	SchemaVersion int          `yaml:"schema_version"`
	Key           string       `yaml:"key"`
	Conference    string       `yaml:"conference"`
	SavedAt       time.Time    `yaml:"saved_at"`
	Talks         []types.Talk `yaml:"talks"`
}

// Store reads and writes the talk cache of one conference.
type Store struct {
	dir        string
	conference string

	// Now stamps saved documents; tests replace it.
	Now func() time.Time
}

// New returns a Store keeping <dir>/<conference>.talks.yaml.
func New(dir, conference string) *Store {
	return &Store{dir: dir, conference: conference, Now: time.Now}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fsutil.SafeName(s.conference)+".talks.yaml")
}

// KeyForFile derives a cache key from the source file identity: absolute
// path, modification time, size and an optional version string.
func KeyForFile(path, version string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%s", abs, info.ModTime().UnixNano(), info.Size(), version)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load returns the cached talks for key. It returns an error wrapping
// ErrCacheMiss when there is no cache for key, or ErrCacheCorrupt when the
// file cannot be decoded or fails validation.
func (s *Store) Load(key string) ([]types.Talk, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d, want %d", ErrCacheCorrupt, doc.SchemaVersion, SchemaVersion)
	}
	if doc.Key == "" {
		return nil, fmt.Errorf("%w: missing key", ErrCacheCorrupt)
	}
	if doc.Key != key {
		return nil, fmt.Errorf("%w: source changed", ErrCacheMiss)
	}
	for i, t := range doc.Talks {
		if t.ID == "" || t.Title == "" {
			return nil, fmt.Errorf("%w: talk %d lacks id or title", ErrCacheCorrupt, i)
		}
	}
	return doc.Talks, nil
}

// Save writes talks under key, replacing any previous cache atomically.
func (s *Store) Save(key string, talks []types.Talk) error {
	doc := document{
		SchemaVersion: SchemaVersion,
		Key:           key,
		Conference:    s.conference,
		SavedAt:       s.Now().UTC(),
		Talks:         talks,
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling talk cache: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.Path(), data); err != nil {
		return fmt.Errorf("writing talk cache: %w", err)
	}
	return nil
}

// Invalidate removes the cache file. A missing file is not an error.
func (s *Store) Invalidate() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing talk cache: %w", err)
	}
	return nil
}
