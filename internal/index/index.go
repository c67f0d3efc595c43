// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index keeps one embedding per talk in a per-conference SQLite
// store and answers nearest-neighbour queries by cosine similarity.
// Re-indexing an unchanged talk set does no embedding work.
package index

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/confplan/internal/embed"
	"github.com/pdiddy/confplan/internal/fsutil"
	"github.com/pdiddy/confplan/pkg/types"
)

// ErrUnavailable wraps every failure of the embedding backend or the store.
var ErrUnavailable = errors.New("embedding index unavailable")

const (
	stateIDSet = "id_set_digest"
	stateModel = "model"
)

// Index is the embedding store of one conference.
type Index struct {
	db       *sql.DB
	path     string
	embedder embed.Embedder

	// BatchSize bounds the texts handed to the embedder per call.
	BatchSize int
}

// Summary holds counts from an indexing run.
type Summary struct {
	Embedded int
	Skipped  int
	Deleted  int

	// Unchanged is set when the talk set and model match the last run and
	// nothing was read or written.
	Unchanged bool
}

// Hit is one query result.
type Hit struct {
	TalkID     string
	Similarity float64
}

// Open opens or creates <dir>/<conference>.index.db.
func Open(dir, conference string, e embed.Embedder) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating index directory: %v", ErrUnavailable, err)
	}
	path := PathFor(dir, conference)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrUnavailable, path, err)
	}
	x := &Index{db: db, path: path, embedder: e, BatchSize: types.DefaultBatchSize}
	if err := x.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrUnavailable, err)
	}
	return x, nil
}

// PathFor returns the database location for conference under dir.
func PathFor(dir, conference string) string {
	return filepath.Join(dir, fsutil.SafeName(conference)+".index.db")
}

// Remove deletes the database of conference together with its WAL files.
// Missing files are not an error.
func Remove(dir, conference string) error {
	base := PathFor(dir, conference)
	for _, path := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

// Path returns the database file location.
func (x *Index) Path() string { return x.path }

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS vectors (
			talk_id TEXT PRIMARY KEY,
			text_hash TEXT NOT NULL,
			model TEXT NOT NULL,
			vector BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS index_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Index stores one vector per talk, keyed by talk id and built from the
// talk's title and abstract. Rows whose text and model are unchanged are
// kept; rows for talks no longer present are removed. All writes happen in
// one transaction after every needed vector has been computed.
func (x *Index) Index(ctx context.Context, talks []types.Talk) (Summary, error) {
	model := x.embedder.Model()
	digest := idSetDigest(talks)

	state, err := x.state(ctx)
	if err != nil {
		return Summary{}, unavailable(err)
	}
	if state[stateIDSet] == digest && state[stateModel] == model {
		return Summary{Unchanged: true, Skipped: len(talks)}, nil
	}

	existing, err := x.rowHashes(ctx, model)
	if err != nil {
		return Summary{}, unavailable(err)
	}

	var summary Summary
	var pending []types.Talk
	var hashes []string
	current := make(map[string]bool, len(talks))
	for _, t := range talks {
		current[t.ID] = true
		h := textHash(t.SearchText())
		if existing[t.ID] == h {
			summary.Skipped++
			continue
		}
		pending = append(pending, t)
		hashes = append(hashes, h)
	}

	vectors, err := x.embedAll(ctx, pending)
	if err != nil {
		return Summary{}, unavailable(err)
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, unavailable(err)
	}
	defer tx.Rollback()

	for i, t := range pending {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vectors (talk_id, text_hash, model, vector) VALUES (?, ?, ?, ?)
			 ON CONFLICT(talk_id) DO UPDATE SET text_hash = excluded.text_hash,
			 model = excluded.model, vector = excluded.vector`,
			t.ID, hashes[i], model, encodeVector(vectors[i]),
		); err != nil {
			return Summary{}, unavailable(fmt.Errorf("upserting %s: %w", t.ID, err))
		}
		summary.Embedded++
	}

	stale, err := x.staleIDs(ctx, tx, current)
	if err != nil {
		return Summary{}, unavailable(err)
	}
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE talk_id = ?`, id); err != nil {
			return Summary{}, unavailable(fmt.Errorf("deleting %s: %w", id, err))
		}
		summary.Deleted++
	}

	for k, v := range map[string]string{stateIDSet: digest, stateModel: model} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO index_state (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v,
		); err != nil {
			return Summary{}, unavailable(fmt.Errorf("recording index state: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, unavailable(fmt.Errorf("committing index: %w", err))
	}
	return summary, nil
}

func (x *Index) embedAll(ctx context.Context, talks []types.Talk) ([][]float32, error) {
	size := x.BatchSize
	if size <= 0 {
		size = types.DefaultBatchSize
	}
	out := make([][]float32, 0, len(talks))
	for start := 0; start < len(talks); start += size {
		end := min(start+size, len(talks))
		texts := make([]string, 0, end-start)
		for _, t := range talks[start:end] {
			texts = append(texts, t.SearchText())
		}
		vecs, err := x.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding talks: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (x *Index) state(ctx context.Context) (map[string]string, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT key, value FROM index_state`)
	if err != nil {
		return nil, fmt.Errorf("reading index state: %w", err)
	}
	defer rows.Close()

	state := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning index state: %w", err)
		}
		state[k] = v
	}
	return state, rows.Err()
}

// rowHashes returns the text hash of every row built with model.
func (x *Index) rowHashes(ctx context.Context, model string) (map[string]string, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT talk_id, text_hash FROM vectors WHERE model = ?`, model)
	if err != nil {
		return nil, fmt.Errorf("reading vectors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, h string
		if err := rows.Scan(&id, &h); err != nil {
			return nil, fmt.Errorf("scanning vectors: %w", err)
		}
		out[id] = h
	}
	return out, rows.Err()
}

func (x *Index) staleIDs(ctx context.Context, tx *sql.Tx, current map[string]bool) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT talk_id FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("listing vectors: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning vectors: %w", err)
		}
		if !current[id] {
			stale = append(stale, id)
		}
	}
	return stale, rows.Err()
}

// Query returns the k talks most similar to vec, by cosine similarity
// clamped to [0,1], highest first; ties go to the lower talk id. k <= 0
// returns every talk.
func (x *Index) Query(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT talk_id, vector FROM vectors WHERE model = ?`, x.embedder.Model())
	if err != nil {
		return nil, unavailable(fmt.Errorf("querying vectors: %w", err))
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, unavailable(fmt.Errorf("scanning vectors: %w", err))
		}
		hits = append(hits, Hit{TalkID: id, Similarity: Similarity(vec, decodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].TalkID < hits[j].TalkID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// QueryText embeds text and queries with the result.
func (x *Index) QueryText(ctx context.Context, text string, k int) ([]Hit, error) {
	vecs, err := x.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, unavailable(fmt.Errorf("embedding query: %w", err))
	}
	if len(vecs) != 1 {
		return nil, unavailable(fmt.Errorf("embedder returned %d vectors for the query", len(vecs)))
	}
	return x.Query(ctx, vecs[0], k)
}

// Similarity is the cosine similarity of a and b mapped to [0,1] by
// clamping negatives to 0. Vectors of different length or zero norm score 0.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / math.Sqrt(na*nb)
	return math.Max(0, math.Min(1, s))
}

func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func idSetDigest(talks []types.Talk) string {
	ids := make([]string, len(talks))
	for i, t := range talks {
		ids[i] = t.ID
	}
	sort.Strings(ids)
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func textHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
