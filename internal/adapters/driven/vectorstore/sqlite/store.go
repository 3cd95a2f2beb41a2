// Package sqlite implements the vector store on a single SQLite database
// file. Embeddings are stored as little-endian float32 blobs and scored
// with cosine similarity in process; a manifest table records the embedding
// dimension and model so stale indexes are detected on open.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure Store implements the port.
var _ driven.VectorStore = (*Store)(nil)

// stagingSuffix is appended to the index path while a rebuild is in flight.
const stagingSuffix = ".staging"

// manifest keys.
const (
	manifestDimension = "dimension"
	manifestModel     = "model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS manifest (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		language TEXT NOT NULL,
		file_path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		parent_id TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);
`

// Options configures how the store is opened.
type Options struct {
	// Staging writes to a side file committed over the index by Persist.
	// Staging opens take an exclusive lock so only one rebuild runs at a
	// time.
	Staging bool

	// Model is the embedding model name recorded in the manifest. When
	// opening an existing index with a non-empty Model that differs from
	// the recorded one, Open fails.
	Model string
}

// Store is a SQLite-backed vector store.
type Store struct {
	mu sync.Mutex

	db        *sql.DB
	path      string // path currently backing db
	finalPath string // committed index location
	staging   bool
	lock      *flock.Flock

	dim   int
	model string
}

// Open opens (or creates) the vector store at path.
func Open(path string, opts Options) (*Store, error) {
	s := &Store{
		finalPath: path,
		path:      path,
		staging:   opts.Staging,
		model:     opts.Model,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	if opts.Staging {
		s.lock = flock.New(path + ".lock")
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring index lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("index at %s is locked by another writer", path)
		}
		s.path = path + stagingSuffix
		// A leftover staging file from a crashed rebuild is discarded.
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			s.releaseLock()
			return nil, fmt.Errorf("clearing stale staging file: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		s.releaseLock()
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	s.db = db

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		s.releaseLock()
		return nil, fmt.Errorf("initializing index schema: %w", err)
	}

	if err := s.loadManifest(); err != nil {
		db.Close()
		s.releaseLock()
		return nil, err
	}

	return s, nil
}

// Exists reports whether a committed index is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// loadManifest reads the recorded dimension and model and validates them
// against the options the store was opened with.
func (s *Store) loadManifest() error {
	rows, err := s.db.Query(`SELECT key, value FROM manifest`)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scanning manifest: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating manifest: %w", err)
	}

	if raw, ok := values[manifestDimension]; ok {
		dim, err := strconv.Atoi(raw)
		if err != nil || dim <= 0 {
			return fmt.Errorf("manifest dimension %q: %w", raw, domain.ErrIndexCorrupted)
		}
		s.dim = dim
	}

	if recorded, ok := values[manifestModel]; ok && recorded != "" {
		if s.model != "" && s.model != recorded {
			return fmt.Errorf("index was built with model %q, not %q: %w",
				recorded, s.model, domain.ErrIndexCorrupted)
		}
		if s.model == "" {
			s.model = recorded
		}
	}

	// An index with chunks but no recorded dimension cannot be queried.
	if s.dim == 0 {
		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
			return fmt.Errorf("counting chunks: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("index holds %d chunks without a manifest: %w",
				count, domain.ErrIndexCorrupted)
		}
	}

	return nil
}

// Model returns the embedding model recorded for this index.
func (s *Store) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Dimensions returns the declared embedding dimension, zero before the
// first upsert.
func (s *Store) Dimensions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

// Upsert adds or replaces chunks by ID. The first upsert fixes the store's
// embedding dimension; later vectors must match it.
func (s *Store) Upsert(ctx context.Context, entries []domain.Chunk) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range entries {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding: %w", c.ID, domain.ErrInvalidChunk)
		}
		if s.dim == 0 {
			s.dim = len(c.Embedding)
		} else if len(c.Embedding) != s.dim {
			return fmt.Errorf("chunk %s has dimension %d, index has %d: %w",
				c.ID, len(c.Embedding), s.dim, domain.ErrDimensionMismatch)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, kind, name, language, file_path, start_line,
			end_line, parent_id, content, explanation, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			language = excluded.language,
			file_path = excluded.file_path,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			parent_id = excluded.parent_id,
			content = excluded.content,
			explanation = excluded.explanation,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range entries {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Kind, c.Name, c.Language,
			c.FilePath, c.StartLine, c.EndLine, c.ParentID, c.Content,
			c.Explanation, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", c.ID, err)
		}
	}

	if err := s.writeManifestTx(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

func (s *Store) writeManifestTx(ctx context.Context, tx *sql.Tx) error {
	upsert := `
		INSERT INTO manifest (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := tx.ExecContext(ctx, upsert, manifestDimension, strconv.Itoa(s.dim)); err != nil {
		return fmt.Errorf("writing manifest dimension: %w", err)
	}
	if s.model != "" {
		if _, err := tx.ExecContext(ctx, upsert, manifestModel, s.model); err != nil {
			return fmt.Errorf("writing manifest model: %w", err)
		}
	}
	return nil
}

// Query returns the k chunks most similar to vector by cosine similarity,
// ties broken by ascending chunk ID.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	dim := s.dim
	s.mu.Unlock()

	if dim == 0 {
		return nil, nil // empty index
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("query vector has dimension %d, index has %d: %w",
			len(vector), dim, domain.ErrDimensionMismatch)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, language, file_path, start_line, end_line,
			parent_id, content, explanation, embedding
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Kind, &c.Name, &c.Language, &c.FilePath,
			&c.StartLine, &c.EndLine, &c.ParentID, &c.Content, &c.Explanation,
			&blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if len(blob) != dim*4 {
			return nil, fmt.Errorf("chunk %s embedding blob has %d bytes, want %d: %w",
				c.ID, len(blob), dim*4, domain.ErrIndexCorrupted)
		}
		c.Embedding = bytesToFloat32Slice(blob)
		scored = append(scored, domain.ScoredChunk{
			Chunk: c,
			Score: cosineSimilarity(vector, c.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Persist commits the store. A staging store is atomically renamed over the
// committed index and reopened there; a direct store checkpoints its WAL.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.staging {
		if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
			return fmt.Errorf("checkpointing index: %w", err)
		}
		return nil
	}

	// Fold the WAL into the staging file before the swap so the rename
	// carries the complete database.
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpointing staging index: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing staging index: %w", err)
	}

	if err := os.Rename(s.path, s.finalPath); err != nil {
		return fmt.Errorf("committing staging index: %w", err)
	}

	db, err := sql.Open("sqlite", s.finalPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("reopening committed index: %w", err)
	}
	s.db = db
	s.path = s.finalPath
	s.staging = false
	s.releaseLock()
	return nil
}

// Close releases the database and any held lock. Staged writes that were
// not persisted are discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Close()
	if s.staging {
		// Drop the uncommitted staging file.
		if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = rmErr
		}
	}
	s.releaseLock()
	return err
}

func (s *Store) releaseLock() {
	if s.lock != nil {
		s.lock.Unlock() //nolint:errcheck
		s.lock = nil
	}
}

// cosineSimilarity computes the cosine of the angle between two equal-length
// vectors. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
