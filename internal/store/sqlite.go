package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/ctxd/internal/apperr"
	"github.com/Aman-CERP/ctxd/internal/domain"
)

// SQLiteStore is the durable Store implementation backed by SQLite.
// WAL mode allows concurrent readers alongside a writer.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time.
var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS contexts (
    id           TEXT PRIMARY KEY,
    content      TEXT NOT NULL,
    source       TEXT NOT NULL DEFAULT '',
    content_type TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    tags         TEXT NOT NULL DEFAULT '[]',
    custom       TEXT NOT NULL DEFAULT '{}',
    created_at   INTEGER NOT NULL,
    expires_at   INTEGER
);

CREATE TABLE IF NOT EXISTS chunk_sets (
    context_id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS chunks (
    chunk_id   TEXT PRIMARY KEY,
    context_id TEXT NOT NULL,
    content    TEXT NOT NULL,
    embedding  BLOB,
    position   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_context ON chunks(context_id);
CREATE INDEX IF NOT EXISTS idx_contexts_created ON contexts(created_at, id);
`

// validateIntegrity checks an existing database file before opening it for
// real. Returns nil if the file is absent (it will be created).
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteStore opens (or creates) a SQLite-backed store at path.
// An empty path creates an in-memory database for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperr.Storage("cannot create data directory", err).WithDetail("dir", dir)
		}
		if err := validateIntegrity(path); err != nil {
			return nil, apperr.Storage("database failed validation", err).WithDetail("path", path)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperr.Storage("cannot open database", err).WithDetail("path", path)
	}

	// Serialize all access through one connection; modernc.org/sqlite
	// does not support concurrent writers on separate connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, apperr.Storage("cannot apply pragma", err).WithDetail("pragma", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, apperr.Storage("cannot create schema", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// SaveContext persists a new context, rejecting duplicate ids.
func (s *SQLiteStore) SaveContext(ctx context.Context, c domain.Context) (domain.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Context{}, apperr.Storage("store is closed", nil)
	}

	tags, custom, err := encodeMetadata(c.Metadata)
	if err != nil {
		return domain.Context{}, err
	}

	var expiresAt any
	if c.ExpiresAt != nil {
		expiresAt = c.ExpiresAt.UnixNano()
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO contexts (id, content, source, content_type, content_hash, tags, custom, created_at, expires_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Content, c.Metadata.Source, c.Metadata.ContentType, c.Metadata.ContentHash,
		tags, custom, c.CreatedAt.UnixNano(), expiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Context{}, apperr.AlreadyExists(c.ID)
		}
		return domain.Context{}, apperr.Storage("cannot save context", err)
	}
	return c, nil
}

// FindByID returns the stored context or NotFound.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (domain.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.Context{}, apperr.Storage("store is closed", nil)
	}

	row := s.db.QueryRowContext(ctx, `
        SELECT id, content, source, content_type, content_hash, tags, custom, created_at, expires_at
        FROM contexts WHERE id = ?`, id)

	c, err := scanContext(row)
	if err == sql.ErrNoRows {
		return domain.Context{}, apperr.ContextNotFound(id)
	}
	if err != nil {
		return domain.Context{}, apperr.Storage("cannot load context", err)
	}
	return c, nil
}

// UpdateContext overwrites an existing context.
func (s *SQLiteStore) UpdateContext(ctx context.Context, c domain.Context) (domain.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Context{}, apperr.Storage("store is closed", nil)
	}

	tags, custom, err := encodeMetadata(c.Metadata)
	if err != nil {
		return domain.Context{}, err
	}

	var expiresAt any
	if c.ExpiresAt != nil {
		expiresAt = c.ExpiresAt.UnixNano()
	}

	res, err := s.db.ExecContext(ctx, `
        UPDATE contexts
        SET content = ?, source = ?, content_type = ?, content_hash = ?, tags = ?, custom = ?, created_at = ?, expires_at = ?
        WHERE id = ?`,
		c.Content, c.Metadata.Source, c.Metadata.ContentType, c.Metadata.ContentHash,
		tags, custom, c.CreatedAt.UnixNano(), expiresAt, c.ID)
	if err != nil {
		return domain.Context{}, apperr.Storage("cannot update context", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Context{}, apperr.ContextNotFound(c.ID)
	}
	return c, nil
}

// DeleteContext removes the context, cascading to its chunk set in the
// same transaction.
func (s *SQLiteStore) DeleteContext(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperr.Storage("store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM contexts WHERE id = ?`, id)
	if err != nil {
		return apperr.Storage("cannot delete context", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ContextNotFound(id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE context_id = ?`, id); err != nil {
		return apperr.Storage("cannot delete chunks", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_sets WHERE context_id = ?`, id); err != nil {
		return apperr.Storage("cannot delete chunk set", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage("cannot commit delete", err)
	}
	return nil
}

// FindByTags returns contexts carrying all requested tags, paginated over
// the stable (created_at, id) ordering. Tag matching happens in Go so the
// superset semantics stay identical to the in-memory store.
func (s *SQLiteStore) FindByTags(ctx context.Context, tags []string, limit, offset int) ([]domain.Context, error) {
	all, err := s.queryContexts(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]domain.Context, 0, len(all))
	for _, c := range all {
		if c.Metadata.HasAllTags(tags) {
			matching = append(matching, c)
		}
	}
	return sliceWindow(matching, limit, offset), nil
}

// ListAll returns all contexts, paginated.
func (s *SQLiteStore) ListAll(ctx context.Context, limit, offset int) ([]domain.Context, error) {
	all, err := s.queryContexts(ctx)
	if err != nil {
		return nil, err
	}
	return sliceWindow(all, limit, offset), nil
}

func (s *SQLiteStore) queryContexts(ctx context.Context) ([]domain.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, apperr.Storage("store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, content, source, content_type, content_hash, tags, custom, created_at, expires_at
        FROM contexts ORDER BY created_at, id`)
	if err != nil {
		return nil, apperr.Storage("cannot list contexts", err)
	}
	defer rows.Close()

	var out []domain.Context
	for rows.Next() {
		c, err := scanContext(rows)
		if err != nil {
			return nil, apperr.Storage("cannot scan context", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("row iteration failed", err)
	}
	return out, nil
}

// SaveChunks replaces the chunk set for contextID in one transaction.
func (s *SQLiteStore) SaveChunks(ctx context.Context, contextID string, chunks []domain.ContextChunk) ([]domain.ContextChunk, error) {
	if contextID == "" {
		return nil, apperr.Validation("context id is required", nil)
	}
	for _, c := range chunks {
		if c.ContextID != contextID {
			return nil, apperr.Validation("chunk batch is not homogeneous in context id", nil).
				WithDetail("expected", contextID).
				WithDetail("got", c.ContextID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, apperr.Storage("store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE context_id = ?`, contextID); err != nil {
		return nil, apperr.Storage("cannot clear chunk set", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO chunk_sets (context_id) VALUES (?)`, contextID); err != nil {
		return nil, apperr.Storage("cannot record chunk set", err)
	}

	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO chunks (chunk_id, context_id, content, embedding, position)
            VALUES (?, ?, ?, ?, ?)`,
			c.ChunkID, c.ContextID, c.Content, encodeEmbedding(c.Embedding), c.Position); err != nil {
			return nil, apperr.Storage("cannot save chunk", err).WithDetail("chunk_id", c.ChunkID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage("cannot commit chunk set", err)
	}
	return chunks, nil
}

// FindChunksByContextID returns the chunk set in position order, or
// NotFound if no set was ever stored.
func (s *SQLiteStore) FindChunksByContextID(ctx context.Context, contextID string) ([]domain.ContextChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, apperr.Storage("store is closed", nil)
	}

	var present int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunk_sets WHERE context_id = ?`, contextID).Scan(&present)
	if err != nil {
		return nil, apperr.Storage("cannot check chunk set", err)
	}
	if present == 0 {
		return nil, apperr.ChunksNotFound(contextID)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT chunk_id, context_id, content, embedding, position
        FROM chunks WHERE context_id = ? ORDER BY position`, contextID)
	if err != nil {
		return nil, apperr.Storage("cannot load chunks", err)
	}
	defer rows.Close()

	out := []domain.ContextChunk{}
	for rows.Next() {
		var c domain.ContextChunk
		var blob []byte
		if err := rows.Scan(&c.ChunkID, &c.ContextID, &c.Content, &blob, &c.Position); err != nil {
			return nil, apperr.Storage("cannot scan chunk", err)
		}
		c.Embedding = decodeEmbedding(blob)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("row iteration failed", err)
	}
	return out, nil
}

// DeleteChunksByContextID removes the chunk set. Missing sets are ignored.
func (s *SQLiteStore) DeleteChunksByContextID(ctx context.Context, contextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperr.Storage("store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE context_id = ?`, contextID); err != nil {
		return apperr.Storage("cannot delete chunks", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_sets WHERE context_id = ?`, contextID); err != nil {
		return apperr.Storage("cannot delete chunk set", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage("cannot commit delete", err)
	}
	return nil
}

// Close closes the database. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanContext(row scanner) (domain.Context, error) {
	var c domain.Context
	var tags, custom string
	var createdAt int64
	var expiresAt sql.NullInt64

	err := row.Scan(&c.ID, &c.Content, &c.Metadata.Source, &c.Metadata.ContentType,
		&c.Metadata.ContentHash, &tags, &custom, &createdAt, &expiresAt)
	if err != nil {
		return domain.Context{}, err
	}

	if err := json.Unmarshal([]byte(tags), &c.Metadata.Tags); err != nil {
		return domain.Context{}, fmt.Errorf("corrupt tags column: %w", err)
	}
	if err := json.Unmarshal([]byte(custom), &c.Metadata.Custom); err != nil {
		return domain.Context{}, fmt.Errorf("corrupt custom column: %w", err)
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64).UTC()
		c.ExpiresAt = &t
	}
	return c, nil
}

func encodeMetadata(m domain.ContextMetadata) (tags string, custom string, err error) {
	tagList := m.Tags
	if tagList == nil {
		tagList = []string{}
	}
	customMap := m.Custom
	if customMap == nil {
		customMap = map[string]string{}
	}

	tagBytes, err := json.Marshal(tagList)
	if err != nil {
		return "", "", apperr.Storage("cannot encode tags", err)
	}
	customBytes, err := json.Marshal(customMap)
	if err != nil {
		return "", "", apperr.Storage("cannot encode custom metadata", err)
	}
	return string(tagBytes), string(customBytes), nil
}

// encodeEmbedding packs a vector as little-endian float32. Nil stays nil.
func encodeEmbedding(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out
}

// isUniqueViolation detects a primary key conflict from the driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// sliceWindow applies offset/limit to an already-ordered slice.
func sliceWindow(contexts []domain.Context, limit, offset int) []domain.Context {
	if offset >= len(contexts) {
		return []domain.Context{}
	}
	contexts = contexts[offset:]
	if limit >= 0 && len(contexts) > limit {
		contexts = contexts[:limit]
	}
	return contexts
}
