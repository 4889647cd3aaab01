package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/ctxd/internal/chunk"
	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/embed"
	"github.com/Aman-CERP/ctxd/internal/store"
)

// Manager implements the context management operations: store, get,
// update, delete, list. Each mutating pipeline holds the per-context-id
// lock end to end, and every step is idempotent (chunk sets replace, the
// embedder is deterministic), so a retried pipeline converges.
type Manager struct {
	store    store.Store
	embedder embed.Embedder
	chunker  *chunk.Chunker
	locks    *keyedMutex
	log      *slog.Logger
}

// Store creates a context from content and metadata, persists it, and runs
// the chunk → embed → save-chunks pipeline. The context is persisted
// before processing; if processing fails the context exists with an
// incomplete chunk set and the error tells the caller to retry, which
// re-runs processing safely.
func (m *Manager) Store(ctx context.Context, content string, metadata domain.ContextMetadata) (domain.Context, error) {
	c := domain.Context{
		ID:        domain.NewID(),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	m.locks.Lock(c.ID)
	defer m.locks.Unlock(c.ID)

	saved, err := m.store.SaveContext(ctx, c)
	if err != nil {
		return domain.Context{}, err
	}

	if err := m.process(ctx, saved); err != nil {
		return domain.Context{}, err
	}

	m.log.Debug("context stored",
		slog.String("context_id", saved.ID),
		slog.Int("content_bytes", len(saved.Content)))
	return saved, nil
}

// Get returns the context by id.
func (m *Manager) Get(ctx context.Context, id string) (domain.Context, error) {
	return m.store.FindByID(ctx, id)
}

// Update replaces a context's content and metadata and fully regenerates
// its chunk set. Fails with NotFound if the id is unknown.
func (m *Manager) Update(ctx context.Context, id string, content string, metadata domain.ContextMetadata) (domain.Context, error) {
	m.locks.Lock(id)
	defer m.locks.Unlock(id)

	c, err := m.store.FindByID(ctx, id)
	if err != nil {
		return domain.Context{}, err
	}

	c.Content = content
	c.Metadata = metadata

	// Drop the stale chunk set and index entries first; the pipeline
	// regenerates both from the new content.
	m.embedder.RemoveContext(id)
	if err := m.store.DeleteChunksByContextID(ctx, id); err != nil {
		return domain.Context{}, err
	}

	updated, err := m.store.UpdateContext(ctx, c)
	if err != nil {
		return domain.Context{}, err
	}

	if err := m.process(ctx, updated); err != nil {
		return domain.Context{}, err
	}

	m.log.Debug("context updated", slog.String("context_id", id))
	return updated, nil
}

// Delete removes a context and everything derived from it: index entries,
// the chunk set, then the context itself.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.locks.Lock(id)
	defer m.locks.Unlock(id)

	m.embedder.RemoveContext(id)
	if err := m.store.DeleteChunksByContextID(ctx, id); err != nil {
		return err
	}
	if err := m.store.DeleteContext(ctx, id); err != nil {
		return err
	}

	m.log.Debug("context deleted", slog.String("context_id", id))
	return nil
}

// List returns contexts, optionally filtered by tags (AND semantics),
// paginated over the store's stable ordering.
func (m *Manager) List(ctx context.Context, tags []string, limit, offset int) ([]domain.Context, error) {
	if len(tags) > 0 {
		return m.store.FindByTags(ctx, tags, limit, offset)
	}
	return m.store.ListAll(ctx, limit, offset)
}

// Rebuild repopulates the similarity index from persisted chunk sets.
// Embedding is deterministic, so re-embedding stored content reproduces
// the original vectors. Durable store backends call this at startup since
// the index itself lives only in memory. Contexts without a stored chunk
// set are skipped; the next update heals them.
func (m *Manager) Rebuild(ctx context.Context) error {
	const pageSize = 500

	for offset := 0; ; offset += pageSize {
		contexts, err := m.store.ListAll(ctx, pageSize, offset)
		if err != nil {
			return err
		}

		for _, c := range contexts {
			chunks, err := m.store.FindChunksByContextID(ctx, c.ID)
			if err != nil {
				m.log.Warn("context has no chunk set, skipping reindex",
					slog.String("context_id", c.ID))
				continue
			}
			if _, err := m.embedder.EmbedChunks(ctx, chunks, c.Metadata.Tags); err != nil {
				return err
			}
		}

		if len(contexts) < pageSize {
			break
		}
	}
	return nil
}

// process runs segment → embed → save-chunks for a persisted context.
// The chunk set is always saved, even when empty, so "zero chunks" stays
// representable in the store.
func (m *Manager) process(ctx context.Context, c domain.Context) error {
	chunks := m.chunker.Chunk(&c)

	embedded, err := m.embedder.EmbedChunks(ctx, chunks, c.Metadata.Tags)
	if err != nil {
		return err
	}

	if _, err := m.store.SaveChunks(ctx, c.ID, embedded); err != nil {
		return err
	}

	m.log.Debug("context processed",
		slog.String("context_id", c.ID),
		slog.Int("chunks", len(embedded)))
	return nil
}
