package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Aman-CERP/ctxd/internal/apperr"
	"github.com/Aman-CERP/ctxd/internal/domain"
)

// MemoryStore is the in-memory Store implementation. Contexts and chunk
// sets live behind independent locks; no operation ever holds both, so
// there is no lock ordering to get wrong.
type MemoryStore struct {
	ctxMu    sync.RWMutex
	contexts map[string]domain.Context

	chunkMu sync.RWMutex
	chunks  map[string][]domain.ContextChunk
}

// Verify interface implementation at compile time.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contexts: make(map[string]domain.Context),
		chunks:   make(map[string][]domain.ContextChunk),
	}
}

// SaveContext persists a new context, rejecting duplicate ids.
func (s *MemoryStore) SaveContext(_ context.Context, c domain.Context) (domain.Context, error) {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()

	if _, exists := s.contexts[c.ID]; exists {
		return domain.Context{}, apperr.AlreadyExists(c.ID)
	}
	s.contexts[c.ID] = c.Clone()
	return c, nil
}

// FindByID returns a snapshot of the context.
func (s *MemoryStore) FindByID(_ context.Context, id string) (domain.Context, error) {
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()

	c, ok := s.contexts[id]
	if !ok {
		return domain.Context{}, apperr.ContextNotFound(id)
	}
	return c.Clone(), nil
}

// UpdateContext overwrites an existing context.
func (s *MemoryStore) UpdateContext(_ context.Context, c domain.Context) (domain.Context, error) {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()

	if _, ok := s.contexts[c.ID]; !ok {
		return domain.Context{}, apperr.ContextNotFound(c.ID)
	}
	s.contexts[c.ID] = c.Clone()
	return c, nil
}

// DeleteContext removes the context, then its chunk set. The two maps are
// guarded separately, so the cascade is logical rather than atomic.
func (s *MemoryStore) DeleteContext(_ context.Context, id string) error {
	s.ctxMu.Lock()
	if _, ok := s.contexts[id]; !ok {
		s.ctxMu.Unlock()
		return apperr.ContextNotFound(id)
	}
	delete(s.contexts, id)
	s.ctxMu.Unlock()

	s.chunkMu.Lock()
	delete(s.chunks, id)
	s.chunkMu.Unlock()
	return nil
}

// FindByTags returns contexts carrying all requested tags, paginated.
func (s *MemoryStore) FindByTags(_ context.Context, tags []string, limit, offset int) ([]domain.Context, error) {
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()

	matching := make([]domain.Context, 0)
	for _, c := range s.contexts {
		if c.Metadata.HasAllTags(tags) {
			matching = append(matching, c)
		}
	}
	return paginate(matching, limit, offset), nil
}

// ListAll returns all contexts, paginated.
func (s *MemoryStore) ListAll(_ context.Context, limit, offset int) ([]domain.Context, error) {
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()

	all := make([]domain.Context, 0, len(s.contexts))
	for _, c := range s.contexts {
		all = append(all, c)
	}
	return paginate(all, limit, offset), nil
}

// SaveChunks replaces the chunk set for contextID.
func (s *MemoryStore) SaveChunks(_ context.Context, contextID string, chunks []domain.ContextChunk) ([]domain.ContextChunk, error) {
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

	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()

	s.chunks[contextID] = domain.CloneChunks(chunks)
	if s.chunks[contextID] == nil {
		s.chunks[contextID] = []domain.ContextChunk{}
	}
	return chunks, nil
}

// FindChunksByContextID returns the chunk set in position order.
func (s *MemoryStore) FindChunksByContextID(_ context.Context, contextID string) ([]domain.ContextChunk, error) {
	s.chunkMu.RLock()
	defer s.chunkMu.RUnlock()

	chunks, ok := s.chunks[contextID]
	if !ok {
		return nil, apperr.ChunksNotFound(contextID)
	}
	out := domain.CloneChunks(chunks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// DeleteChunksByContextID removes the chunk set if present.
func (s *MemoryStore) DeleteChunksByContextID(_ context.Context, contextID string) error {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()

	delete(s.chunks, contextID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// paginate sorts by (CreatedAt, ID) and applies offset/limit. Cloning
// happens here so callers never alias map values.
func paginate(contexts []domain.Context, limit, offset int) []domain.Context {
	sort.SliceStable(contexts, func(i, j int) bool {
		if !contexts[i].CreatedAt.Equal(contexts[j].CreatedAt) {
			return contexts[i].CreatedAt.Before(contexts[j].CreatedAt)
		}
		return contexts[i].ID < contexts[j].ID
	})

	if offset >= len(contexts) {
		return []domain.Context{}
	}
	contexts = contexts[offset:]
	if limit >= 0 && len(contexts) > limit {
		contexts = contexts[:limit]
	}

	out := make([]domain.Context, len(contexts))
	for i, c := range contexts {
		out[i] = c.Clone()
	}
	return out
}
