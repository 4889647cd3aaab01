// Package domain defines the core entities shared across the chunking,
// embedding, storage, and retrieval layers.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Context is a stored unit of text with metadata. IDs are UUIDv4 strings,
// assigned once at creation and immutable afterwards.
type Context struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Metadata  ContextMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"` // advisory only, not enforced
}

// ContextMetadata carries user-supplied attributes of a context.
type ContextMetadata struct {
	Source      string            `json:"source,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	ContentHash string            `json:"content_hash,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

// HasAllTags reports whether the metadata's tag set contains every
// requested tag (AND semantics). An empty request matches everything.
func (m ContextMetadata) HasAllTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range m.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ContextChunk is a contiguous window of a context's content. Position is
// the byte offset of the window's start within the content at the time of
// chunking. Embedding is nil until the chunk has been vectorized.
type ContextChunk struct {
	ContextID string    `json:"context_id"`
	ChunkID   string    `json:"chunk_id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	Position  int       `json:"position"`
}

// ContextReference points at a context (and optionally a subset of its
// chunks) for direct retrieval. Weight defaults to 1.0 when nil.
type ContextReference struct {
	ContextID string   `json:"context_id"`
	ChunkIDs  []string `json:"chunk_ids,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
}

// ContextMatch pairs a context with its chunks and a relevance score for a
// single retrieval call. Matches are ephemeral and never persisted.
type ContextMatch struct {
	Context Context        `json:"context"`
	Chunks  []ContextChunk `json:"chunks"`
	Score   float64        `json:"score"`
}

// SearchResult is the ordered outcome of a retrieval call. TotalMatches
// equals len(Matches); there is no separate total-count tracking.
type SearchResult struct {
	Matches      []ContextMatch `json:"matches"`
	TotalMatches int            `json:"total_matches"`
}

// NewID returns a fresh UUIDv4 string for contexts and chunks.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the context so callers never hold aliases
// into store-owned state.
func (c Context) Clone() Context {
	out := c
	out.Metadata = c.Metadata.Clone()
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// Clone returns a deep copy of the metadata.
func (m ContextMetadata) Clone() ContextMetadata {
	out := m
	if m.Tags != nil {
		out.Tags = make([]string, len(m.Tags))
		copy(out.Tags, m.Tags)
	}
	if m.Custom != nil {
		out.Custom = make(map[string]string, len(m.Custom))
		for k, v := range m.Custom {
			out.Custom[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of the chunk, including its embedding.
func (c ContextChunk) Clone() ContextChunk {
	out := c
	if c.Embedding != nil {
		out.Embedding = make([]float32, len(c.Embedding))
		copy(out.Embedding, c.Embedding)
	}
	return out
}

// CloneChunks deep-copies a chunk slice.
func CloneChunks(chunks []ContextChunk) []ContextChunk {
	if chunks == nil {
		return nil
	}
	out := make([]ContextChunk, len(chunks))
	for i, c := range chunks {
		out[i] = c.Clone()
	}
	return out
}
