// Package embed attaches deterministic vector embeddings to context chunks
// and serves similarity queries over the resulting in-memory index.
//
// The index is a candidate-generation signal only: it narrows the search
// space by cosine similarity, and final relevance scores come from the
// exact term-overlap reranker. Chunk content authority stays with the
// context store; the index holds snapshots.
package embed

import (
	"context"
	"sort"
	"sync"

	"github.com/Aman-CERP/ctxd/internal/apperr"
	"github.com/Aman-CERP/ctxd/internal/domain"
)

// SimilarChunk pairs a chunk snapshot with its cosine similarity to a query.
type SimilarChunk struct {
	Chunk domain.ContextChunk
	Score float64
}

// Embedder generates embeddings for chunks and finds similar chunks.
type Embedder interface {
	// EmbedChunks attaches a vector to every chunk and records the chunk
	// in the similarity index. tags is the owning context's tag set,
	// captured so tag-scoped queries can filter the candidate pool.
	// Deterministic and idempotent: re-embedding identical content is safe.
	EmbedChunks(ctx context.Context, chunks []domain.ContextChunk, tags []string) ([]domain.ContextChunk, error)

	// FindSimilar returns up to limit chunks ranked by cosine similarity
	// to the query, highest first.
	FindSimilar(ctx context.Context, query string, limit int) ([]SimilarChunk, error)

	// FindSimilarWithTags is FindSimilar restricted to chunks whose
	// context carried all the given tags at embed time.
	FindSimilarWithTags(ctx context.Context, query string, tags []string, limit int) ([]SimilarChunk, error)

	// RemoveContext drops all index entries for a context. Idempotent.
	RemoveContext(contextID string)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// indexEntry is one indexed chunk: a content snapshot, its vector, and the
// owning context's tags at embed time.
type indexEntry struct {
	chunk  domain.ContextChunk
	vector []float32
	tags   map[string]struct{}
}

// IndexEmbedder implements Embedder with an exhaustive-scan in-memory
// index. The linear scan is acceptable because the index is not the
// primary source of truth and corpus sizes are bounded by memory anyway.
type IndexEmbedder struct {
	mu         sync.RWMutex
	vectorizer Vectorizer
	entries    map[string]*indexEntry // chunk id -> entry
	byContext  map[string][]string    // context id -> chunk ids
	closed     bool
}

// Verify interface implementation at compile time.
var _ Embedder = (*IndexEmbedder)(nil)

// NewIndexEmbedder creates an embedder over the given vectorizer.
func NewIndexEmbedder(vectorizer Vectorizer) *IndexEmbedder {
	return &IndexEmbedder{
		vectorizer: vectorizer,
		entries:    make(map[string]*indexEntry),
		byContext:  make(map[string][]string),
	}
}

// EmbedChunks vectorizes each chunk and updates the index keyed by chunk id.
func (e *IndexEmbedder) EmbedChunks(_ context.Context, chunks []domain.ContextChunk, tags []string) ([]domain.ContextChunk, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, apperr.Embedding("embedder is closed", nil)
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	out := make([]domain.ContextChunk, len(chunks))
	for i, chunk := range chunks {
		vector := e.vectorizer.Vectorize(chunk.Content)

		chunk.Embedding = vector
		out[i] = chunk.Clone()

		e.entries[chunk.ChunkID] = &indexEntry{
			chunk:  chunk.Clone(),
			vector: vector,
			tags:   tagSet,
		}
		e.byContext[chunk.ContextID] = append(e.byContext[chunk.ContextID], chunk.ChunkID)
	}

	return out, nil
}

// FindSimilar scans the whole index and returns the top-limit chunks by
// cosine similarity, highest first. Ties are broken by chunk id so the
// ordering is deterministic.
func (e *IndexEmbedder) FindSimilar(ctx context.Context, query string, limit int) ([]SimilarChunk, error) {
	return e.findSimilar(ctx, query, nil, limit)
}

// FindSimilarWithTags restricts the candidate pool to chunks whose context
// tags are a superset of the requested tags before scoring.
func (e *IndexEmbedder) FindSimilarWithTags(ctx context.Context, query string, tags []string, limit int) ([]SimilarChunk, error) {
	return e.findSimilar(ctx, query, tags, limit)
}

func (e *IndexEmbedder) findSimilar(_ context.Context, query string, tags []string, limit int) ([]SimilarChunk, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, apperr.Embedding("embedder is closed", nil)
	}
	if limit <= 0 {
		return []SimilarChunk{}, nil
	}

	queryVector := e.vectorizer.Vectorize(query)

	results := make([]SimilarChunk, 0, len(e.entries))
	for _, entry := range e.entries {
		if !hasAllTags(entry.tags, tags) {
			continue
		}
		results = append(results, SimilarChunk{
			Chunk: entry.chunk.Clone(),
			Score: CosineSimilarity(queryVector, entry.vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ChunkID < results[j].Chunk.ChunkID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// RemoveContext drops every indexed chunk belonging to the context.
func (e *IndexEmbedder) RemoveContext(contextID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, chunkID := range e.byContext[contextID] {
		delete(e.entries, chunkID)
	}
	delete(e.byContext, contextID)
}

// Dimensions returns the embedding dimension.
func (e *IndexEmbedder) Dimensions() int { return e.vectorizer.Dimensions() }

// Count returns the number of indexed chunks.
func (e *IndexEmbedder) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// Close releases resources. Subsequent calls fail fast.
func (e *IndexEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.entries = nil
	e.byContext = nil
	return nil
}

func hasAllTags(have map[string]struct{}, want []string) bool {
	for _, tag := range want {
		if _, ok := have[tag]; !ok {
			return false
		}
	}
	return true
}
