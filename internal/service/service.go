// Package service composes the chunker, embedder, store, and ranker into
// the ingest and retrieval pipelines.
package service

import (
	"log/slog"

	"github.com/Aman-CERP/ctxd/internal/chunk"
	"github.com/Aman-CERP/ctxd/internal/embed"
	"github.com/Aman-CERP/ctxd/internal/rank"
	"github.com/Aman-CERP/ctxd/internal/store"
)

// Config tunes the pipelines.
type Config struct {
	// MaxChunkSize is the chunk window size in bytes.
	MaxChunkSize int

	// ChunkOverlap is the overlap between consecutive windows in bytes.
	// Must be smaller than MaxChunkSize.
	ChunkOverlap int

	// MaxResults caps the number of matches a retrieval call returns.
	MaxResults int

	// TagCandidateGating controls what the tag-scoped similarity pass in
	// SearchWithTags does with its result. Off (the default) computes it
	// purely as a recall signal and ranks every tag-matched context,
	// preserving the historical behavior. On, only tag-matched contexts
	// that own a returned candidate chunk are ranked.
	TagCandidateGating bool
}

// DefaultConfig returns the standard pipeline parameters.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: chunk.DefaultMaxChunkSize,
		ChunkOverlap: chunk.DefaultOverlap,
		MaxResults:   rank.DefaultMaxResults,
	}
}

// New wires a Manager and a Searcher over the same store and embedder.
// The two share the per-context-id lock table, so management pipelines
// and each other cannot interleave on a single context.
func New(st store.Store, embedder embed.Embedder, cfg Config, logger *slog.Logger) (*Manager, *Searcher, error) {
	chunker, err := chunk.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	locks := newKeyedMutex()
	manager := &Manager{
		store:    st,
		embedder: embedder,
		chunker:  chunker,
		locks:    locks,
		log:      logger,
	}
	searcher := &Searcher{
		store:    st,
		embedder: embedder,
		ranker:   rank.NewRanker(cfg.MaxResults),
		gating:   cfg.TagCandidateGating,
		log:      logger,
	}
	return manager, searcher, nil
}
