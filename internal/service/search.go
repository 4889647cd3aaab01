package service

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/embed"
	"github.com/Aman-CERP/ctxd/internal/rank"
	"github.com/Aman-CERP/ctxd/internal/store"
)

// tagScanLimit caps how many tag-matched contexts a tag-scoped search
// considers. Fixed internal bound, not exposed to callers.
const tagScanLimit = 1000

// Searcher implements the retrieval operations: similarity search,
// tag-scoped search, and explicit reference resolution. Retrieval is
// best-effort: ids that fail to resolve are skipped, never surfaced.
type Searcher struct {
	store    store.Store
	embedder embed.Embedder
	ranker   *rank.Ranker
	gating   bool
	log      *slog.Logger
}

// Search finds contexts relevant to the query: the similarity index
// proposes candidate chunks, their owning contexts are resolved, and the
// term-overlap ranker produces the final ordering.
func (s *Searcher) Search(ctx context.Context, query string, limit int) (domain.SearchResult, error) {
	similar, err := s.embedder.FindSimilar(ctx, query, limit)
	if err != nil {
		return domain.SearchResult{}, err
	}

	// Distinct owning contexts, first-seen order.
	seen := make(map[string]struct{})
	var contextIDs []string
	for _, cand := range similar {
		if _, ok := seen[cand.Chunk.ContextID]; !ok {
			seen[cand.Chunk.ContextID] = struct{}{}
			contextIDs = append(contextIDs, cand.Chunk.ContextID)
		}
	}

	contexts, chunksByContext := s.resolve(ctx, contextIDs)
	scored := s.ranker.Rank(query, contexts, flatten(chunksByContext, contexts))
	return s.toResult(scored, chunksByContext), nil
}

// SearchWithTags ranks contexts that carry all the given tags. The
// tag-scoped similarity pass runs either as a pure recall signal (default)
// or, with candidate gating enabled, as a restriction on the ranked set.
func (s *Searcher) SearchWithTags(ctx context.Context, query string, tags []string, limit int) (domain.SearchResult, error) {
	tagged, err := s.store.FindByTags(ctx, tags, tagScanLimit, 0)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if len(tagged) == 0 {
		return domain.SearchResult{Matches: []domain.ContextMatch{}}, nil
	}

	candidates, err := s.embedder.FindSimilarWithTags(ctx, query, tags, limit)
	if err != nil {
		return domain.SearchResult{}, err
	}

	if s.gating {
		withCandidate := make(map[string]struct{}, len(candidates))
		for _, cand := range candidates {
			withCandidate[cand.Chunk.ContextID] = struct{}{}
		}
		gated := tagged[:0]
		for _, c := range tagged {
			if _, ok := withCandidate[c.ID]; ok {
				gated = append(gated, c)
			}
		}
		tagged = gated
	}

	chunksByContext := make(map[string][]domain.ContextChunk, len(tagged))
	for _, c := range tagged {
		chunks, err := s.store.FindChunksByContextID(ctx, c.ID)
		if err != nil {
			continue // best-effort: a context without a chunk set still ranks
		}
		chunksByContext[c.ID] = chunks
	}

	scored := s.ranker.Rank(query, tagged, flatten(chunksByContext, tagged))
	return s.toResult(scored, chunksByContext), nil
}

// RetrieveByReferences resolves explicit references into matches, scoring
// each with its reference weight (default 1.0). Unresolvable references
// are skipped silently; that approximate semantic is deliberate.
func (s *Searcher) RetrieveByReferences(ctx context.Context, references []domain.ContextReference) (domain.SearchResult, error) {
	matches := make([]domain.ContextMatch, 0, len(references))

	for _, ref := range references {
		c, err := s.store.FindByID(ctx, ref.ContextID)
		if err != nil {
			s.log.Debug("skipping unresolvable reference", slog.String("context_id", ref.ContextID))
			continue
		}

		chunks, err := s.store.FindChunksByContextID(ctx, c.ID)
		if err != nil {
			s.log.Debug("skipping reference without chunks", slog.String("context_id", ref.ContextID))
			continue
		}

		if len(ref.ChunkIDs) > 0 {
			wanted := make(map[string]struct{}, len(ref.ChunkIDs))
			for _, id := range ref.ChunkIDs {
				wanted[id] = struct{}{}
			}
			filtered := chunks[:0]
			for _, chunk := range chunks {
				if _, ok := wanted[chunk.ChunkID]; ok {
					filtered = append(filtered, chunk)
				}
			}
			chunks = filtered
		}

		score := 1.0
		if ref.Weight != nil {
			score = *ref.Weight
		}

		matches = append(matches, domain.ContextMatch{
			Context: c,
			Chunks:  chunks,
			Score:   score,
		})
	}

	return domain.SearchResult{Matches: matches, TotalMatches: len(matches)}, nil
}

// resolve fetches contexts and their chunk sets, silently skipping ids
// that fail either lookup.
func (s *Searcher) resolve(ctx context.Context, contextIDs []string) ([]domain.Context, map[string][]domain.ContextChunk) {
	contexts := make([]domain.Context, 0, len(contextIDs))
	chunksByContext := make(map[string][]domain.ContextChunk, len(contextIDs))

	for _, id := range contextIDs {
		c, err := s.store.FindByID(ctx, id)
		if err != nil {
			s.log.Debug("skipping unresolvable candidate", slog.String("context_id", id))
			continue
		}
		chunks, err := s.store.FindChunksByContextID(ctx, id)
		if err != nil {
			s.log.Debug("skipping candidate without chunks", slog.String("context_id", id))
			continue
		}
		contexts = append(contexts, c)
		chunksByContext[id] = chunks
	}
	return contexts, chunksByContext
}

// toResult wraps ranked contexts with their chunk sets.
func (s *Searcher) toResult(scored []rank.ScoredContext, chunksByContext map[string][]domain.ContextChunk) domain.SearchResult {
	matches := make([]domain.ContextMatch, 0, len(scored))
	for _, sc := range scored {
		chunks := chunksByContext[sc.Context.ID]
		if chunks == nil {
			chunks = []domain.ContextChunk{}
		}
		matches = append(matches, domain.ContextMatch{
			Context: sc.Context,
			Chunks:  chunks,
			Score:   sc.Score,
		})
	}
	return domain.SearchResult{Matches: matches, TotalMatches: len(matches)}
}

// flatten gathers every resolved chunk in context order for the ranker.
func flatten(chunksByContext map[string][]domain.ContextChunk, contexts []domain.Context) []domain.ContextChunk {
	var out []domain.ContextChunk
	for _, c := range contexts {
		out = append(out, chunksByContext[c.ID]...)
	}
	return out
}
