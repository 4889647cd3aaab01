// Package rank rescores candidate contexts by exact term overlap between
// the query and context content. It is the second stage after similarity
// candidate generation: approximate recall first, exact precision here.
package rank

import (
	"sort"
	"strings"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

// DefaultMaxResults caps ranked output when no limit is configured.
const DefaultMaxResults = 10

// ScoredContext pairs a context with its rerank score.
type ScoredContext struct {
	Context domain.Context
	Score   float64
}

// Ranker scores candidate contexts against a query by exact term overlap.
type Ranker struct {
	maxResults int
}

// NewRanker creates a ranker that returns at most maxResults entries.
// Non-positive values fall back to DefaultMaxResults.
func NewRanker(maxResults int) *Ranker {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Ranker{maxResults: maxResults}
}

// MaxResults returns the configured result cap.
func (r *Ranker) MaxResults() int { return r.maxResults }

// Rank scores each candidate as matchedTerms/totalQueryTerms, where a term
// matches if it appears case-insensitively as a substring of the context's
// content. The query is split on whitespace with no further normalization;
// an empty query scores every candidate 0. The sort is stable and
// descending, so equal scores keep their input order, and the result is
// truncated to the configured cap. Chunks are accepted for interface
// parity with richer rankers but do not affect the score.
func (r *Ranker) Rank(query string, contexts []domain.Context, _ []domain.ContextChunk) []ScoredContext {
	terms := strings.Fields(query)

	scored := make([]ScoredContext, 0, len(contexts))
	for _, c := range contexts {
		scored = append(scored, ScoredContext{
			Context: c,
			Score:   overlapScore(terms, c.Content),
		})
	}

	// Scores are bounded ratios in [0, 1], so NaN cannot occur; the
	// greater-than comparison still treats any incomparable pair as
	// equal, which the stable sort resolves by input order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.maxResults {
		scored = scored[:r.maxResults]
	}
	return scored
}

// overlapScore returns matched/total for the query terms against content.
func overlapScore(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}

	lowered := strings.ToLower(content)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lowered, strings.ToLower(term)) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
