package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/embed"
	"github.com/Aman-CERP/ctxd/internal/store"
)

func TestSearcher_Search_FindsRelevantContext(t *testing.T) {
	manager, searcher, _, _ := newTestServices(t)
	ctx := context.Background()

	rust, err := manager.Store(ctx, "rust guarantees memory safety without garbage collection",
		domain.ContextMetadata{Tags: []string{"rust"}})
	require.NoError(t, err)
	_, err = manager.Store(ctx, "chocolate cake needs flour sugar and butter",
		domain.ContextMetadata{Tags: []string{"baking"}})
	require.NoError(t, err)

	result, err := searcher.Search(ctx, "rust memory safety", 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.TotalMatches, 1)

	assert.Equal(t, rust.ID, result.Matches[0].Context.ID)
	assert.InDelta(t, 1.0, result.Matches[0].Score, 1e-9, "every query term appears in the content")
	assert.NotEmpty(t, result.Matches[0].Chunks)
}

func TestSearcher_Search_EmptyIndexYieldsEmptyResult(t *testing.T) {
	_, searcher, _, _ := newTestServices(t)

	result, err := searcher.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Zero(t, result.TotalMatches)
	assert.Empty(t, result.Matches)
}

func TestSearcher_Search_SkipsContextsDeletedAfterIndexing(t *testing.T) {
	manager, searcher, st, _ := newTestServices(t)
	ctx := context.Background()

	c, err := manager.Store(ctx, "searchable content here", domain.ContextMetadata{})
	require.NoError(t, err)

	// Remove from the store but leave the index entry behind; search must
	// silently skip the dangling candidate.
	require.NoError(t, st.DeleteContext(ctx, c.ID))

	result, err := searcher.Search(ctx, "searchable content", 10)
	require.NoError(t, err)
	assert.Zero(t, result.TotalMatches)
}

func TestSearcher_SearchWithTags_ScopesToTaggedContexts(t *testing.T) {
	manager, searcher, _, _ := newTestServices(t)
	ctx := context.Background()

	rust, err := manager.Store(ctx, "ownership and borrowing rules",
		domain.ContextMetadata{Tags: []string{"rust", "lang"}})
	require.NoError(t, err)
	_, err = manager.Store(ctx, "ownership of python objects",
		domain.ContextMetadata{Tags: []string{"python", "lang"}})
	require.NoError(t, err)

	result, err := searcher.SearchWithTags(ctx, "ownership", []string{"rust"}, 10)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalMatches)
	assert.Equal(t, rust.ID, result.Matches[0].Context.ID)

	// AND semantics across tags.
	result, err = searcher.SearchWithTags(ctx, "ownership", []string{"rust", "python"}, 10)
	require.NoError(t, err)
	assert.Zero(t, result.TotalMatches)

	both, err := searcher.SearchWithTags(ctx, "ownership", []string{"lang"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, both.TotalMatches)
}

func TestSearcher_SearchWithTags_NoTagMatchesShortCircuits(t *testing.T) {
	manager, searcher, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := manager.Store(ctx, "some content", domain.ContextMetadata{Tags: []string{"a"}})
	require.NoError(t, err)

	result, err := searcher.SearchWithTags(ctx, "some content", []string{"nope"}, 10)
	require.NoError(t, err)
	assert.Zero(t, result.TotalMatches)
	assert.NotNil(t, result.Matches)
}

func TestSearcher_SearchWithTags_RanksTagMatchesWithoutQueryOverlap(t *testing.T) {
	manager, searcher, _, _ := newTestServices(t)
	ctx := context.Background()

	// Tag matches rank even when the query shares no terms with them; the
	// similarity pass is a recall signal, not a filter, by default.
	c, err := manager.Store(ctx, "completely unrelated text", domain.ContextMetadata{Tags: []string{"keep"}})
	require.NoError(t, err)

	result, err := searcher.SearchWithTags(ctx, "zzz qqq", []string{"keep"}, 10)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalMatches)
	assert.Equal(t, c.ID, result.Matches[0].Context.ID)
	assert.Zero(t, result.Matches[0].Score)
}

func TestSearcher_SearchWithTags_CandidateGatingRestrictsRankedSet(t *testing.T) {
	st := store.NewMemoryStore()
	embedder := embed.NewIndexEmbedder(embed.NewHashVectorizer(128))
	defer embedder.Close()

	cfg := DefaultConfig()
	cfg.MaxChunkSize = 50
	cfg.ChunkOverlap = 10
	cfg.TagCandidateGating = true

	manager, searcher, err := New(st, embedder, cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	relevant, err := manager.Store(ctx, "rust memory safety explained", domain.ContextMetadata{Tags: []string{"doc"}})
	require.NoError(t, err)
	_, err = manager.Store(ctx, "unrelated gardening tips", domain.ContextMetadata{Tags: []string{"doc"}})
	require.NoError(t, err)

	// With gating on and a candidate limit of 1, only the context owning
	// the top candidate chunk is ranked.
	result, err := searcher.SearchWithTags(ctx, "rust memory safety", []string{"doc"}, 1)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalMatches)
	assert.Equal(t, relevant.ID, result.Matches[0].Context.ID)
}

func TestSearcher_RetrieveByReferences_ScoresWithWeights(t *testing.T) {
	manager, searcher, _, _ := newTestServices(t)
	ctx := context.Background()

	first, err := manager.Store(ctx, "first document", domain.ContextMetadata{})
	require.NoError(t, err)
	second, err := manager.Store(ctx, "second document", domain.ContextMetadata{})
	require.NoError(t, err)

	weight := 0.5
	result, err := searcher.RetrieveByReferences(ctx, []domain.ContextReference{
		{ContextID: first.ID, Weight: &weight},
		{ContextID: second.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalMatches)

	assert.Equal(t, first.ID, result.Matches[0].Context.ID)
	assert.Equal(t, 0.5, result.Matches[0].Score)
	assert.Equal(t, second.ID, result.Matches[1].Context.ID)
	assert.Equal(t, 1.0, result.Matches[1].Score, "missing weight defaults to 1.0")
}

func TestSearcher_RetrieveByReferences_SkipsUnresolvable(t *testing.T) {
	manager, searcher, _, _ := newTestServices(t)
	ctx := context.Background()

	real, err := manager.Store(ctx, "exists", domain.ContextMetadata{})
	require.NoError(t, err)

	result, err := searcher.RetrieveByReferences(ctx, []domain.ContextReference{
		{ContextID: "nonexistent"},
		{ContextID: real.ID},
	})
	require.NoError(t, err, "unresolvable references are skipped, not errors")
	require.Equal(t, 1, result.TotalMatches)
	assert.Equal(t, real.ID, result.Matches[0].Context.ID)
}

func TestSearcher_RetrieveByReferences_FiltersToRequestedChunks(t *testing.T) {
	manager, searcher, st, _ := newTestServices(t)
	ctx := context.Background()

	c, err := manager.Store(ctx, "a long enough content to produce several chunks when the window is small",
		domain.ContextMetadata{})
	require.NoError(t, err)

	chunks, err := st.FindChunksByContextID(ctx, c.ID)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	result, err := searcher.RetrieveByReferences(ctx, []domain.ContextReference{
		{ContextID: c.ID, ChunkIDs: []string{chunks[0].ChunkID}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalMatches)
	require.Len(t, result.Matches[0].Chunks, 1)
	assert.Equal(t, chunks[0].ChunkID, result.Matches[0].Chunks[0].ChunkID)
}
