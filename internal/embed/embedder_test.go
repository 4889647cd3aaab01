package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

func newTestEmbedder() *IndexEmbedder {
	return NewIndexEmbedder(NewHashVectorizer(128))
}

func chunkFor(contextID, chunkID, content string) domain.ContextChunk {
	return domain.ContextChunk{
		ContextID: contextID,
		ChunkID:   chunkID,
		Content:   content,
	}
}

func TestIndexEmbedder_EmbedChunks_AttachesVectors(t *testing.T) {
	e := newTestEmbedder()
	defer e.Close()

	chunks := []domain.ContextChunk{
		chunkFor("ctx1", "chunk1", "hello world"),
		chunkFor("ctx1", "chunk2", "goodbye world"),
	}

	out, err := e.EmbedChunks(context.Background(), chunks, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, chunk := range out {
		assert.Len(t, chunk.Embedding, 128)
	}
	assert.Equal(t, 2, e.Count())
}

func TestIndexEmbedder_EmbedChunks_Idempotent(t *testing.T) {
	e := newTestEmbedder()
	defer e.Close()

	chunks := []domain.ContextChunk{chunkFor("ctx1", "chunk1", "same content")}

	first, err := e.EmbedChunks(context.Background(), chunks, nil)
	require.NoError(t, err)
	second, err := e.EmbedChunks(context.Background(), chunks, nil)
	require.NoError(t, err)

	assert.Equal(t, first[0].Embedding, second[0].Embedding)
	assert.Equal(t, 1, e.Count(), "re-embedding the same chunk id must not grow the index")
}

func TestIndexEmbedder_FindSimilar_RanksByRelevance(t *testing.T) {
	e := newTestEmbedder()
	defer e.Close()

	_, err := e.EmbedChunks(context.Background(), []domain.ContextChunk{
		chunkFor("ctx1", "chunk1", "rust borrow checker memory safety"),
		chunkFor("ctx2", "chunk2", "chocolate cake recipe flour sugar"),
	}, nil)
	require.NoError(t, err)

	results, err := e.FindSimilar(context.Background(), "rust memory safety", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "chunk1", results[0].Chunk.ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndexEmbedder_FindSimilar_HonorsLimit(t *testing.T) {
	e := newTestEmbedder()
	defer e.Close()

	var chunks []domain.ContextChunk
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		chunks = append(chunks, chunkFor("ctx1", id, "content "+id))
	}
	_, err := e.EmbedChunks(context.Background(), chunks, nil)
	require.NoError(t, err)

	results, err := e.FindSimilar(context.Background(), "content", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	none, err := e.FindSimilar(context.Background(), "content", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIndexEmbedder_FindSimilarWithTags_FiltersByContextTags(t *testing.T) {
	e := newTestEmbedder()
	defer e.Close()

	_, err := e.EmbedChunks(context.Background(),
		[]domain.ContextChunk{chunkFor("ctx1", "chunk1", "shared topic content")},
		[]string{"rust", "memory"})
	require.NoError(t, err)
	_, err = e.EmbedChunks(context.Background(),
		[]domain.ContextChunk{chunkFor("ctx2", "chunk2", "shared topic content")},
		[]string{"python"})
	require.NoError(t, err)

	results, err := e.FindSimilarWithTags(context.Background(), "shared topic", []string{"rust"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk1", results[0].Chunk.ChunkID)

	// AND semantics: both tags must be present.
	results, err = e.FindSimilarWithTags(context.Background(), "shared topic", []string{"rust", "python"}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexEmbedder_RemoveContext_DropsAllChunks(t *testing.T) {
	e := newTestEmbedder()
	defer e.Close()

	_, err := e.EmbedChunks(context.Background(), []domain.ContextChunk{
		chunkFor("ctx1", "chunk1", "one"),
		chunkFor("ctx1", "chunk2", "two"),
		chunkFor("ctx2", "chunk3", "three"),
	}, nil)
	require.NoError(t, err)

	e.RemoveContext("ctx1")
	assert.Equal(t, 1, e.Count())

	// Idempotent.
	e.RemoveContext("ctx1")
	assert.Equal(t, 1, e.Count())
}

func TestIndexEmbedder_Close_FailsFast(t *testing.T) {
	e := newTestEmbedder()
	require.NoError(t, e.Close())

	_, err := e.EmbedChunks(context.Background(), []domain.ContextChunk{chunkFor("c", "k", "x")}, nil)
	assert.Error(t, err)

	_, err = e.FindSimilar(context.Background(), "query", 10)
	assert.Error(t, err)
}
