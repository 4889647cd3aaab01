package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ctxd/internal/apperr"
	"github.com/Aman-CERP/ctxd/internal/domain"
)

// runStoreTests exercises the Store contract against any implementation.
// Both backends must behave identically for everything tested here.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	testContext := func(id string, createdAt time.Time, tags ...string) domain.Context {
		return domain.Context{
			ID:        id,
			Content:   "content of " + id,
			Metadata:  domain.ContextMetadata{Tags: tags},
			CreatedAt: createdAt,
		}
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("SaveContext rejects duplicate ids", func(t *testing.T) {
		s := newStore(t)
		c := testContext("ctx1", base)

		_, err := s.SaveContext(ctx, c)
		require.NoError(t, err)

		_, err = s.SaveContext(ctx, c)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeAlreadyExists, apperr.GetCode(err))
	})

	t.Run("FindByID returns NotFound for unknown id", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindByID(ctx, "missing")
		require.Error(t, err)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("FindByID round-trips metadata", func(t *testing.T) {
		s := newStore(t)
		expires := base.Add(24 * time.Hour)
		c := domain.Context{
			ID:      "ctx1",
			Content: "hello",
			Metadata: domain.ContextMetadata{
				Source:      "notes.txt",
				ContentType: "text/plain",
				ContentHash: "abc123",
				Tags:        []string{"rust", "memory"},
				Custom:      map[string]string{"author": "dev"},
			},
			CreatedAt: base,
			ExpiresAt: &expires,
		}

		_, err := s.SaveContext(ctx, c)
		require.NoError(t, err)

		got, err := s.FindByID(ctx, "ctx1")
		require.NoError(t, err)
		assert.Equal(t, c.Content, got.Content)
		assert.Equal(t, c.Metadata.Source, got.Metadata.Source)
		assert.Equal(t, c.Metadata.Tags, got.Metadata.Tags)
		assert.Equal(t, c.Metadata.Custom, got.Metadata.Custom)
		assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, expires.Equal(*got.ExpiresAt))
	})

	t.Run("UpdateContext fails for unknown id", func(t *testing.T) {
		s := newStore(t)

		_, err := s.UpdateContext(ctx, testContext("missing", base))
		require.Error(t, err)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("UpdateContext overwrites content", func(t *testing.T) {
		s := newStore(t)
		c := testContext("ctx1", base)
		_, err := s.SaveContext(ctx, c)
		require.NoError(t, err)

		c.Content = "replaced"
		_, err = s.UpdateContext(ctx, c)
		require.NoError(t, err)

		got, err := s.FindByID(ctx, "ctx1")
		require.NoError(t, err)
		assert.Equal(t, "replaced", got.Content)
	})

	t.Run("DeleteContext cascades to chunks", func(t *testing.T) {
		s := newStore(t)
		c := testContext("ctx1", base)
		_, err := s.SaveContext(ctx, c)
		require.NoError(t, err)
		_, err = s.SaveChunks(ctx, "ctx1", []domain.ContextChunk{
			{ContextID: "ctx1", ChunkID: "k1", Content: "part", Position: 0},
		})
		require.NoError(t, err)

		require.NoError(t, s.DeleteContext(ctx, "ctx1"))

		_, err = s.FindByID(ctx, "ctx1")
		assert.True(t, apperr.IsNotFound(err))
		_, err = s.FindChunksByContextID(ctx, "ctx1")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("DeleteContext fails for unknown id", func(t *testing.T) {
		s := newStore(t)

		err := s.DeleteContext(ctx, "missing")
		require.Error(t, err)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("FindByTags requires every tag", func(t *testing.T) {
		s := newStore(t)
		_, err := s.SaveContext(ctx, testContext("ctx1", base, "a", "b"))
		require.NoError(t, err)
		_, err = s.SaveContext(ctx, testContext("ctx2", base.Add(time.Second), "b", "c"))
		require.NoError(t, err)
		_, err = s.SaveContext(ctx, testContext("ctx3", base.Add(2*time.Second), "a", "b", "c"))
		require.NoError(t, err)

		got, err := s.FindByTags(ctx, []string{"a", "b"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ctx1", got[0].ID)
		assert.Equal(t, "ctx3", got[1].ID)

		got, err = s.FindByTags(ctx, []string{"a", "c"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ctx3", got[0].ID)

		// Empty tag set matches everything.
		got, err = s.FindByTags(ctx, nil, 10, 0)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("ListAll orders by creation time and paginates", func(t *testing.T) {
		s := newStore(t)
		for i, id := range []string{"ctx3", "ctx1", "ctx2"} {
			_, err := s.SaveContext(ctx, testContext(id, base.Add(time.Duration(i)*time.Second)))
			require.NoError(t, err)
		}

		got, err := s.ListAll(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ctx3", got[0].ID)
		assert.Equal(t, "ctx1", got[1].ID)

		got, err = s.ListAll(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ctx2", got[0].ID)

		got, err = s.ListAll(ctx, 10, 99)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("SaveChunks replaces the previous set", func(t *testing.T) {
		s := newStore(t)

		_, err := s.SaveChunks(ctx, "ctx1", []domain.ContextChunk{
			{ContextID: "ctx1", ChunkID: "old1", Content: "old", Position: 0},
			{ContextID: "ctx1", ChunkID: "old2", Content: "old", Position: 5},
		})
		require.NoError(t, err)

		_, err = s.SaveChunks(ctx, "ctx1", []domain.ContextChunk{
			{ContextID: "ctx1", ChunkID: "new1", Content: "new", Position: 0},
		})
		require.NoError(t, err)

		got, err := s.FindChunksByContextID(ctx, "ctx1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "new1", got[0].ChunkID)
	})

	t.Run("SaveChunks rejects mixed context ids", func(t *testing.T) {
		s := newStore(t)

		_, err := s.SaveChunks(ctx, "ctx1", []domain.ContextChunk{
			{ContextID: "ctx1", ChunkID: "k1"},
			{ContextID: "other", ChunkID: "k2"},
		})
		require.Error(t, err)
		assert.Equal(t, apperr.CategoryValidation, apperr.GetCategory(err))
	})

	t.Run("empty chunk set is distinct from never stored", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindChunksByContextID(ctx, "never")
		require.Error(t, err)
		assert.True(t, apperr.IsNotFound(err))

		_, err = s.SaveChunks(ctx, "empty", []domain.ContextChunk{})
		require.NoError(t, err)

		got, err := s.FindChunksByContextID(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("FindChunksByContextID orders by position and keeps embeddings", func(t *testing.T) {
		s := newStore(t)

		_, err := s.SaveChunks(ctx, "ctx1", []domain.ContextChunk{
			{ContextID: "ctx1", ChunkID: "k2", Content: "second", Embedding: []float32{0.5, 0.5}, Position: 10},
			{ContextID: "ctx1", ChunkID: "k1", Content: "first", Embedding: []float32{1, 0}, Position: 0},
		})
		require.NoError(t, err)

		got, err := s.FindChunksByContextID(ctx, "ctx1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "k1", got[0].ChunkID)
		assert.Equal(t, []float32{1, 0}, got[0].Embedding)
		assert.Equal(t, "k2", got[1].ChunkID)
	})

	t.Run("DeleteChunksByContextID tolerates missing sets", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.DeleteChunksByContextID(ctx, "missing"))
	})
}
