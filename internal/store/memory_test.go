package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_SnapshotsDoNotAlias(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c := domain.Context{
		ID:        "ctx1",
		Content:   "content",
		Metadata:  domain.ContextMetadata{Tags: []string{"a"}},
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.SaveContext(ctx, c)
	require.NoError(t, err)

	got, err := s.FindByID(ctx, "ctx1")
	require.NoError(t, err)

	// Mutating a returned snapshot must not leak into the store.
	got.Metadata.Tags[0] = "mutated"

	again, err := s.FindByID(ctx, "ctx1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Metadata.Tags)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			id := domain.NewID()
			c := domain.Context{ID: id, Content: "x", CreatedAt: time.Now().UTC()}
			if _, err := s.SaveContext(ctx, c); err != nil {
				t.Error(err)
				return
			}
			if _, err := s.SaveChunks(ctx, id, []domain.ContextChunk{
				{ContextID: id, ChunkID: domain.NewID(), Content: "x"},
			}); err != nil {
				t.Error(err)
				return
			}
			if _, err := s.ListAll(ctx, 100, 0); err != nil {
				t.Error(err)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	all, err := s.ListAll(ctx, 100, 0)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}
