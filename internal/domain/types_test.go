package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMetadata_HasAllTags(t *testing.T) {
	m := ContextMetadata{Tags: []string{"a", "b", "c"}}

	assert.True(t, m.HasAllTags(nil), "empty request matches everything")
	assert.True(t, m.HasAllTags([]string{"a"}))
	assert.True(t, m.HasAllTags([]string{"a", "c"}))
	assert.False(t, m.HasAllTags([]string{"a", "d"}))

	empty := ContextMetadata{}
	assert.True(t, empty.HasAllTags(nil))
	assert.False(t, empty.HasAllTags([]string{"a"}))
}

func TestContext_Clone_IsDeep(t *testing.T) {
	expires := time.Now().UTC()
	c := Context{
		ID:      "ctx1",
		Content: "content",
		Metadata: ContextMetadata{
			Tags:   []string{"a"},
			Custom: map[string]string{"k": "v"},
		},
		ExpiresAt: &expires,
	}

	clone := c.Clone()
	clone.Metadata.Tags[0] = "mutated"
	clone.Metadata.Custom["k"] = "mutated"
	*clone.ExpiresAt = clone.ExpiresAt.Add(time.Hour)

	assert.Equal(t, []string{"a"}, c.Metadata.Tags)
	assert.Equal(t, "v", c.Metadata.Custom["k"])
	assert.True(t, expires.Equal(*c.ExpiresAt))
}

func TestContextChunk_Clone_CopiesEmbedding(t *testing.T) {
	chunk := ContextChunk{ChunkID: "k1", Embedding: []float32{1, 2, 3}}

	clone := chunk.Clone()
	clone.Embedding[0] = 99

	assert.Equal(t, float32(1), chunk.Embedding[0])
}

func TestCloneChunks_PreservesNil(t *testing.T) {
	assert.Nil(t, CloneChunks(nil))

	chunks := []ContextChunk{{ChunkID: "k1"}}
	clone := CloneChunks(chunks)
	require.Len(t, clone, 1)
	assert.Equal(t, "k1", clone[0].ChunkID)
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		require.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
