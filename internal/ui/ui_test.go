package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

// Buffers are not TTYs, so every renderer in these tests is plain.

func TestRenderer_Context(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Context(domain.Context{
		ID:        "ctx-1",
		Content:   "the full content",
		Metadata:  domain.ContextMetadata{Source: "notes.txt", Tags: []string{"a", "b"}},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "ctx-1")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "a, b")
	assert.Contains(t, out, "2026-03-01 12:00:00")
	assert.Contains(t, out, "the full content")
}

func TestRenderer_ContextList_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).ContextList(nil)
	assert.Contains(t, buf.String(), "no contexts")
}

func TestRenderer_SearchResult(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.SearchResult(domain.SearchResult{
		Matches: []domain.ContextMatch{{
			Context: domain.Context{ID: "ctx-1", Content: "matched content"},
			Chunks:  []domain.ContextChunk{{ChunkID: "k1"}},
			Score:   0.75,
		}},
		TotalMatches: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "1 match(es)")
	assert.Contains(t, out, "0.750")
	assert.Contains(t, out, "ctx-1")
	assert.Contains(t, out, "1 chunk(s)")
}

func TestRenderer_SearchResult_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).SearchResult(domain.SearchResult{})
	assert.Contains(t, buf.String(), "no matches")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "first line", snippet("first line\nsecond line"))

	long := strings.Repeat("x", 200)
	got := snippet(long)
	require.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, snippetLength+3)

	assert.Equal(t, "short", snippet("short"))
}
