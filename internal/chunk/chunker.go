// Package chunk splits context content into overlapping fixed-size windows.
package chunk

import (
	"strconv"

	"github.com/Aman-CERP/ctxd/internal/apperr"
	"github.com/Aman-CERP/ctxd/internal/domain"
)

// Chunk size defaults, in bytes.
const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 200
)

// Chunker splits a context's content into an ordered sequence of
// overlapping chunks. Windows are byte ranges; a multi-byte rune can be
// split across a window edge since content is treated as opaque text.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// NewChunker creates a chunker with the given window size and overlap.
// overlap must be smaller than maxChunkSize: an overlap >= window size
// would keep the scan position from advancing, so it is rejected here
// rather than looping forever at chunk time.
func NewChunker(maxChunkSize, overlap int) (*Chunker, error) {
	if maxChunkSize <= 0 {
		return nil, apperr.Config("max chunk size must be positive", nil).
			WithDetail("max_chunk_size", strconv.Itoa(maxChunkSize))
	}
	if overlap < 0 {
		return nil, apperr.Config("chunk overlap must not be negative", nil).
			WithDetail("overlap", strconv.Itoa(overlap))
	}
	if overlap >= maxChunkSize {
		return nil, apperr.Config("chunk overlap must be smaller than max chunk size", nil).
			WithDetail("max_chunk_size", strconv.Itoa(maxChunkSize)).
			WithDetail("overlap", strconv.Itoa(overlap))
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}, nil
}

// MaxChunkSize returns the configured window size in bytes.
func (c *Chunker) MaxChunkSize() int { return c.maxChunkSize }

// Overlap returns the configured overlap in bytes.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits the context's content into chunks with strictly increasing
// positions whose windows cover the full content. Empty content yields no
// chunks; content shorter than the window size yields exactly one chunk.
// Each chunk gets a fresh id and a position equal to its starting offset.
func (c *Chunker) Chunk(ctx *domain.Context) []domain.ContextChunk {
	content := ctx.Content
	var chunks []domain.ContextChunk

	pos := 0
	for pos < len(content) {
		end := pos + c.maxChunkSize
		if end > len(content) {
			end = len(content)
		}

		chunks = append(chunks, domain.ContextChunk{
			ContextID: ctx.ID,
			ChunkID:   domain.NewID(),
			Content:   content[pos:end],
			Position:  pos,
		})

		if end == len(content) {
			break
		}
		pos += c.maxChunkSize - c.overlap
	}

	return chunks
}
