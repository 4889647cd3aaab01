// Package store owns persistent state for contexts and their chunk sets.
// It enforces the identity and association invariants: context ids are
// unique at save time, mutations require a pre-existing id, a chunk set is
// replaced wholesale, and deleting a context cascades to its chunks.
package store

import (
	"context"

	"github.com/Aman-CERP/ctxd/internal/domain"
)

// Store is the persistence port for contexts and chunk sets. All methods
// return cloned snapshots; callers never receive aliases into store-owned
// state. Implementations keep critical sections short and never suspend
// while holding a lock.
type Store interface {
	// SaveContext persists a new context. Fails with AlreadyExists if the
	// id is already present; the original record is left unchanged.
	SaveContext(ctx context.Context, c domain.Context) (domain.Context, error)

	// FindByID returns the context or NotFound.
	FindByID(ctx context.Context, id string) (domain.Context, error)

	// UpdateContext overwrites an existing context in place. Fails with
	// NotFound if the id is absent.
	UpdateContext(ctx context.Context, c domain.Context) (domain.Context, error)

	// DeleteContext removes the context and its chunk set as one logical
	// operation. Fails with NotFound if the id is absent.
	DeleteContext(ctx context.Context, id string) error

	// FindByTags returns contexts whose tag set is a superset of tags
	// (AND semantics), paginated over ascending (CreatedAt, ID). The
	// stable ordering is what makes offset pagination meaningful.
	FindByTags(ctx context.Context, tags []string, limit, offset int) ([]domain.Context, error)

	// ListAll returns all contexts with the same pagination contract.
	ListAll(ctx context.Context, limit, offset int) ([]domain.Context, error)

	// SaveChunks replaces the whole chunk set for contextID. Every chunk
	// must carry that context id. An empty slice stores an empty set, so
	// "context has zero chunks" stays distinguishable from "no chunk set
	// was ever stored".
	SaveChunks(ctx context.Context, contextID string, chunks []domain.ContextChunk) ([]domain.ContextChunk, error)

	// FindChunksByContextID returns the stored chunk set in position
	// order. Fails with NotFound only if no set was ever stored for the
	// id; a stored empty set returns an empty slice.
	FindChunksByContextID(ctx context.Context, contextID string) ([]domain.ContextChunk, error)

	// DeleteChunksByContextID removes the chunk set. Idempotent; a
	// missing set is not an error.
	DeleteChunksByContextID(ctx context.Context, contextID string) error

	// Close releases resources.
	Close() error
}
