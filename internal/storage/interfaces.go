// Package storage provides composable storage interfaces for the
// local-memory system.
//
// The storage layer is split into small, focused interfaces that can be
// implemented independently and composed as needed. Both the SQLite and
// PostgreSQL backends implement the full Store interface; callers receive
// an explicitly constructed store handle at startup and thread it through
// every operation, so tests can run against isolated instances.
package storage

import (
	"context"
	"time"

	"github.com/esskayesss/local-memory/pkg/types"
)

// BagStore provides CRUD over named retrieval policies.
type BagStore interface {
	// ListBags returns all bag policies ordered by name.
	ListBags(ctx context.Context) ([]types.BagPolicy, error)

	// GetBag retrieves a single policy by name.
	// Returns ErrNotFound if the bag does not exist.
	GetBag(ctx context.Context, name string) (*types.BagPolicy, error)

	// UpsertBag creates the policy if absent, otherwise merges: every
	// provided field overwrites, every omitted field keeps its existing
	// value (or the documented default on first creation). Numeric fields
	// are clamped on every write. The bag name and created_at are immutable.
	// Returns the policy as persisted.
	UpsertBag(ctx context.Context, input BagUpsert) (*types.BagPolicy, error)

	// DeleteBag removes a policy and, when forced, every memory it owns
	// (and their vectors) in one atomic operation. A missing bag is a
	// no-op reporting Deleted=false. Deleting a protected bag requires
	// AllowSystem; deleting a non-empty bag requires Force.
	DeleteBag(ctx context.Context, name string, opts DeleteBagOptions) (BagDeleteResult, error)
}

// MemoryStore persists memory records and their embedding vectors as one
// logical unit. A record and its vector are always written in the same
// transaction; scoring depends on both being current with the latest
// content.
type MemoryStore interface {
	// InsertMemory atomically inserts a record and its embedding vector.
	InsertMemory(ctx context.Context, record *types.MemoryRecord, vector *types.EmbeddingVector) error

	// UpdateMemory atomically updates a record and, when vector is non-nil,
	// overwrites its embedding in the same transaction. A nil vector keeps
	// the stored embedding untouched (the content did not change).
	// Returns ErrNotFound if the record does not exist.
	UpdateMemory(ctx context.Context, record *types.MemoryRecord, vector *types.EmbeddingVector) error

	// GetMemory retrieves a record by ID.
	// Returns ErrNotFound if the record does not exist.
	GetMemory(ctx context.Context, id string) (*types.MemoryRecord, error)

	// GetEmbedding retrieves the embedding vector stored for a record.
	// Returns ErrNotFound if no vector exists for the ID.
	GetEmbedding(ctx context.Context, id string) (*types.EmbeddingVector, error)

	// DeleteMemory removes a record and cascades to its vector. Deleting a
	// nonexistent ID is not an error; the bool reports whether a row was
	// actually removed.
	DeleteMemory(ctx context.Context, id string) (bool, error)

	// Candidates selects the bounded recall candidate pool: unexpired
	// memories, optionally filtered by bag and kind set, joined with their
	// vectors, ordered by created_at descending and truncated to the query
	// limit. The ordering is a recency pre-filter and tie-break, not a
	// ranking.
	Candidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)

	// TouchAccessed sets last_accessed_at on the given records. Callers
	// treat failures as non-fatal: a recall must not fail or roll back
	// because an access stamp could not be applied.
	TouchAccessed(ctx context.Context, ids []string, at time.Time) error
}

// Store is the full storage surface the engine is wired with.
type Store interface {
	BagStore
	MemoryStore

	// Close releases any resources held by the store.
	Close() error
}
