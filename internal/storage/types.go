package storage

import (
	"errors"
	"time"

	"github.com/esskayesss/local-memory/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBagProtected indicates an attempt to delete a pre-seeded system
	// bag without the explicit AllowSystem override.
	ErrBagProtected = errors.New("bag is protected")

	// ErrBagNotEmpty indicates an attempt to delete a bag that still owns
	// memories without setting Force.
	ErrBagNotEmpty = errors.New("bag is not empty")
)

// ProtectedBags is the set of pre-seeded system bags that cannot be deleted
// without AllowSystem. These are created on first open of either backend.
var ProtectedBags = map[string]bool{
	"default":  true,
	"identity": true,
	"journal":  true,
}

// SeedBags returns the pre-seeded bag policies created on first open.
func SeedBags() []types.BagPolicy {
	return []types.BagPolicy{
		{
			Name:                "default",
			Description:         "General-purpose memories",
			DefaultTopK:         types.DefaultTopK,
			RecencyHalfLifeDays: types.DefaultRecencyHalfLifeDays,
			ImportanceWeight:    types.DefaultImportanceWeight,
		},
		{
			Name:                "identity",
			Description:         "Long-lived facts and preferences about the user",
			DefaultTopK:         types.DefaultTopK,
			RecencyHalfLifeDays: 3650,
			ImportanceWeight:    1.0,
			AllowedKinds:        []types.Kind{types.KindFact, types.KindPreference, types.KindConstraint},
		},
		{
			Name:                "journal",
			Description:         "Short-lived working notes",
			DefaultTopK:         10,
			RecencyHalfLifeDays: 14,
			ImportanceWeight:    0.25,
		},
	}
}

// BagUpsert is the input to UpsertBag. Nil pointer fields were omitted by
// the caller and keep their existing value (or the documented default when
// the bag is being created).
type BagUpsert struct {
	// Name identifies the bag. Required, immutable.
	Name string

	Description         *string
	DefaultTopK         *int
	RecencyHalfLifeDays *float64
	ImportanceWeight    *float64

	// AllowedKinds replaces the whole allow-list when provided. An empty
	// (non-nil) list means "all kinds allowed".
	AllowedKinds *[]types.Kind
}

// DeleteBagOptions controls DeleteBag behaviour.
type DeleteBagOptions struct {
	// Force deletes the bag's memories (and their vectors) along with the
	// policy. Without it, deleting a non-empty bag fails.
	Force bool

	// AllowSystem permits deleting a protected pre-seeded bag.
	AllowSystem bool
}

// BagDeleteResult reports the outcome of a DeleteBag call.
type BagDeleteResult struct {
	// Deleted is false when the bag did not exist (the call is a no-op,
	// not an error).
	Deleted bool

	// MemoriesRemoved is the number of memories cascaded along with the
	// policy.
	MemoriesRemoved int
}

// MaxCandidateLimit caps the number of candidates loaded for one recall.
// The design assumes a full linear scan over a bounded candidate set; this
// bound keeps the scan and the memory footprint predictable.
const MaxCandidateLimit = 5000

// CandidateQuery describes the candidate pool selection for one recall.
type CandidateQuery struct {
	// Bag restricts candidates to one bag by exact name. Empty means all bags.
	Bag string

	// Kinds restricts candidates to the given kind set. Empty means all kinds.
	Kinds []types.Kind

	// Limit truncates the candidate pool after ordering by created_at
	// descending. Normalize clamps it to [1, MaxCandidateLimit].
	Limit int

	// Now is the instant used for the expiry check. Zero means time.Now().
	Now time.Time
}

// Normalize applies defaults and clamps the query bounds.
func (q *CandidateQuery) Normalize() {
	if q.Limit < 1 {
		q.Limit = MaxCandidateLimit
	}
	if q.Limit > MaxCandidateLimit {
		q.Limit = MaxCandidateLimit
	}
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
}

// Candidate is one member of the recall candidate pool: a record joined
// with its stored vector and precomputed norm.
type Candidate struct {
	Record    types.MemoryRecord
	Vector    []float64
	Dimension int
	Norm      float64
}
