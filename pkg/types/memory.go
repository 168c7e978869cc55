package types

import "time"

// Importance bounds for memory records. Values outside the range are
// clamped on write; an omitted importance defaults to DefaultImportance.
const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// ClampImportance forces an importance value into the 1-5 range.
func ClampImportance(importance int) int {
	if importance < MinImportance {
		return MinImportance
	}
	if importance > MaxImportance {
		return MaxImportance
	}
	return importance
}

// MemoryRecord is a single stored unit of text with metadata. Every record
// has a one-to-one EmbeddingVector stored under the same ID; the pair is
// created and updated together so scoring always sees a vector that matches
// the current content.
type MemoryRecord struct {
	ID      string `json:"id"`      // Generated unique identifier
	Bag     string `json:"bag"`     // Owning bag name (must exist at write time)
	Kind    Kind   `json:"kind"`    // Memory kind (closed enumeration)
	Content string `json:"content"` // Non-empty trimmed text

	Tags       []string `json:"tags,omitempty"` // Trimmed, deduplicated tags
	Importance int      `json:"importance"`     // 1-5, default 3

	// Source is opaque key/value metadata about where the memory came from.
	// It is serialized as JSON everywhere, which restricts values to the
	// JSON variant set (string, number, boolean, null, nested map/list) and
	// keeps the round-trip total.
	Source map[string]any `json:"source,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"` // Stamped when returned by a recall
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`       // Expired memories are never recall candidates
}

// Expired reports whether the record's expiry has passed at the given time.
// A nil ExpiresAt never expires.
func (m *MemoryRecord) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// EmbeddingVector is the stored vector representation of a memory's content.
// The norm is precomputed at write time so recall can score many candidates
// against one query without recomputing it.
type EmbeddingVector struct {
	MemoryID  string    `json:"memory_id"`
	Vector    []float64 `json:"vector"`
	Model     string    `json:"model"`     // Embedding model that produced the vector
	Dimension int       `json:"dimension"` // len(Vector), stored for validation
	Norm      float64   `json:"norm"`      // Euclidean norm of Vector
}

// ScoreBreakdown is the additive decomposition of a recall score.
type ScoreBreakdown struct {
	Similarity float64 `json:"similarity"` // Cosine similarity against the query, in [-1, 1]
	Recency    float64 `json:"recency"`    // Recency boost, at most 0.2
	Importance float64 `json:"importance"` // Importance boost, scaled by the bag's weight
	Tags       float64 `json:"tags"`       // Tag overlap boost, at most 0.2
}

// RecallResult pairs a memory with its rank score for one recall call.
// Results are ephemeral and never persisted.
type RecallResult struct {
	Memory    MemoryRecord   `json:"memory"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}
