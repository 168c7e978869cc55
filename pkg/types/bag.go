package types

import "time"

// Bag policy defaults applied on first creation when a field is omitted,
// and used as the fallback policy when scoring a memory whose bag was
// deleted out-of-band.
const (
	DefaultTopK                = 8
	DefaultRecencyHalfLifeDays = 30.0
	DefaultImportanceWeight    = 0.35
)

// Clamp bounds for bag policy numeric fields. Applied on every write
// regardless of where the value came from.
const (
	MinTopK = 1
	MaxTopK = 100

	MinRecencyHalfLifeDays = 1.0
	MaxRecencyHalfLifeDays = 3650.0

	MinImportanceWeight = 0.0
	MaxImportanceWeight = 2.0
)

// BagPolicy is the retrieval policy for a named collection of memories.
// The name is immutable once created.
type BagPolicy struct {
	Name        string `json:"name"`                  // Unique bag name
	Description string `json:"description,omitempty"` // Optional human description

	DefaultTopK         int     `json:"default_top_k"`          // Result count when a recall does not specify one (1-100)
	RecencyHalfLifeDays float64 `json:"recency_half_life_days"` // Half-life for the recency boost (1-3650)
	ImportanceWeight    float64 `json:"importance_weight"`      // Scale for the importance boost (0-2)

	// AllowedKinds restricts which memory kinds may be written into the bag.
	// An empty list means all kinds are allowed.
	AllowedKinds []Kind `json:"allowed_kinds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clamp forces all numeric policy fields into their documented ranges.
// Storage implementations call this on every write so a policy read back
// from the store is always in range.
func (p *BagPolicy) Clamp() {
	if p.DefaultTopK < MinTopK {
		p.DefaultTopK = MinTopK
	}
	if p.DefaultTopK > MaxTopK {
		p.DefaultTopK = MaxTopK
	}
	if p.RecencyHalfLifeDays < MinRecencyHalfLifeDays {
		p.RecencyHalfLifeDays = MinRecencyHalfLifeDays
	}
	if p.RecencyHalfLifeDays > MaxRecencyHalfLifeDays {
		p.RecencyHalfLifeDays = MaxRecencyHalfLifeDays
	}
	if p.ImportanceWeight < MinImportanceWeight {
		p.ImportanceWeight = MinImportanceWeight
	}
	if p.ImportanceWeight > MaxImportanceWeight {
		p.ImportanceWeight = MaxImportanceWeight
	}
}

// AllowsKind reports whether the policy permits writing a memory of the
// given kind into the bag. An empty allow-list permits every kind.
func (p *BagPolicy) AllowsKind(k Kind) bool {
	if len(p.AllowedKinds) == 0 {
		return true
	}
	for _, allowed := range p.AllowedKinds {
		if allowed == k {
			return true
		}
	}
	return false
}

// FallbackPolicy returns the hardcoded default policy used when a memory
// references a bag that no longer exists. Scoring never hard-fails on a
// dangling bag reference; it uses these constants instead.
func FallbackPolicy() BagPolicy {
	return BagPolicy{
		DefaultTopK:         DefaultTopK,
		RecencyHalfLifeDays: DefaultRecencyHalfLifeDays,
		ImportanceWeight:    DefaultImportanceWeight,
	}
}
