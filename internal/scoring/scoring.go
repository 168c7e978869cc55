// Package scoring provides the pure numeric functions used to rank recall
// candidates: vector norms, cosine similarity, and the bounded recency,
// importance, and tag-overlap boosts that are added on top of similarity.
//
// All boosts are bounded and additive to similarity (itself in [-1, 1]) so
// semantic relevance dominates while the other signals break ties or promote
// slightly-less-similar items. The combined score is deliberately not
// re-normalized; downstream ranking only needs relative order.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/esskayesss/local-memory/pkg/types"
)

const (
	// maxRecencyBoost is the contribution of a maximally recent memory.
	maxRecencyBoost = 0.2

	// futureBoost is the flat bonus for a created_at in the future.
	// Clock skew safety: a skewed-but-recent memory still ranks well.
	futureBoost = 0.15

	// tagOverlapStep is the boost per overlapping tag.
	tagOverlapStep = 0.06

	// maxTagBoost caps the total tag-overlap contribution.
	maxTagBoost = 0.2
)

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns -1 when the dimensions differ (the vectors are incomparable)
// and 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	return CosineSimilarityWithNorm(a, b, Norm(b))
}

// CosineSimilarityWithNorm is CosineSimilarity with a precomputed norm for
// b. Recall stores each candidate's norm at write time, so scoring many
// candidates against one query never recomputes the candidate side.
func CosineSimilarityWithNorm(a, b []float64, normB float64) float64 {
	if len(a) != len(b) {
		return -1
	}
	normA := Norm(a)
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (normA * normB)
}

// RecencyBoost returns the recency contribution for a memory created at
// createdAt, using the current wall clock.
func RecencyBoost(createdAt time.Time, halfLifeDays float64) float64 {
	return RecencyBoostAt(createdAt, halfLifeDays, time.Now())
}

// RecencyBoostAt computes the recency boost relative to an explicit "now".
//
// A zero createdAt contributes nothing (the timestamp was missing or
// unparseable upstream). A createdAt in the future contributes the flat
// futureBoost. Otherwise the boost decays exponentially with age:
// 0.5^(age/halfLife) * 0.2, so a maximally recent memory contributes up
// to 0.2 and a memory one half-life old contributes 0.1.
func RecencyBoostAt(createdAt time.Time, halfLifeDays float64, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	if createdAt.After(now) {
		return futureBoost
	}
	if halfLifeDays <= 0 {
		return 0
	}
	ageMs := float64(now.Sub(createdAt).Milliseconds())
	halfLifeMs := halfLifeDays * 24 * float64(time.Hour.Milliseconds())
	return math.Pow(0.5, ageMs/halfLifeMs) * maxRecencyBoost
}

// ImportanceBoost scales a memory's 1-5 importance by the owning bag's
// importance weight. The importance is clamped before scaling so a corrupt
// row cannot push the boost outside [0, weight].
func ImportanceBoost(importance int, policy types.BagPolicy) float64 {
	clamped := types.ClampImportance(importance)
	return float64(clamped) / float64(types.MaxImportance) * policy.ImportanceWeight
}

// TagBoost returns the case-insensitive tag overlap contribution:
// 0.06 per shared tag, capped at 0.2. Either list being empty yields 0.
func TagBoost(queryTags, memoryTags []string) float64 {
	if len(queryTags) == 0 || len(memoryTags) == 0 {
		return 0
	}
	query := make(map[string]bool, len(queryTags))
	for _, t := range queryTags {
		query[strings.ToLower(strings.TrimSpace(t))] = true
	}
	overlap := 0
	seen := make(map[string]bool, len(memoryTags))
	for _, t := range memoryTags {
		key := strings.ToLower(strings.TrimSpace(t))
		if query[key] && !seen[key] {
			seen[key] = true
			overlap++
		}
	}
	boost := float64(overlap) * tagOverlapStep
	if boost > maxTagBoost {
		boost = maxTagBoost
	}
	return boost
}

// TagsOverlap reports whether the two tag lists share at least one tag,
// comparing case-insensitively. Used by recall's hard tag filter, which is
// distinct from the soft TagBoost scoring signal.
func TagsOverlap(queryTags, memoryTags []string) bool {
	if len(queryTags) == 0 || len(memoryTags) == 0 {
		return false
	}
	query := make(map[string]bool, len(queryTags))
	for _, t := range queryTags {
		query[strings.ToLower(strings.TrimSpace(t))] = true
	}
	for _, t := range memoryTags {
		if query[strings.ToLower(strings.TrimSpace(t))] {
			return true
		}
	}
	return false
}
