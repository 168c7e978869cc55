// Package types defines the core data structures for the local-memory system:
// memory records, their embedding vectors, bag retrieval policies, and the
// ephemeral recall results produced by the ranking engine.
package types

import "strings"

// Kind classifies the purpose/nature of a memory. The set is closed: inputs
// are validated once at the transport boundary via ParseKind, so the core
// never handles an invalid value.
type Kind string

// Memory kind constants.
const (
	KindSummary    Kind = "summary"    // Condensed recap of a larger body of text
	KindPreference Kind = "preference" // A stated user preference
	KindConstraint Kind = "constraint" // A rule or limit that must be respected
	KindDecision   Kind = "decision"   // An important choice that was made
	KindFact       Kind = "fact"       // A standalone piece of information
	KindNote       Kind = "note"       // Free-form note without a stronger category
)

// ValidKinds is a slice of all valid memory kinds for validation.
var ValidKinds = []Kind{
	KindSummary,
	KindPreference,
	KindConstraint,
	KindDecision,
	KindFact,
	KindNote,
}

// ParseKind validates a raw string and returns the corresponding Kind.
// The second return value is false when the input is not a known kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidKinds {
		if k == valid {
			return k, true
		}
	}
	return "", false
}

// IsValidKind reports whether the given kind is a member of the closed set.
func IsValidKind(k Kind) bool {
	_, ok := ParseKind(string(k))
	return ok
}

// ParseKinds validates a list of raw kind strings. It returns the parsed
// kinds and the first input that failed validation (empty string when all
// inputs were valid).
func ParseKinds(raw []string) ([]Kind, string) {
	if len(raw) == 0 {
		return nil, ""
	}
	kinds := make([]Kind, 0, len(raw))
	for _, s := range raw {
		k, ok := ParseKind(s)
		if !ok {
			return nil, s
		}
		kinds = append(kinds, k)
	}
	return kinds, ""
}

// NormalizeTags trims every tag, drops empties, and removes duplicates while
// preserving first-seen order. Deduplication is case-insensitive; the first
// spelling wins. Returns nil when no tags survive.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
