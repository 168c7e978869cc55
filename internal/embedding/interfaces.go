// Package embedding provides clients for the external text→vector service.
// The embedding call is the dominant latency of every store, update, and
// recall; clients bound it with a per-request timeout and a circuit breaker
// so a dead provider fails fast instead of queueing work.
package embedding

import "context"

// Client is the interface for generating vector embeddings.
// A failure is a hard failure of the enclosing operation; retries, if any,
// belong to the provider's own client, not to callers.
type Client interface {
	// Embed returns a fixed-dimensionality vector for non-empty text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Model returns the embedding model identifier, stored alongside each
	// vector so mixed-model stores remain diagnosable.
	Model() string
}
