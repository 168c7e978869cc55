package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// MockClient is a deterministic in-process embedder for tests. It hashes
// the input text into a unit vector, so identical texts always embed
// identically and different texts are (almost surely) dissimilar.
type MockClient struct {
	dimensions int

	mu    sync.Mutex
	calls int

	// Err, when set, is returned by every Embed call. Used to exercise
	// collaborator-failure paths.
	Err error
}

// NewMockClient creates a mock embedder with the given dimensionality.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = 32
	}
	return &MockClient{dimensions: dimensions}
}

// Embed creates a deterministic unit vector from the text hash.
func (m *MockClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls++
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vector := make([]float64, m.dimensions)
	var norm float64
	for i := range vector {
		// LCG keeps the sequence deterministic per input.
		seed = seed*6364136223846793005 + 1442695040888963407
		vector[i] = float64(int64(seed)) / float64(math.MaxInt64)
		norm += vector[i] * vector[i]
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] /= norm
		}
	}

	return vector, nil
}

// Model returns a fixed identifier for the mock.
func (m *MockClient) Model() string {
	return "mock-embedder"
}

// Calls returns how many times Embed has been invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Compile-time assertion that MockClient satisfies Client.
var _ Client = (*MockClient)(nil)
