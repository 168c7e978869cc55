// Package engine implements the memory write path and the recall ranking
// engine on top of the storage and embedding collaborators.
//
// The engine owns the consistency discipline between a memory's text and
// its vector: every path that changes content obtains a fresh embedding and
// hands both to the store as one atomic unit, and no other path re-embeds.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/esskayesss/local-memory/internal/embedding"
	"github.com/esskayesss/local-memory/internal/scoring"
	"github.com/esskayesss/local-memory/internal/storage"
	"github.com/esskayesss/local-memory/pkg/types"
)

// ErrKindNotAllowed indicates the target bag's policy restricts kinds and
// the memory's kind is not among them.
var ErrKindNotAllowed = errors.New("kind not allowed in bag")

// ErrEmbeddingUnavailable indicates the embedding collaborator failed. The
// wrapped chain preserves the underlying cause, including circuit breaker
// rejections.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// DefaultCandidateLimit is the process-wide candidate pool size used when a
// recall does not specify one.
const DefaultCandidateLimit = 1000

// Engine wires the storage and embedding collaborators. Construct one at
// startup and thread it through; there is no global instance.
type Engine struct {
	store          storage.Store
	embedder       embedding.Client
	candidateLimit int
}

// New creates an Engine. candidateLimit is the process-wide default recall
// candidate pool size; zero or negative selects DefaultCandidateLimit.
func New(store storage.Store, embedder embedding.Client, candidateLimit int) *Engine {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	if candidateLimit > storage.MaxCandidateLimit {
		candidateLimit = storage.MaxCandidateLimit
	}
	return &Engine{
		store:          store,
		embedder:       embedder,
		candidateLimit: candidateLimit,
	}
}

// Store returns the underlying storage handle for callers that need direct
// bag policy access (the transport's bag endpoints).
func (e *Engine) Store() storage.Store {
	return e.store
}

// StoreMemoryInput is the input to StoreMemory.
type StoreMemoryInput struct {
	Bag        string
	Kind       types.Kind
	Content    string
	Tags       []string
	Importance int // 0 means unset; defaults to types.DefaultImportance
	Source     map[string]any
	ExpiresAt  *time.Time
}

// StoreMemory validates the input, obtains an embedding for the trimmed
// content, and persists the record and its vector as one atomic unit.
// Validation failures are rejected before the embedding collaborator is
// touched.
func (e *Engine) StoreMemory(ctx context.Context, input StoreMemoryInput) (*types.MemoryRecord, error) {
	bag := strings.TrimSpace(input.Bag)
	if bag == "" {
		return nil, fmt.Errorf("%w: bag is required", storage.ErrInvalidInput)
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", storage.ErrInvalidInput)
	}
	if !types.IsValidKind(input.Kind) {
		return nil, fmt.Errorf("%w: unsupported kind %q", storage.ErrInvalidInput, input.Kind)
	}

	policy, err := e.store.GetBag(ctx, bag)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: bag %q does not exist", storage.ErrNotFound, bag)
		}
		return nil, err
	}
	if !policy.AllowsKind(input.Kind) {
		return nil, fmt.Errorf("%w: bag %q does not accept kind %q", ErrKindNotAllowed, bag, input.Kind)
	}

	importance := input.Importance
	if importance == 0 {
		importance = types.DefaultImportance
	}
	importance = types.ClampImportance(importance)

	vector, err := e.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed content: %w", ErrEmbeddingUnavailable, err)
	}

	now := time.Now().UTC()
	record := &types.MemoryRecord{
		ID:         uuid.NewString(),
		Bag:        bag,
		Kind:       input.Kind,
		Content:    content,
		Tags:       types.NormalizeTags(input.Tags),
		Importance: importance,
		Source:     input.Source,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  input.ExpiresAt,
	}
	embed := &types.EmbeddingVector{
		MemoryID:  record.ID,
		Vector:    vector,
		Model:     e.embedder.Model(),
		Dimension: len(vector),
		Norm:      scoring.Norm(vector),
	}

	if err := e.store.InsertMemory(ctx, record, embed); err != nil {
		return nil, err
	}

	return record, nil
}

// UpdateMemoryInput is the input to UpdateMemory. Nil pointer fields were
// omitted and keep their previous value.
type UpdateMemoryInput struct {
	ID string

	Content    *string
	Tags       *[]string
	Importance *int
	Source     *map[string]any

	// ExpiresAt sets a new expiry; ClearExpiry removes the existing one.
	// Setting both is invalid.
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// UpdateMemory applies a partial update. Supplying content is the only path
// that re-embeds: the new vector overwrites the old one in the same
// transaction as the record update. UpdatedAt is refreshed unconditionally.
func (e *Engine) UpdateMemory(ctx context.Context, input UpdateMemoryInput) (*types.MemoryRecord, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}
	if input.ExpiresAt != nil && input.ClearExpiry {
		return nil, fmt.Errorf("%w: cannot both set and clear expiry", storage.ErrInvalidInput)
	}

	record, err := e.store.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}

	var vector *types.EmbeddingVector
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", storage.ErrInvalidInput)
		}
		record.Content = content

		embedded, err := e.embedder.Embed(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to embed content: %w", ErrEmbeddingUnavailable, err)
		}
		vector = &types.EmbeddingVector{
			MemoryID:  record.ID,
			Vector:    embedded,
			Model:     e.embedder.Model(),
			Dimension: len(embedded),
			Norm:      scoring.Norm(embedded),
		}
	}

	if input.Tags != nil {
		record.Tags = types.NormalizeTags(*input.Tags)
	}
	if input.Importance != nil {
		record.Importance = types.ClampImportance(*input.Importance)
	}
	if input.Source != nil {
		record.Source = *input.Source
	}
	if input.ExpiresAt != nil {
		record.ExpiresAt = input.ExpiresAt
	}
	if input.ClearExpiry {
		record.ExpiresAt = nil
	}
	record.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateMemory(ctx, record, vector); err != nil {
		return nil, err
	}

	return record, nil
}

// GetMemory retrieves a record by ID.
func (e *Engine) GetMemory(ctx context.Context, id string) (*types.MemoryRecord, error) {
	return e.store.GetMemory(ctx, id)
}

// DeleteMemory removes a record and its vector. Deleting a nonexistent ID
// reports false rather than failing, keeping deletion idempotent.
func (e *Engine) DeleteMemory(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}
	return e.store.DeleteMemory(ctx, id)
}
