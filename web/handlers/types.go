package handlers

import (
	"time"

	"github.com/esskayesss/local-memory/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CreateMemoryRequest is the request body for POST /api/memories.
type CreateMemoryRequest struct {
	Bag        string         `json:"bag"`
	Kind       string         `json:"kind"`
	Content    string         `json:"content"`
	Tags       []string       `json:"tags,omitempty"`
	Importance int            `json:"importance,omitempty"`
	Source     map[string]any `json:"source,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

// UpdateMemoryRequest is the request body for PATCH /api/memories/{id}.
// Omitted fields keep their stored value.
type UpdateMemoryRequest struct {
	Content     *string         `json:"content,omitempty"`
	Tags        *[]string       `json:"tags,omitempty"`
	Importance  *int            `json:"importance,omitempty"`
	Source      *map[string]any `json:"source,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	ClearExpiry bool            `json:"clear_expiry,omitempty"`
}

// RecallRequest is the request body for POST /api/recall.
type RecallRequest struct {
	Query          string   `json:"query"`
	Bag            string   `json:"bag,omitempty"`
	Kinds          []string `json:"kinds,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	TopK           int      `json:"top_k,omitempty"`
	CandidateLimit int      `json:"candidate_limit,omitempty"`
}

// RecallResponse is the response format for POST /api/recall.
type RecallResponse struct {
	Results []types.RecallResult `json:"results"`
	Count   int                  `json:"count"`
	Query   string               `json:"query"`
}

// DeleteMemoryResponse is the response format for DELETE /api/memories/{id}.
type DeleteMemoryResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// UpsertBagRequest is the request body for PUT /api/bags/{name}. Omitted
// fields keep their stored value (or the defaults on first creation).
type UpsertBagRequest struct {
	Description         *string   `json:"description,omitempty"`
	DefaultTopK         *int      `json:"default_top_k,omitempty"`
	RecencyHalfLifeDays *float64  `json:"recency_half_life_days,omitempty"`
	ImportanceWeight    *float64  `json:"importance_weight,omitempty"`
	AllowedKinds        *[]string `json:"allowed_kinds,omitempty"`
}

// DeleteBagResponse is the response format for DELETE /api/bags/{name}.
type DeleteBagResponse struct {
	Deleted         bool   `json:"deleted"`
	Name            string `json:"name"`
	MemoriesRemoved int    `json:"memories_removed"`
}

// ListBagsResponse is the response format for GET /api/bags.
type ListBagsResponse struct {
	Bags  []types.BagPolicy `json:"bags"`
	Count int               `json:"count"`
}
