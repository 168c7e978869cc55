package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/esskayesss/local-memory/internal/embedding"
	"github.com/esskayesss/local-memory/internal/engine"
	"github.com/esskayesss/local-memory/internal/storage"
	"github.com/esskayesss/local-memory/pkg/types"
)

// APIHandlers contains HTTP handlers for the memory REST API.
type APIHandlers struct {
	engine *engine.Engine
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(eng *engine.Engine) *APIHandlers {
	return &APIHandlers{engine: eng}
}

// CreateMemory handles POST /api/memories.
func (h *APIHandlers) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	kind, ok := types.ParseKind(req.Kind)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported kind %q", req.Kind), nil)
		return
	}

	record, err := h.engine.StoreMemory(r.Context(), engine.StoreMemoryInput{
		Bag:        req.Bag,
		Kind:       kind,
		Content:    req.Content,
		Tags:       req.Tags,
		Importance: req.Importance,
		Source:     req.Source,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// GetMemory handles GET /api/memories/{id}.
func (h *APIHandlers) GetMemory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := h.engine.GetMemory(r.Context(), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// UpdateMemory handles PATCH /api/memories/{id}.
func (h *APIHandlers) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	record, err := h.engine.UpdateMemory(r.Context(), engine.UpdateMemoryInput{
		ID:          r.PathValue("id"),
		Content:     req.Content,
		Tags:        req.Tags,
		Importance:  req.Importance,
		Source:      req.Source,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// DeleteMemory handles DELETE /api/memories/{id}. Deleting a missing ID
// succeeds with deleted=false.
func (h *APIHandlers) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := h.engine.DeleteMemory(r.Context(), id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DeleteMemoryResponse{Deleted: deleted, ID: id})
}

// Recall handles POST /api/recall.
func (h *APIHandlers) Recall(w http.ResponseWriter, r *http.Request) {
	var req RecallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	kinds, bad := types.ParseKinds(req.Kinds)
	if bad != "" {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported kind %q", bad), nil)
		return
	}

	results, err := h.engine.Recall(r.Context(), engine.RecallInput{
		Query:          req.Query,
		Bag:            req.Bag,
		Kinds:          kinds,
		Tags:           req.Tags,
		TopK:           req.TopK,
		CandidateLimit: req.CandidateLimit,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, RecallResponse{
		Results: results,
		Count:   len(results),
		Query:   req.Query,
	})
}

// respondEngineError maps engine and storage errors onto HTTP status codes:
// invalid input 400, missing records 404, policy violations 409, embedding
// collaborator failures 502 (503 while the circuit is open).
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid input", err)
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, engine.ErrKindNotAllowed),
		errors.Is(err, storage.ErrBagProtected),
		errors.Is(err, storage.ErrBagNotEmpty):
		respondError(w, http.StatusConflict, "policy violation", err)
	case errors.Is(err, embedding.ErrCircuitOpen):
		respondError(w, http.StatusServiceUnavailable, "embedding temporarily unavailable", err)
	case errors.Is(err, engine.ErrEmbeddingUnavailable):
		respondError(w, http.StatusBadGateway, "embedding failed", err)
	default:
		respondError(w, http.StatusInternalServerError, "internal error", err)
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing more to write.
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
