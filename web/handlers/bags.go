package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/esskayesss/local-memory/internal/storage"
	"github.com/esskayesss/local-memory/pkg/types"
)

// BagHandlers contains HTTP handlers for bag policy management.
type BagHandlers struct {
	store storage.BagStore
}

// NewBagHandlers creates a new BagHandlers instance.
func NewBagHandlers(store storage.BagStore) *BagHandlers {
	return &BagHandlers{store: store}
}

// ListBags handles GET /api/bags.
func (h *BagHandlers) ListBags(w http.ResponseWriter, r *http.Request) {
	bags, err := h.store.ListBags(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ListBagsResponse{Bags: bags, Count: len(bags)})
}

// GetBag handles GET /api/bags/{name}.
func (h *BagHandlers) GetBag(w http.ResponseWriter, r *http.Request) {
	policy, err := h.store.GetBag(r.Context(), r.PathValue("name"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// UpsertBag handles PUT /api/bags/{name}. Creating and adjusting a bag use
// the same call; omitted fields keep their stored value.
func (h *BagHandlers) UpsertBag(w http.ResponseWriter, r *http.Request) {
	var req UpsertBagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	upsert := storage.BagUpsert{
		Name:                r.PathValue("name"),
		Description:         req.Description,
		DefaultTopK:         req.DefaultTopK,
		RecencyHalfLifeDays: req.RecencyHalfLifeDays,
		ImportanceWeight:    req.ImportanceWeight,
	}
	if req.AllowedKinds != nil {
		kinds, bad := types.ParseKinds(*req.AllowedKinds)
		if bad != "" {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported kind %q", bad), nil)
			return
		}
		upsert.AllowedKinds = &kinds
	}

	policy, err := h.store.UpsertBag(r.Context(), upsert)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// DeleteBag handles DELETE /api/bags/{name}. The force query parameter
// cascades to the bag's memories; allow_system permits deleting the seeded
// system bags.
func (h *BagHandlers) DeleteBag(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	opts := storage.DeleteBagOptions{
		Force:       r.URL.Query().Get("force") == "true",
		AllowSystem: r.URL.Query().Get("allow_system") == "true",
	}

	result, err := h.store.DeleteBag(r.Context(), name, opts)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DeleteBagResponse{
		Deleted:         result.Deleted,
		Name:            name,
		MemoriesRemoved: result.MemoriesRemoved,
	})
}
