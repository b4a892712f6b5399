package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/izposoja/internal/lease"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// LeasesHandler handles active lease endpoints.
type LeasesHandler struct {
	Engine *lease.Engine
	Store  store.DBTX
}

type directLeaseRequest struct {
	ItemID   int64     `json:"item_id"`
	HolderID int64     `json:"holder_id"`
	Quantity int       `json:"quantity"`
	Until    time.Time `json:"until"`
}

// List handles GET /api/leases. Managers see everything; plain users see
// only leases they hold.
func (h *LeasesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var itemID, holderID int64
	if v := r.URL.Query().Get("item_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid item_id")
			return
		}
		itemID = id
	}
	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		holderID = claims.UserID
	}

	leases, err := store.ListLeases(r.Context(), h.Store, itemID, holderID)
	if err != nil {
		storeError(w, err)
		return
	}
	if leases == nil {
		leases = []model.ActiveLease{}
	}
	jsonResponse(w, http.StatusOK, leases)
}

// Create handles POST /api/leases: a direct lease bypassing the request
// workflow. Admin only.
func (h *LeasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req directLeaseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ItemID <= 0 || req.HolderID <= 0 {
		jsonError(w, http.StatusBadRequest, "item_id and holder_id required")
		return
	}

	created, err := h.Engine.DirectLease(r.Context(), req.ItemID, req.HolderID, req.Quantity, req.Until)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("direct lease created", "admin", claims.Username,
		"item", created.ItemName, "holder", created.HolderName, "quantity", created.Quantity)
	jsonResponse(w, http.StatusCreated, created)
}

// Return handles POST /api/leases/{id}/return.
func (h *LeasesHandler) Return(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lease id")
		return
	}

	if err := h.Engine.Return(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("lease returned", "user", claims.Username, "lease", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "lease returned"})
}
