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

// RequestsHandler handles lease request endpoints.
type RequestsHandler struct {
	Engine *lease.Engine
	Store  store.DBTX
}

type submitRequest struct {
	ItemID   int64     `json:"item_id"`
	Quantity int       `json:"quantity"`
	Until    time.Time `json:"until"`
	Purpose  string    `json:"purpose"`
}

// Submit handles POST /api/requests.
func (h *RequestsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ItemID <= 0 {
		jsonError(w, http.StatusBadRequest, "item_id required")
		return
	}

	created, err := h.Engine.Submit(r.Context(), claims.UserID, req.ItemID, req.Quantity, req.Until, req.Purpose)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("lease request submitted", "user", claims.Username,
		"item", created.ItemName, "quantity", created.Quantity, "until", created.RequestedUntil)
	jsonResponse(w, http.StatusCreated, created)
}

// List handles GET /api/requests. Managers see everything; plain users see
// only their own requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	status := r.URL.Query().Get("status")
	var requesterID int64
	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		requesterID = claims.UserID
	}

	requests, err := store.ListRequests(r.Context(), h.Store, status, requesterID)
	if err != nil {
		storeError(w, err)
		return
	}
	if requests == nil {
		requests = []model.LeaseRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := store.GetRequest(r.Context(), h.Store, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if req == nil || req.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}

	if claims != nil && !model.RoleAtLeast(claims.Role, model.RoleManager) && req.RequesterID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your request")
		return
	}

	jsonResponse(w, http.StatusOK, req)
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	activeLease, err := h.Engine.Approve(r.Context(), id, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("lease request approved", "approver", claims.Username,
		"request", id, "lease", activeLease.ID, "item", activeLease.ItemName)
	jsonResponse(w, http.StatusOK, activeLease)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if err := h.Engine.Reject(r.Context(), id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("lease request rejected", "approver", claims.Username, "request", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "request rejected"})
}

// Cancel handles DELETE /api/requests/{id}. Requesters may withdraw their
// own pending requests.
func (h *RequestsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := store.GetRequest(r.Context(), h.Store, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if req == nil || req.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}

	if claims != nil && !model.RoleAtLeast(claims.Role, model.RoleManager) && req.RequesterID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your request")
		return
	}

	if err := h.Engine.Cancel(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "request cancelled"})
}
