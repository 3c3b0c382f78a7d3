// Package handlers — FlowHandler: interaktif akış HTTP endpoint'leri.
//
// Route'lar (main.go'da bağlanır):
//
//	POST /api/flows             → Start
//	POST /api/flows/{id}/input  → Input
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/services"
)

// FlowHandler, akış endpoint'lerini yöneten struct.
type FlowHandler struct {
	flowService services.FlowService
}

// NewFlowHandler, constructor.
func NewFlowHandler(flowService services.FlowService) *FlowHandler {
	return &FlowHandler{flowService: flowService}
}

// Start godoc
// POST /api/flows
// Body: { "kind": "expiry_set" } veya { "kind": "plan_set", "plan": "deluxe" }
// Yeni bir düzenleme akışı başlatır.
func (h *FlowHandler) Start(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	var req models.FlowStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.flowService.Start(r.Context(), actorID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, session)
}

// Input godoc
// POST /api/flows/{id}/input
// Body: { "value": "42" }
// Akışa bir adımlık girdi verir.
func (h *FlowHandler) Input(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	sessionID := r.PathValue("id")
	if sessionID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "flow id is required")
		return
	}

	var req models.FlowInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.flowService.Input(r.Context(), actorID, sessionID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}
