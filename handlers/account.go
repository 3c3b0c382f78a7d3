// Package handlers — AccountHandler: self-service HTTP endpoint'leri.
//
// Route'lar (main.go'da bağlanır):
//
//	POST   /api/account/register → Register
//	DELETE /api/account          → Unregister
//	POST   /api/account/license  → IssueLicense
//	GET    /api/account          → Me (kendi kaydı)
//	GET    /api/users/{id}       → GetUser (kendisi veya admin)
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/services"
)

// AccountHandler, self-service endpoint'lerini yöneten struct.
type AccountHandler struct {
	accountService services.AccountService
}

// NewAccountHandler, constructor.
func NewAccountHandler(accountService services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Register godoc
// POST /api/account/register
// Body: { "username": "alice" }
// Actor için yeni kayıt açar.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.accountService.Register(r.Context(), actorID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, record)
}

// Unregister godoc
// DELETE /api/account
// Actor'ün kendi kaydını (lisansıyla birlikte) siler.
func (h *AccountHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	if err := h.accountService.Unregister(r.Context(), actorID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "account unregistered"})
}

// IssueLicense godoc
// POST /api/account/license
// Actor'e yeni lisans kodu üretir. Kod SADECE bu yanıtta görünür.
func (h *AccountHandler) IssueLicense(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	record, err := h.accountService.IssueLicense(r.Context(), actorID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, record)
}

// Me godoc
// GET /api/account
// Actor'ün kendi kaydını döner.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	record, err := h.accountService.Info(r.Context(), actorID, actorID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, record)
}

// GetUser godoc
// GET /api/users/{id}
// Tek bir kaydı döner — kendi kaydı herkese, başkasınınki admin'e açık.
func (h *AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.accountService.Info(r.Context(), actorID, targetID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, record)
}
