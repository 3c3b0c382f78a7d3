// Package handlers — AdminHandler: yönetim HTTP endpoint'leri.
//
// Route'lar (main.go'da bağlanır):
//
//	PATCH  /api/users/{id}        → MutateUser
//	POST   /api/bans/{id}         → Ban
//	DELETE /api/bans/{id}         → Unban
//	POST   /api/admins/{id}       → Promote
//	DELETE /api/admins/{id}       → Demote
//	GET    /api/lists/{category}  → List
//	GET    /api/audit/{id}        → AuditTrail
//
// Yetki kontrolü service katmanındadır — handler sadece çevirir.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/services"
)

// AdminHandler, yönetim endpoint'lerini yöneten struct.
type AdminHandler struct {
	adminService services.AdminService
}

// NewAdminHandler, constructor.
func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// MutateUser godoc
// PATCH /api/users/{id}
// Body: { "kind": "plan_set", "plan": "premium" } vb.
// Hedef kayıt üzerinde tek bir düzenleme uygular.
func (h *AdminHandler) MutateUser(w http.ResponseWriter, r *http.Request) {
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

	var mut models.UserMutation
	if err := json.NewDecoder(r.Body).Decode(&mut); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := mut.Validate(); err != nil {
		pkg.Error(w, err)
		return
	}

	record, err := h.adminService.MutateUser(r.Context(), actorID, targetID, mut)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, record)
}

// Ban godoc
// POST /api/bans/{id}
// Body: { "reason": "spam" }
// Hedefi ban listesine ekler.
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
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

	var req models.BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.adminService.SetBan(r.Context(), actorID, targetID, true, req.Reason); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user banned"})
}

// Unban godoc
// DELETE /api/bans/{id}
// Hedefi ban listesinden çıkarır.
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
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

	if err := h.adminService.SetBan(r.Context(), actorID, targetID, false, ""); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user unbanned"})
}

// Promote godoc
// POST /api/admins/{id}
// Hedefi admin listesine ekler. Super admin only.
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true, "user promoted to admin")
}

// Demote godoc
// DELETE /api/admins/{id}
// Hedefi admin listesinden çıkarır. Super admin only.
func (h *AdminHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false, "user demoted from admin")
}

func (h *AdminHandler) setAdmin(w http.ResponseWriter, r *http.Request, admin bool, message string) {
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

	if err := h.adminService.SetAdmin(r.Context(), actorID, targetID, admin); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": message})
}

// AuditTrail godoc
// GET /api/audit/{id}?by=actor|target&limit=N
// Kullanıcıya dokunan (varsayılan) veya kullanıcının yaptığı son
// denetim kayıtlarını döner.
func (h *AdminHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	subjectID, err := pathID(r)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	byActor := false
	switch r.URL.Query().Get("by") {
	case "", "target":
	case "actor":
		byActor = true
	default:
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "by must be 'actor' or 'target'")
		return
	}

	limit := 0 // 0 → repository varsayılanı
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	entries, err := h.adminService.AuditTrail(r.Context(), actorID, subjectID, byActor, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, entries)
}

// List godoc
// GET /api/lists/{category}
// category: users | licenses | banned | admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
		return
	}

	category, err := models.ParseListCategory(r.PathValue("category"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	listing, err := h.adminService.List(r.Context(), actorID, category)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, listing)
}
