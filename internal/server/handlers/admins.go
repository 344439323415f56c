package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/chatgate/internal/models"
)

// Roster описывает управление админами; менять состав может только владелец
type Roster interface {
	AddAdmin(ctx context.Context, actorID, userID int64) error
	RemoveAdmin(ctx context.Context, actorID, userID int64) error
	ListAdmins(ctx context.Context) ([]*models.Admin, error)
}

// AdminHandler обрабатывает /api/v1/admins
type AdminHandler struct {
	base
	roster Roster
}

func NewAdminHandler(logger *slog.Logger, roster Roster) *AdminHandler {
	return &AdminHandler{
		base:   base{logger: logger},
		roster: roster,
	}
}

// List обрабатывает GET /api/v1/admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.roster.ListAdmins(r.Context())
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}
	if admins == nil {
		admins = []*models.Admin{}
	}

	h.sendJSON(w, admins, http.StatusOK)
}

// Add обрабатывает POST /api/v1/admins/{userID}
func (h *AdminHandler) Add(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.roster.AddAdmin(r.Context(), actorID, userID); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove обрабатывает DELETE /api/v1/admins/{userID}
func (h *AdminHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.roster.RemoveAdmin(r.Context(), actorID, userID); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
