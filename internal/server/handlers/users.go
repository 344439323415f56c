package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/validation"
	"github.com/iudanet/chatgate/pkg/api"
)

// Users описывает операции Identity Store
type Users interface {
	Grant(ctx context.Context, adminID, userID int64, username string, credits int64) (*models.AllowedUser, error)
	Revoke(ctx context.Context, adminID, userID int64) error
	Block(ctx context.Context, actorID, userID int64) error
	Unblock(ctx context.Context, actorID, userID int64) error
}

// Bans описывает ручные баны Rate Limiter
type Bans interface {
	Ban(ctx context.Context, actorID, userID int64, until time.Time) error
	ClearBan(ctx context.Context, actorID, userID int64) error
}

// Credits описывает операции Credit Ledger
type Credits interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	TopUp(ctx context.Context, adminID, userID, amount int64) (int64, error)
}

// UserHandler обрабатывает доступ, баны и баланс пользователей
type UserHandler struct {
	base
	users   Users
	bans    Bans
	credits Credits
	now     func() time.Time
}

// NewUserHandler создает handler пользователей
func NewUserHandler(logger *slog.Logger, v *validation.Validator, users Users, bans Bans, credits Credits) *UserHandler {
	return &UserHandler{
		base:    base{logger: logger, validator: v},
		users:   users,
		bans:    bans,
		credits: credits,
		now:     time.Now,
	}
}

// Grant обрабатывает POST /api/v1/users/{userID}/grant
func (h *UserHandler) Grant(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	var req api.GrantRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Grant(r.Context(), adminID, userID, req.Username, req.Credits)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, api.NewAllowedUserResponse(user), http.StatusOK)
}

// Revoke обрабатывает DELETE /api/v1/users/{userID}
func (h *UserHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.users.Revoke(r.Context(), adminID, userID); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Block обрабатывает POST /api/v1/users/{userID}/block
// Заблокированного пользователя бот молча игнорирует
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, h.users.Block)
}

// Unblock обрабатывает DELETE /api/v1/users/{userID}/block
func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, h.users.Unblock)
}

func (h *UserHandler) setBlocked(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, actorID, userID int64) error) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := apply(r.Context(), adminID, userID); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Ban обрабатывает POST /api/v1/users/{userID}/ban
func (h *UserHandler) Ban(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	var req api.BanRequest
	if !h.decode(w, r, &req) {
		return
	}

	var until time.Time
	switch {
	case req.Until != nil:
		until = *req.Until
	case req.DurationSeconds > 0:
		until = h.now().Add(time.Duration(req.DurationSeconds) * time.Second)
	default:
		h.sendError(w, "validation_failed", "until or duration_seconds is required", http.StatusBadRequest)
		return
	}

	if err := h.bans.Ban(r.Context(), adminID, userID, until); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unban обрабатывает DELETE /api/v1/users/{userID}/ban
func (h *UserHandler) Unban(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.bans.ClearBan(r.Context(), adminID, userID); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Credits обрабатывает GET /api/v1/users/{userID}/credits
func (h *UserHandler) Credits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	balance, err := h.credits.Balance(r.Context(), userID)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, api.CreditsResponse{UserID: userID, Balance: balance}, http.StatusOK)
}

// TopUp обрабатывает POST /api/v1/users/{userID}/credits
func (h *UserHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	var req api.TopUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	balance, err := h.credits.TopUp(r.Context(), adminID, userID, req.Amount)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, api.CreditsResponse{UserID: userID, Balance: balance}, http.StatusOK)
}
