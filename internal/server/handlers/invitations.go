package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/chatgate/internal/invite"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/validation"
	"github.com/iudanet/chatgate/pkg/api"
)

// Invitations описывает операции Invitation Authority, нужные API
type Invitations interface {
	Mint(ctx context.Context, issuer int64, ttl time.Duration) (string, string, error)
	Redeem(ctx context.Context, token string, redeemer int64, username string) (*models.AllowedUser, error)
	SetQuota(ctx context.Context, actorID, adminID, quota int64) error
	Quota(ctx context.Context, adminID int64) (models.AdminInviteQuota, error)
	List(ctx context.Context, adminID int64) ([]invite.InvitationView, error)
}

// InvitationHandler обрабатывает приглашения и квоты
type InvitationHandler struct {
	base
	invites Invitations
}

// NewInvitationHandler создает handler приглашений
func NewInvitationHandler(logger *slog.Logger, v *validation.Validator, invites Invitations) *InvitationHandler {
	return &InvitationHandler{
		base:    base{logger: logger, validator: v},
		invites: invites,
	}
}

// Mint обрабатывает POST /api/v1/invitations
// Токен возвращается один раз, сохраняется только его хеш
func (h *InvitationHandler) Mint(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req api.MintRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, hash, err := h.invites.Mint(r.Context(), adminID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, api.MintResponse{Token: token, TokenHash: hash}, http.StatusCreated)
}

// List обрабатывает GET /api/v1/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}

	views, err := h.invites.List(r.Context(), adminID)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, views, http.StatusOK)
}

// Redeem обрабатывает POST /api/v1/invitations/redeem
func (h *InvitationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req api.RedeemRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.invites.Redeem(r.Context(), req.Token, req.UserID, req.Username)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, api.NewAllowedUserResponse(user), http.StatusOK)
}

// SetQuota обрабатывает PUT /api/v1/quotas/{adminID}
func (h *InvitationHandler) SetQuota(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	adminID, ok := h.pathID(w, r, "adminID")
	if !ok {
		return
	}

	var req api.QuotaRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.invites.SetQuota(r.Context(), actorID, adminID, req.Quota); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendQuota(w, r, adminID)
}

// GetQuota обрабатывает GET /api/v1/quotas/{adminID}
func (h *InvitationHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.pathID(w, r, "adminID")
	if !ok {
		return
	}

	h.sendQuota(w, r, adminID)
}

func (h *InvitationHandler) sendQuota(w http.ResponseWriter, r *http.Request, adminID int64) {
	q, err := h.invites.Quota(r.Context(), adminID)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, api.QuotaResponse{AdminID: adminID, Quota: q.Quota, Used: q.Used}, http.StatusOK)
}
