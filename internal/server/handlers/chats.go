package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/pkg/api"
)

// Chats описывает авторизацию групповых чатов
type Chats interface {
	IssueSecret(ctx context.Context, adminID int64) (string, error)
	Unauthorize(ctx context.Context, actorID, chatID int64) error
	List(ctx context.Context, adminID int64) ([]*models.AllowedChat, error)
}

// ChatHandler обрабатывает секреты и авторизованные чаты
type ChatHandler struct {
	base
	chats Chats
}

// NewChatHandler создает handler чатов
func NewChatHandler(logger *slog.Logger, chats Chats) *ChatHandler {
	return &ChatHandler{
		base:  base{logger: logger},
		chats: chats,
	}
}

// IssueSecret обрабатывает POST /api/v1/chats/secrets
func (h *ChatHandler) IssueSecret(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}

	secret, err := h.chats.IssueSecret(r.Context(), adminID)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, api.ChatSecretResponse{Secret: secret}, http.StatusCreated)
}

// List обрабатывает GET /api/v1/chats
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.List(r.Context(), 0)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, chats, http.StatusOK)
}

// Unauthorize обрабатывает DELETE /api/v1/chats/{chatID}
// Сообщения и легенды чата удаляются каскадно
func (h *ChatHandler) Unauthorize(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := h.pathID(w, r, "chatID")
	if !ok {
		return
	}

	if err := h.chats.Unauthorize(r.Context(), adminID, chatID); err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
