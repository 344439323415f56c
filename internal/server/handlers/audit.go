package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/iudanet/chatgate/internal/models"
)

const maxAuditLimit = 500

// AuditLog читает журнал аудита
type AuditLog interface {
	List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEntry, error)
}

// AuditHandler отдает журнал аудита
type AuditHandler struct {
	base
	audit AuditLog
}

// NewAuditHandler создает handler аудита
func NewAuditHandler(logger *slog.Logger, audit AuditLog) *AuditHandler {
	return &AuditHandler{
		base:  base{logger: logger},
		audit: audit,
	}
}

// List обрабатывает GET /api/v1/audit?actor_id=&action=&since=&limit=
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AuditFilter{
		Action: q.Get("action"),
		Limit:  100,
	}

	if v := q.Get("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.sendError(w, "invalid_actor_id", "actor_id must be an integer", http.StatusBadRequest)
			return
		}
		filter.ActorID = id
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.sendError(w, "invalid_since", "since must be RFC3339", http.StatusBadRequest)
			return
		}
		filter.Since = since
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			h.sendError(w, "invalid_limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = min(limit, maxAuditLimit)
	}

	entries, err := h.audit.List(r.Context(), filter)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, entries, http.StatusOK)
}
