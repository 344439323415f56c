package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/chatgate/internal/gate"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/validation"
	"github.com/iudanet/chatgate/pkg/api"
)

// Gate описывает Access Gate
type Gate interface {
	Search(ctx context.Context, userID int64, maleID string) (gate.Decision, error)
	Contribute(ctx context.Context, userID, amount int64) (gate.Decision, error)
}

// Lookup читает индекс сообщений после разрешения gate
type Lookup interface {
	Lookup(ctx context.Context, maleID string, limit, offset int) ([]*models.Message, error)
	Count(ctx context.Context, maleID string) (int64, error)
}

// GateHandler пропускает поиск и вклад через access gate
type GateHandler struct {
	base
	gate   Gate
	index  Lookup
	reward int64
}

// NewGateHandler создает handler gate. reward - награда за вклад по умолчанию
func NewGateHandler(logger *slog.Logger, v *validation.Validator, g Gate, index Lookup, reward int64) *GateHandler {
	return &GateHandler{
		base:   base{logger: logger, validator: v},
		gate:   g,
		index:  index,
		reward: reward,
	}
}

// Search обрабатывает POST /api/v1/gate/search
// Индекс читается только после того, как gate разрешил и списал кредит
func (h *GateHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.gate.Search(r.Context(), req.UserID, req.MaleID)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	resp := decisionResponse(d)
	if !d.Allowed {
		status, _ := StatusFor(d.Reason)
		h.sendJSON(w, resp, status)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = 5
	}

	resp.Total, err = h.index.Count(r.Context(), req.MaleID)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}
	resp.Messages, err = h.index.Lookup(r.Context(), req.MaleID, limit, req.Offset)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Contribute обрабатывает POST /api/v1/gate/contribute
func (h *GateHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	var req api.ContributeRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount := req.Amount
	if amount == 0 {
		amount = h.reward
	}

	d, err := h.gate.Contribute(r.Context(), req.UserID, amount)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}

	status := http.StatusOK
	if !d.Allowed {
		status, _ = StatusFor(d.Reason)
	}
	h.sendJSON(w, decisionResponse(d), status)
}

func decisionResponse(d gate.Decision) api.DecisionResponse {
	resp := api.DecisionResponse{
		Allowed:      d.Allowed,
		Balance:      d.Balance,
		BannedUntil:  d.BannedUntil,
		RetryAfterMs: d.RetryAfter.Milliseconds(),
	}
	if d.Reason != nil {
		resp.Reason = ReasonCode(d.Reason)
	}
	return resp
}
