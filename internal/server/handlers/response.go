package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
	"github.com/iudanet/chatgate/pkg/api"
)

type contextKey string

const (
	// AdminIDKey ключ для хранения id админа в контексте
	AdminIDKey contextKey = "admin_id"
)

// GetAdminID извлекает id админа из контекста запроса
func GetAdminID(ctx context.Context) (int64, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(int64)
	return adminID, ok
}

// base содержит общие для всех handlers помощники
type base struct {
	logger    *slog.Logger
	validator *validation.Validator
}

func (b base) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("failed to encode JSON response", sl.Err(err))
	}
}

func (b base) sendError(w http.ResponseWriter, code, message string, statusCode int) {
	b.sendJSON(w, api.ErrorResponse{Error: code, Message: message}, statusCode)
}

// sendLedgerError отвечает на ошибку сервиса: бизнес-ошибки уходят клиенту как есть,
// всё остальное логируется и превращается в 503 "try again"
func (b base) sendLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	if ledger.IsBusiness(err) {
		status, code := StatusFor(err)
		b.sendError(w, code, err.Error(), status)
		return
	}

	b.logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		sl.Err(err))

	if errors.Is(err, ledger.ErrStoreUnavailable) {
		w.Header().Set("Retry-After", "1")
		b.sendError(w, "store_unavailable", "try again", http.StatusServiceUnavailable)
		return
	}
	b.sendError(w, "internal", "internal server error", http.StatusInternalServerError)
}

// decode парсит JSON body и валидирует его
func (b base) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		b.logger.WarnContext(r.Context(), "failed to decode request", sl.Err(err))
		b.sendError(w, "invalid_body", "invalid request body", http.StatusBadRequest)
		return false
	}

	if err := b.validator.Validate(dst); err != nil {
		var fields validation.FieldErrors
		if errors.As(err, &fields) {
			b.sendJSON(w, api.ErrorResponse{
				Error:   "validation_failed",
				Message: "validation failed",
				Fields:  fields,
			}, http.StatusBadRequest)
			return false
		}
		b.sendError(w, "validation_failed", err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

// pathID читает int64 параметр пути
func (b base) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		b.sendError(w, "invalid_"+name, name+" must be a non-zero integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// actor возвращает id админа из JWT
func (b base) actor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	adminID, ok := GetAdminID(r.Context())
	if !ok {
		b.sendError(w, "unauthorized", "missing admin identity", http.StatusUnauthorized)
		return 0, false
	}
	return adminID, true
}
