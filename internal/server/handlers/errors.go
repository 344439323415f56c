package handlers

import (
	"errors"
	"net/http"

	"github.com/iudanet/chatgate/internal/ledger"
)

type errorMapping struct {
	err    error
	code   string
	status int
}

var errorMappings = []errorMapping{
	{ledger.ErrNotRegistered, "not_registered", http.StatusForbidden},
	{ledger.ErrBanned, "banned", http.StatusForbidden},
	{ledger.ErrTooSoon, "too_soon", http.StatusTooManyRequests},
	{ledger.ErrInsufficientCredits, "insufficient_credits", http.StatusPaymentRequired},
	{ledger.ErrTokenNotFound, "token_not_found", http.StatusNotFound},
	{ledger.ErrTokenExpired, "token_expired", http.StatusGone},
	{ledger.ErrTokenAlreadyUsed, "token_already_used", http.StatusConflict},
	{ledger.ErrQuotaExceeded, "quota_exceeded", http.StatusConflict},
	{ledger.ErrInvalidAmount, "invalid_amount", http.StatusBadRequest},
	{ledger.ErrInvalidQuota, "invalid_quota", http.StatusBadRequest},
	{ledger.ErrInvalidTTL, "invalid_ttl", http.StatusBadRequest},
	{ledger.ErrSecretNotFound, "secret_not_found", http.StatusNotFound},
	{ledger.ErrChatNotAllowed, "chat_not_allowed", http.StatusNotFound},
	{ledger.ErrAlreadyReserved, "already_reserved", http.StatusConflict},
	{ledger.ErrNotAdmin, "not_admin", http.StatusForbidden},
	{ledger.ErrOwnerOnly, "owner_only", http.StatusForbidden},
	{ledger.ErrInvalidUsername, "invalid_username", http.StatusBadRequest},
	{ledger.ErrInvalidIdentifier, "invalid_identifier", http.StatusBadRequest},
	{ledger.ErrStoreUnavailable, "store_unavailable", http.StatusServiceUnavailable},
}

// StatusFor возвращает HTTP статус и машинный код для ошибки сервиса
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// ReasonCode возвращает машинный код причины отказа
func ReasonCode(err error) string {
	_, code := StatusFor(err)
	return code
}
