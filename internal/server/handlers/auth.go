package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/chatgate/internal/crypto"
	"github.com/iudanet/chatgate/internal/validation"
	"github.com/iudanet/chatgate/pkg/api"
)

// AuthHandler выдает JWT по admin API key
type AuthHandler struct {
	base
	apiKeyHash string
	adminID    int64
	jwtConfig  JWTConfig
}

// NewAuthHandler создает новый handler для авторизации.
// apiKeyHash - bcrypt хеш ключа, adminID - админ, от имени которого действует ключ
func NewAuthHandler(logger *slog.Logger, v *validation.Validator, apiKeyHash string, adminID int64, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		base:       base{logger: logger, validator: v},
		apiKeyHash: apiKeyHash,
		adminID:    adminID,
		jwtConfig:  jwtConfig,
	}
}

// Login обрабатывает POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if h.apiKeyHash == "" || h.adminID == 0 {
		h.sendError(w, "login_disabled", "api key login is not configured", http.StatusForbidden)
		return
	}

	// Одинаковый ответ на любой неверный ключ
	if err := crypto.VerifyAPIKey(req.APIKey, h.apiKeyHash); err != nil {
		h.logger.WarnContext(ctx, "invalid api key", slog.String("remote_addr", r.RemoteAddr))
		h.sendError(w, "invalid_credentials", "invalid api key", http.StatusUnauthorized)
		return
	}

	token, expiresIn, err := GenerateAccessToken(h.jwtConfig, h.adminID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		h.sendError(w, "internal", "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "admin logged in", slog.Int64("admin_id", h.adminID))

	h.sendJSON(w, api.TokenResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		AdminID:     h.adminID,
	}, http.StatusOK)
}
