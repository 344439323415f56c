package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/chatgate/internal/server/handlers"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/pkg/api"
)

// AdminChecker проверяет, что пользователь все еще админ
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Права админа перепроверяются на каждом запросе: снятый админ теряет доступ сразу, не дожидаясь истечения токена
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig, admins AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Ожидаем формат: "Bearer <token>"
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing Authorization header", slog.String("path", r.URL.Path))
				writeError(w, "unauthorized", "missing token", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("invalid Authorization header format", sl.Secret("header", authHeader))
				writeError(w, "unauthorized", "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, parts[1])
			if err != nil {
				logger.Warn("invalid access token", sl.Err(err))
				writeError(w, "unauthorized", "invalid token", http.StatusUnauthorized)
				return
			}

			ok, err := admins.IsAdmin(r.Context(), claims.AdminID)
			if err != nil {
				logger.Error("failed to check admin", slog.Int64("admin_id", claims.AdminID), sl.Err(err))
				writeError(w, "store_unavailable", "try again", http.StatusServiceUnavailable)
				return
			}
			if !ok {
				logger.Warn("token of non-admin rejected", slog.Int64("admin_id", claims.AdminID))
				writeError(w, "not_admin", "user is not an admin", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.AdminIDKey, claims.AdminID)

			logger.Debug("admin authenticated", slog.Int64("admin_id", claims.AdminID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: code, Message: message})
}
