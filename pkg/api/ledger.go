package api

import (
	"time"

	"github.com/iudanet/chatgate/internal/models"
)

// MintRequest представляет запрос на выпуск приглашения
type MintRequest struct {
	TTLSeconds int64 `json:"ttl_seconds" validate:"gte=0"` // 0 = TTL по умолчанию
}

// MintResponse возвращает токен один раз, в БД хранится только хеш
type MintResponse struct {
	Token     string `json:"token"`
	TokenHash string `json:"token_hash"`
}

// InvitationResponse описывает выпущенное приглашение, токен не возвращается
type InvitationResponse struct {
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	UsedBy     *int64     `json:"used_by,omitempty"`
	TokenHash  string     `json:"token_hash"`
	Status     string     `json:"status"`
	CreatedBy  int64      `json:"created_by"`
	TTLSeconds int64      `json:"ttl_seconds"`
	IsUsed     bool       `json:"is_used"`
}

// RedeemRequest представляет запрос на активацию приглашения
type RedeemRequest struct {
	Token    string `json:"token" validate:"required"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
}

// AllowedUserResponse описывает пользователя с доступом к поиску
type AllowedUserResponse struct {
	AddedAt     time.Time  `json:"added_at"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
	Username    string     `json:"username,omitempty"`
	UserID      int64      `json:"user_id"`
	Credits     int64      `json:"credits"`
	AddedBy     int64      `json:"added_by"`
}

// NewAllowedUserResponse конвертирует модель в DTO
func NewAllowedUserResponse(u *models.AllowedUser) AllowedUserResponse {
	return AllowedUserResponse{
		UserID:      u.UserID,
		Username:    u.UsernameLC,
		Credits:     u.Credits,
		BannedUntil: u.BannedUntil,
		AddedBy:     u.AddedBy,
		AddedAt:     u.AddedAt,
	}
}

// QuotaRequest задает квоту приглашений админа
type QuotaRequest struct {
	Quota int64 `json:"quota" validate:"gte=0"`
}

// QuotaResponse описывает квоту приглашений
type QuotaResponse struct {
	AdminID int64 `json:"admin_id"`
	Quota   int64 `json:"quota"`
	Used    int64 `json:"used"`
}

// GrantRequest выдает доступ к поиску напрямую, без приглашения
type GrantRequest struct {
	Username string `json:"username"`
	Credits  int64  `json:"credits" validate:"gte=0"` // 0 = кредиты по умолчанию
}

// BanRequest банит пользователя до момента Until или на DurationSeconds
type BanRequest struct {
	Until           *time.Time `json:"until,omitempty"`
	DurationSeconds int64      `json:"duration_seconds" validate:"gte=0"`
}

// TopUpRequest пополняет баланс пользователя
type TopUpRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// CreditsResponse описывает баланс пользователя
type CreditsResponse struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

// SearchRequest проверяет доступ к поиску и возвращает найденные сообщения
type SearchRequest struct {
	MaleID string `json:"male_id" validate:"required,identifier"`
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Limit  int    `json:"limit" validate:"gte=0,max=50"`
	Offset int    `json:"offset" validate:"gte=0"`
}

// ContributeRequest начисляет кредиты за вклад
type ContributeRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	Amount int64 `json:"amount" validate:"gte=0"` // 0 = награда по умолчанию
}

// DecisionResponse описывает решение access gate
type DecisionResponse struct {
	BannedUntil  *time.Time        `json:"banned_until,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Messages     []*models.Message `json:"messages,omitempty"`
	Balance      int64             `json:"balance"`
	RetryAfterMs int64             `json:"retry_after_ms,omitempty"`
	Total        int64             `json:"total,omitempty"`
	Allowed      bool              `json:"allowed"`
}

// ChatSecretResponse возвращает одноразовый секрет авторизации чата
type ChatSecretResponse struct {
	Secret string `json:"secret"`
}
