package storage

import (
	"context"
)

// SessionStorage хранит сессию ledgerctl между запусками.
// Токен хранится как есть: файл сессии создается с правами 0600.
type SessionStorage interface {
	// SaveSession перезаписывает текущую сессию
	SaveSession(ctx context.Context, s *Session) error

	// GetSession возвращает ErrSessionNotFound, если входа еще не было
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession удаляет сессию (logout)
	DeleteSession(ctx context.Context) error

	// IsAuthenticated сообщает, есть ли непросроченная сессия
	IsAuthenticated(ctx context.Context) (bool, error)
}

// Session - access token admin API и сервер, для которого он выдан
type Session struct {
	ServerURL   string `json:"server_url"`
	AccessToken string `json:"access_token"`
	AdminID     int64  `json:"admin_id"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds
}

// ServerTrail - последний просмотренный момент журнала аудита для сервера
type ServerTrail struct {
	ServerURL string `json:"server_url"`
	LastSeen  int64  `json:"last_seen"` // unix seconds
}

// TrailStorage помнит, до какого момента админ уже читал аудит
type TrailStorage interface {
	SaveTrail(ctx context.Context, t *ServerTrail) error
	// GetTrail возвращает ErrTrailNotFound для нового сервера
	GetTrail(ctx context.Context, serverURL string) (*ServerTrail, error)
}
