package models

import "time"

// User представляет известный боту профиль (создается при первом контакте)
// Профили никогда не удаляются, только блокируются
type User struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Username  string    `json:"username"`   // username без @
	FirstName string    `json:"first_name"` // имя из профиля
	LastName  string    `json:"last_name"`  // фамилия из профиля
	Lang      string    `json:"lang"`       // язык интерфейса (ru, uk), пусто = по умолчанию
	ID        int64     `json:"id"`         // platform user id
	IsBlocked bool      `json:"is_blocked"` // soft block
}

// AllowedUser is the authorization record that permits searching.
// It shares the identity key with User but exists independently.
type AllowedUser struct {
	AddedAt     time.Time  `json:"added_at"`
	BannedUntil *time.Time `json:"banned_until,omitempty"` // nil = never banned
	UsernameLC  string     `json:"username_lc,omitempty"`  // lowercased username used for reservations
	UserID      int64      `json:"user_id"`
	Credits     int64      `json:"credits"`
	AddedBy     int64      `json:"added_by"` // admin id, 0 for self-service paths
}

// IsBanned reports whether the ban is still active at now.
// Bans lift lazily: once now >= BannedUntil the user is no longer banned.
func (u *AllowedUser) IsBanned(now time.Time) bool {
	return u.BannedUntil != nil && now.Before(*u.BannedUntil)
}

// Admin is a user allowed to mint invitations and manage access.
type Admin struct {
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username,omitempty"`
	UserID    int64     `json:"user_id"`
	AddedBy   int64     `json:"added_by"`
}

// RateLimitState stores the last gated action attempt of a user.
type RateLimitState struct {
	LastActionAt time.Time `json:"last_action_at"`
	UserID       int64     `json:"user_id"`
}

// SearchLogEntry is one executed search in the user's history.
type SearchLogEntry struct {
	CreatedAt  time.Time `json:"created_at"`
	QueryType  string    `json:"query_type"`
	QueryValue string    `json:"query_value"`
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
}
