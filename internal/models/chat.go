package models

import "time"

// UnknownFemaleID is stored when the chat title carries no 10-digit identifier.
const UnknownFemaleID = "UNKNOWN"

// AllowedChat is a group chat authorized for indexing
type AllowedChat struct {
	AddedAt  time.Time `json:"added_at"`
	Title    string    `json:"title"`
	FemaleID string    `json:"female_id"`
	ChatID   int64     `json:"chat_id"`
	AddedBy  int64     `json:"added_by"`
}

// PendingAuthorization is a hashed one-time secret that bootstraps a chat authorization.
type PendingAuthorization struct {
	CreatedAt  time.Time `json:"created_at"`
	SecretHash string    `json:"secret_hash"`
	CreatedBy  int64     `json:"created_by"`
}
