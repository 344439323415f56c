package models

import "time"

// Message is an indexed group chat message that references at least one identifier.
type Message struct {
	Date            time.Time `json:"date"`
	SenderUsername  string    `json:"sender_username,omitempty"`
	SenderFirstName string    `json:"sender_first_name,omitempty"`
	Text            string    `json:"text"`
	MediaType       string    `json:"media_type,omitempty"` // photo, video, audio, voice, document
	FileID          string    `json:"file_id,omitempty"`
	ID              int64     `json:"id"`
	ChatID          int64     `json:"chat_id"`
	MessageID       int64     `json:"message_id"`
	SenderID        int64     `json:"sender_id"`
	IsForward       bool      `json:"is_forward"`
}

// IndexStats summarises the message index.
type IndexStats struct {
	MaleIDs   int64 `json:"male_ids"`
	Messages  int64 `json:"messages"`
	Chats     int64 `json:"chats"`
	FemaleIDs int64 `json:"female_ids"`
}
