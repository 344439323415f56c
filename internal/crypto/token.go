package crypto

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// ChatSecretAlphabet excludes look-alike characters (0/O, 1/I)
	ChatSecretAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// ChatSecretLength is short enough to type into a group chat
	ChatSecretLength = 8
)

// GenerateInviteToken returns a URL-safe token usable as a /start deep-link payload
func GenerateInviteToken() (string, error) {
	token, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return token, nil
}

// GenerateChatSecret returns a one-time chat authorization secret
func GenerateChatSecret() (string, error) {
	secret, err := gonanoid.Generate(ChatSecretAlphabet, ChatSecretLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate chat secret: %w", err)
	}
	return secret, nil
}
