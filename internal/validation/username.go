package validation

import (
	"fmt"
	"strings"
)

const (
	// MinUsernameLen минимальная длина Telegram username
	MinUsernameLen = 5
	// MaxUsernameLen максимальная длина Telegram username
	MaxUsernameLen = 32
)

// NormalizeUsername убирает ведущий @ и приводит username к нижнему регистру
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// ValidateUsername проверяет формат Telegram username (без @)
// Формат: латинские буквы, цифры, нижнее подчеркивание; начинается с буквы
// Длина: 5-32 символа
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	first := username[0]
	if (first < 'a' || first > 'z') && (first < 'A' || first > 'Z') {
		return fmt.Errorf("username must start with a letter")
	}

	for i := 0; i < len(username); i++ {
		c := username[i]
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !isDigit && c != '_' {
			return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
		}
	}

	return nil
}
