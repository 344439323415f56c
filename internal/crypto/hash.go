package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashToken хеширует одноразовый токен (приглашение, секрет авторизации чата) SHA256
// Хеш детерминированный: по нему ищется запись в БД, сам токен не сохраняется
func HashToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}

	hash := sha256.Sum256([]byte(token))

	return hex.EncodeToString(hash[:]), nil
}

// HashAPIKey хеширует admin API key через bcrypt для хранения в конфиге
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("api key cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}

	return string(hash), nil
}

// VerifyAPIKey проверяет admin API key против bcrypt хеша
func VerifyAPIKey(key, hashedKey string) error {
	if key == "" {
		return fmt.Errorf("api key cannot be empty")
	}
	if hashedKey == "" {
		return fmt.Errorf("hashed api key cannot be empty")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key)); err != nil {
		return fmt.Errorf("invalid api key")
	}

	return nil
}
