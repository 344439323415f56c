package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/chatgate/internal/client/storage"
	"github.com/iudanet/chatgate/internal/crypto"
	"github.com/iudanet/chatgate/internal/validation"
	apiv1 "github.com/iudanet/chatgate/pkg/api"
)

func (c *Cli) runLogin(ctx context.Context) error {
	key, err := c.getAPIKey()
	if err != nil {
		return err
	}
	if err := validation.NewValidator().Validate(apiv1.LoginRequest{APIKey: key}); err != nil {
		return fmt.Errorf("invalid api key: %w", err)
	}

	c.io.Println("Authenticating...")

	resp, err := c.apiClient.Login(ctx, key)
	if err != nil {
		return err
	}

	sess := &storage.Session{
		ServerURL:   c.serverURL,
		AccessToken: resp.AccessToken,
		AdminID:     resp.AdminID,
		ExpiresAt:   c.now().Unix() + resp.ExpiresIn,
	}
	if err := c.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Admin ID: %d\n", resp.AdminID)
	c.io.Printf("Access token expires in: %s\n", time.Duration(resp.ExpiresIn)*time.Second)
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.store.DeleteSession(ctx); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.io.Println("Not logged in.")
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	c.io.Println("✓ Logged out")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Printf("Server: %s\n", c.serverURL)

	health, err := c.apiClient.Health(ctx)
	if err != nil {
		c.io.Printf("Server health: unavailable (%v)\n", err)
	} else {
		c.io.Printf("Server health: %s (version %s, database %s)\n", health.Status, health.Version, health.Database)
	}

	sess, err := c.store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.io.Println("Session: not authenticated")
			c.io.Println("Run 'ledgerctl login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	expiresAt := time.Unix(sess.ExpiresAt, 0)
	c.io.Printf("Session: admin %d at %s\n", sess.AdminID, sess.ServerURL)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	if remaining := expiresAt.Sub(c.now()); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Token has expired. Please login again.")
	}
	return nil
}

// runHashKey печатает bcrypt хеш ключа для auth.api_key_hash в конфиге сервера
func (c *Cli) runHashKey() error {
	key, err := c.getAPIKey()
	if err != nil {
		return err
	}
	if err := validation.NewValidator().Validate(apiv1.LoginRequest{APIKey: key}); err != nil {
		return fmt.Errorf("invalid api key: %w", err)
	}

	hash, err := crypto.HashAPIKey(key)
	if err != nil {
		return fmt.Errorf("failed to hash api key: %w", err)
	}
	c.io.Println(hash)
	return nil
}
