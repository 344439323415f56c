package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
env: local
auth:
  jwt_secret: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, int64(100), cfg.Ledger.DefaultCredits)
	assert.Equal(t, time.Hour, cfg.Ledger.InviteTTL)
	assert.Equal(t, 2*time.Second, cfg.Ledger.RateLimit.MinInterval)
	assert.False(t, cfg.Ledger.RateLimit.RefreshOnlyOnAllow)
	assert.False(t, cfg.HTTP.Enabled)
	assert.Equal(t, 30, cfg.Ledger.RateLimit.BurstLimit)
	assert.Equal(t, time.Minute, cfg.Ledger.RateLimit.BurstWindow)
	assert.Equal(t, 15*time.Minute, cfg.Ledger.RateLimit.AutoBan)
	assert.Equal(t, "@hourly", cfg.Cleanup.Schedule)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
env: prod
auth:
  jwt_secret: secret
ledger:
  default_credits: 50
  invite_ttl: 30m
  rate_limit:
    min_interval: 5s
    refresh_only_on_allow: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(50), cfg.Ledger.DefaultCredits)
	assert.Equal(t, 30*time.Minute, cfg.Ledger.InviteTTL)
	assert.Equal(t, 5*time.Second, cfg.Ledger.RateLimit.MinInterval)
	assert.True(t, cfg.Ledger.RateLimit.RefreshOnlyOnAllow)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing jwt secret",
			body: "env: local\nhttp:\n  enabled: true\n",
			want: "jwt_secret",
		},
		{
			name: "telegram without token",
			body: "auth:\n  jwt_secret: s\ntelegram:\n  enabled: true\n",
			want: "telegram.token",
		},
		{
			name: "negative credits",
			body: "auth:\n  jwt_secret: s\nledger:\n  default_credits: -1\n",
			want: "default_credits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
