package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/crypto"
	"github.com/iudanet/chatgate/internal/validation"
	"github.com/iudanet/chatgate/pkg/api"
)

func TestJWT_RoundTrip(t *testing.T) {
	cfg := JWTConfig{Secret: []byte("secret"), AccessTokenTTL: time.Minute}

	token, expiresIn, err := GenerateAccessToken(cfg, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(60), expiresIn)

	claims, err := ValidateAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, int64(77), claims.AdminID)
	assert.Equal(t, "77", claims.Subject)

	_, err = ValidateAccessToken(JWTConfig{Secret: []byte("other")}, token)
	assert.Error(t, err)
}

func TestAuthHandler_Login(t *testing.T) {
	const key = "correct-horse-battery-staple"
	hash, err := crypto.HashAPIKey(key)
	require.NoError(t, err)

	cfg := JWTConfig{Secret: []byte("secret"), AccessTokenTTL: time.Minute}

	tests := []struct {
		name           string
		body           string
		hash           string
		adminID        int64
		expectedStatus int
		expectedCode   string
	}{
		{name: "valid key", body: `{"api_key":"` + key + `"}`, hash: hash, adminID: 5, expectedStatus: http.StatusOK},
		{name: "wrong key", body: `{"api_key":"wrong-horse-battery-staple"}`, hash: hash, adminID: 5, expectedStatus: http.StatusUnauthorized, expectedCode: "invalid_credentials"},
		{name: "short key", body: `{"api_key":"short"}`, hash: hash, adminID: 5, expectedStatus: http.StatusBadRequest, expectedCode: "validation_failed"},
		{name: "malformed body", body: `{`, hash: hash, adminID: 5, expectedStatus: http.StatusBadRequest, expectedCode: "invalid_body"},
		{name: "login not configured", body: `{"api_key":"` + key + `"}`, expectedStatus: http.StatusForbidden, expectedCode: "login_disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(setupTestLogger(), validation.NewValidator(), tt.hash, tt.adminID, cfg)

			w := httptest.NewRecorder()
			h.Login(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp api.TokenResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.adminID, resp.AdminID)

				claims, err := ValidateAccessToken(cfg, resp.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, tt.adminID, claims.AdminID)
				return
			}

			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Error)
		})
	}
}
