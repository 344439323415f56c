package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/pkg/api"
)

// TestClient_Login проверяет обмен API ключа на токен
func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0123456789abcdef", req.APIKey)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.TokenResponse{AccessToken: "jwt", ExpiresIn: 900, AdminID: 42})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Login(context.Background(), "0123456789abcdef")

	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.AccessToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, int64(42), resp.AdminID)
}

// TestClient_BearerToken проверяет, что токен передается в заголовке
func TestClient_BearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/users/7/credits", r.URL.Path)
		_ = json.NewEncoder(w).Encode(api.CreditsResponse{UserID: 7, Balance: 12})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("secret-token")

	resp, err := client.Credits(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12), resp.Balance)
}

func TestClient_Mint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/invitations", r.URL.Path)

		var req api.MintRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(3600), req.TTLSeconds)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.MintResponse{Token: "tok", TokenHash: "hash"})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Mint(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "hash", resp.TokenHash)
}

func TestClient_ListInvitations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode([]api.InvitationResponse{
			{TokenHash: "a", Status: "active", CreatedBy: 1},
			{TokenHash: "b", Status: "used", CreatedBy: 1, IsUsed: true},
		})
	}))
	defer server.Close()

	list, err := NewClient(server.URL).ListInvitations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "used", list[1].Status)
	assert.True(t, list[1].IsUsed)
}

func TestClient_ListAdmins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/admins", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]models.Admin{
			{UserID: 1},
			{UserID: 7, AddedBy: 1, Username: "bob"},
		})
	}))
	defer server.Close()

	admins, err := NewClient(server.URL).ListAdmins(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, "bob", admins[1].Username)
	assert.Equal(t, int64(1), admins[1].AddedBy)
}

// TestClient_Errors проверяет разбор ошибок сервера
func TestClient_Errors(t *testing.T) {
	tests := []struct {
		responseBody interface{}
		name         string
		wantCode     string
		wantMsg      string
		statusCode   int
	}{
		{
			name:         "quota exceeded",
			statusCode:   http.StatusConflict,
			responseBody: api.ErrorResponse{Error: "quota_exceeded", Message: "invitation quota exceeded"},
			wantCode:     "quota_exceeded",
			wantMsg:      "server error (409 quota_exceeded): invitation quota exceeded",
		},
		{
			name:         "unauthorized",
			statusCode:   http.StatusUnauthorized,
			responseBody: api.ErrorResponse{Error: "unauthorized"},
			wantCode:     "unauthorized",
			wantMsg:      "server error (401 unauthorized)",
		},
		{
			name:         "plain text body",
			statusCode:   http.StatusInternalServerError,
			responseBody: "Internal Server Error",
			wantMsg:      "server error (500): Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if errResp, ok := tt.responseBody.(api.ErrorResponse); ok {
					_ = json.NewEncoder(w).Encode(errResp)
				} else {
					_, _ = w.Write([]byte(tt.responseBody.(string)))
				}
			}))
			defer server.Close()

			resp, err := NewClient(server.URL).GetQuota(context.Background(), 1)

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.statusCode, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestClient_NoContent(t *testing.T) {
	tests := []struct {
		call   func(c *Client) error
		name   string
		method string
		path   string
	}{
		{
			name:   "revoke",
			method: http.MethodDelete,
			path:   "/api/v1/users/5",
			call:   func(c *Client) error { return c.Revoke(context.Background(), 5) },
		},
		{
			name:   "ban",
			method: http.MethodPost,
			path:   "/api/v1/users/5/ban",
			call: func(c *Client) error {
				return c.Ban(context.Background(), 5, api.BanRequest{DurationSeconds: 60})
			},
		},
		{
			name:   "unban",
			method: http.MethodDelete,
			path:   "/api/v1/users/5/ban",
			call:   func(c *Client) error { return c.Unban(context.Background(), 5) },
		},
		{
			name:   "block",
			method: http.MethodPost,
			path:   "/api/v1/users/5/block",
			call:   func(c *Client) error { return c.Block(context.Background(), 5) },
		},
		{
			name:   "unblock",
			method: http.MethodDelete,
			path:   "/api/v1/users/5/block",
			call:   func(c *Client) error { return c.Unblock(context.Background(), 5) },
		},
		{
			name:   "add admin",
			method: http.MethodPost,
			path:   "/api/v1/admins/7",
			call:   func(c *Client) error { return c.AddAdmin(context.Background(), 7) },
		},
		{
			name:   "remove admin",
			method: http.MethodDelete,
			path:   "/api/v1/admins/7",
			call:   func(c *Client) error { return c.RemoveAdmin(context.Background(), 7) },
		},
		{
			name:   "unauthorize chat",
			method: http.MethodDelete,
			path:   "/api/v1/chats/-100123",
			call:   func(c *Client) error { return c.UnauthorizeChat(context.Background(), -100123) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			require.NoError(t, tt.call(NewClient(server.URL)))
		})
	}
}

func TestClient_GrantAndTopUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/9/grant":
			var req api.GrantRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "bob", req.Username)
			_ = json.NewEncoder(w).Encode(api.AllowedUserResponse{UserID: 9, Username: "bob", Credits: req.Credits})
		case "/api/v1/users/9/credits":
			assert.Equal(t, http.MethodPost, r.Method)
			var req api.TopUpRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			_ = json.NewEncoder(w).Encode(api.CreditsResponse{UserID: 9, Balance: 5 + req.Amount})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	user, err := client.Grant(ctx, 9, api.GrantRequest{Username: "bob", Credits: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.Credits)

	credits, err := client.TopUp(ctx, 9, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), credits.Balance)
}

func TestClient_AuditQuery(t *testing.T) {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "42", q.Get("actor_id"))
		assert.Equal(t, "grant_user", q.Get("action"))
		assert.Equal(t, "2026-01-02T03:04:05Z", q.Get("since"))
		assert.Equal(t, "10", q.Get("limit"))
		_ = json.NewEncoder(w).Encode([]models.AuditEntry{{ActorID: 42, Action: "grant_user"}})
	}))
	defer server.Close()

	entries, err := NewClient(server.URL).Audit(context.Background(), models.AuditFilter{
		ActorID: 42,
		Action:  "grant_user",
		Since:   since,
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(42), entries[0].ActorID)
}

func TestClient_AuditNoFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode([]models.AuditEntry{})
	}))
	defer server.Close()

	entries, err := NewClient(server.URL).Audit(context.Background(), models.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClient_ConnectionError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health request failed")
}
