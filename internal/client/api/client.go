package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/pkg/api"
)

// Error описывает ответ сервера с кодом ошибки
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d %s): %s", e.Status, e.Code, e.Message)
}

// Client представляет HTTP клиент admin API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetToken задает access token для последующих запросов
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// Login обменивает API ключ на access token
func (c *Client) Login(ctx context.Context, apiKey string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{APIKey: apiKey}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Mint выпускает приглашение, ttl 0 означает TTL сервера по умолчанию
func (c *Client) Mint(ctx context.Context, ttl time.Duration) (*api.MintResponse, error) {
	var resp api.MintResponse
	req := api.MintRequest{TTLSeconds: int64(ttl / time.Second)}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/invitations", req, &resp); err != nil {
		return nil, fmt.Errorf("mint request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) ListInvitations(ctx context.Context) ([]api.InvitationResponse, error) {
	var resp []api.InvitationResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/invitations", nil, &resp); err != nil {
		return nil, fmt.Errorf("list invitations request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) Redeem(ctx context.Context, req api.RedeemRequest) (*api.AllowedUserResponse, error) {
	var resp api.AllowedUserResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/invitations/redeem", req, &resp); err != nil {
		return nil, fmt.Errorf("redeem request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) SetQuota(ctx context.Context, adminID, quota int64) (*api.QuotaResponse, error) {
	var resp api.QuotaResponse
	path := fmt.Sprintf("/api/v1/quotas/%d", adminID)
	if err := c.doRequest(ctx, http.MethodPut, path, api.QuotaRequest{Quota: quota}, &resp); err != nil {
		return nil, fmt.Errorf("set quota request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) GetQuota(ctx context.Context, adminID int64) (*api.QuotaResponse, error) {
	var resp api.QuotaResponse
	path := fmt.Sprintf("/api/v1/quotas/%d", adminID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get quota request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) Grant(ctx context.Context, userID int64, req api.GrantRequest) (*api.AllowedUserResponse, error) {
	var resp api.AllowedUserResponse
	path := fmt.Sprintf("/api/v1/users/%d/grant", userID)
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("grant request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) Revoke(ctx context.Context, userID int64) error {
	path := fmt.Sprintf("/api/v1/users/%d", userID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	return nil
}

func (c *Client) Ban(ctx context.Context, userID int64, req api.BanRequest) error {
	path := fmt.Sprintf("/api/v1/users/%d/ban", userID)
	if err := c.doRequest(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("ban request failed: %w", err)
	}
	return nil
}

func (c *Client) Unban(ctx context.Context, userID int64) error {
	path := fmt.Sprintf("/api/v1/users/%d/ban", userID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("unban request failed: %w", err)
	}
	return nil
}

func (c *Client) Block(ctx context.Context, userID int64) error {
	path := fmt.Sprintf("/api/v1/users/%d/block", userID)
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("block request failed: %w", err)
	}
	return nil
}

func (c *Client) Unblock(ctx context.Context, userID int64) error {
	path := fmt.Sprintf("/api/v1/users/%d/block", userID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("unblock request failed: %w", err)
	}
	return nil
}

func (c *Client) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	var resp []models.Admin
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/admins", nil, &resp); err != nil {
		return nil, fmt.Errorf("list admins request failed: %w", err)
	}
	return resp, nil
}

// AddAdmin works only with the owner's API key
func (c *Client) AddAdmin(ctx context.Context, userID int64) error {
	path := fmt.Sprintf("/api/v1/admins/%d", userID)
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("add admin request failed: %w", err)
	}
	return nil
}

func (c *Client) RemoveAdmin(ctx context.Context, userID int64) error {
	path := fmt.Sprintf("/api/v1/admins/%d", userID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove admin request failed: %w", err)
	}
	return nil
}

func (c *Client) Credits(ctx context.Context, userID int64) (*api.CreditsResponse, error) {
	var resp api.CreditsResponse
	path := fmt.Sprintf("/api/v1/users/%d/credits", userID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("credits request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) TopUp(ctx context.Context, userID, amount int64) (*api.CreditsResponse, error) {
	var resp api.CreditsResponse
	path := fmt.Sprintf("/api/v1/users/%d/credits", userID)
	if err := c.doRequest(ctx, http.MethodPost, path, api.TopUpRequest{Amount: amount}, &resp); err != nil {
		return nil, fmt.Errorf("top up request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) ListChats(ctx context.Context) ([]models.AllowedChat, error) {
	var resp []models.AllowedChat
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/chats", nil, &resp); err != nil {
		return nil, fmt.Errorf("list chats request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) IssueChatSecret(ctx context.Context) (*api.ChatSecretResponse, error) {
	var resp api.ChatSecretResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/chats/secrets", nil, &resp); err != nil {
		return nil, fmt.Errorf("issue secret request failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) UnauthorizeChat(ctx context.Context, chatID int64) error {
	path := fmt.Sprintf("/api/v1/chats/%d", chatID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("unauthorize request failed: %w", err)
	}
	return nil
}

// Audit читает журнал аудита; нулевые поля фильтра не передаются
func (c *Client) Audit(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	q := url.Values{}
	if filter.ActorID != 0 {
		q.Set("actor_id", strconv.FormatInt(filter.ActorID, 10))
	}
	if filter.Action != "" {
		q.Set("action", filter.Action)
	}
	if !filter.Since.IsZero() {
		q.Set("since", filter.Since.UTC().Format(time.RFC3339))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/api/v1/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp []models.AuditEntry
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("audit request failed: %w", err)
	}
	return resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			apiErr.Code = errResp.Error
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
