package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
)

const defaultTimeout = 30 * time.Second

// Client talks to the pairing server. It is safe for concurrent use; the
// bearer token may be swapped while requests are in flight.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string

	// OnUnauthorized is invoked when an authenticated request comes back
	// 401, before the error is returned. Login and register failures do
	// not trigger it.
	OnUnauthorized func()
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Authenticate exchanges credentials for a bearer token. The token is not
// stored on the client; callers decide what to do with it.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/login", credentials{Email: email, Password: password}, &resp, false); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
			return "", apperrors.InvalidCredentials()
		}
		return "", fmt.Errorf("client.Authenticate: %w", err)
	}
	return resp.AccessToken, nil
}

// RegisterAccount creates a new account and returns its bearer token.
func (c *Client) RegisterAccount(ctx context.Context, name, email, password string) (string, error) {
	var resp tokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/register", registration{Name: name, Email: email, Password: password}, &resp, false); err != nil {
		return "", fmt.Errorf("client.RegisterAccount: %w", err)
	}
	return resp.AccessToken, nil
}

// ResolveIdentity returns the user the current token belongs to.
func (c *Client) ResolveIdentity(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, "/api/users/me", &user); err != nil {
		return nil, fmt.Errorf("client.ResolveIdentity: %w", err)
	}
	return &user, nil
}

// ListUsers returns the full roster.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/api/users", &users); err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return users, nil
}

// ListUnpaired returns users who have no pair registered for today.
func (c *Client) ListUnpaired(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/api/users/unpaired", &users); err != nil {
		return nil, fmt.Errorf("client.ListUnpaired: %w", err)
	}
	return users, nil
}

// WeeklyHistory returns the caller's pairs for the current week, newest
// first.
func (c *Client) WeeklyHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	if err := c.get(ctx, "/api/pairs/history", &entries); err != nil {
		return nil, fmt.Errorf("client.WeeklyHistory: %w", err)
	}
	return entries, nil
}

// CreatePair registers today's pair with the given partner.
func (c *Client) CreatePair(ctx context.Context, partnerID int64) (*model.Pair, error) {
	var pair model.Pair
	if err := c.doRequest(ctx, http.MethodPost, "/api/pairs", map[string]int64{"partner_id": partnerID}, &pair, true); err != nil {
		return nil, fmt.Errorf("client.CreatePair: %w", err)
	}
	return &pair, nil
}

// Health pings the server without authentication.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/healthz", nil, nil, false); err != nil {
		return fmt.Errorf("client.Health: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out, true)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any, authed bool) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, "marshal request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Unreachable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		appErr := decodeError(resp)
		if authed && resp.StatusCode == http.StatusUnauthorized && c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return appErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, "decode response", err)
		}
	}
	return nil
}

// decodeError turns a non-2xx response into an AppError, trusting the
// server's error code when the body carries one.
func decodeError(resp *http.Response) *apperrors.AppError {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr == nil {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			return apperrors.New(apperrors.ErrorCode(apiErr.Code), apiErr.Error)
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.Unauthorized("Authentication required")
	case http.StatusNotFound:
		return apperrors.NotFound("Resource")
	case http.StatusTooManyRequests:
		return apperrors.RateLimitExceeded()
	default:
		return apperrors.Internal(fmt.Sprintf("server returned HTTP %d", resp.StatusCode))
	}
}
