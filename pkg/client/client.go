// Package client is a typed HTTP client for the training administration API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maritime-school/training-admin/internal/models"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int         `json:"-"`
	Message string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used for subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.User, nil
}

func (c *Client) Roster(ctx context.Context, sessionID uint) (*models.SessionRoster, error) {
	var roster models.SessionRoster
	q := url.Values{"sessionId": {strconv.FormatUint(uint64(sessionID), 10)}}
	if err := c.do(ctx, http.MethodGet, "/api/session-agents", q, nil, &roster); err != nil {
		return nil, err
	}
	return &roster, nil
}

// Candidates lists agents not yet in the session whose matricule starts with prefix.
func (c *Client) Candidates(ctx context.Context, sessionID uint, prefix string) ([]*models.Agent, error) {
	var agents []*models.Agent
	q := url.Values{
		"sessionId": {strconv.FormatUint(uint64(sessionID), 10)},
		"matricule": {prefix},
	}
	if err := c.do(ctx, http.MethodGet, "/api/session-agents/candidates", q, nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (c *Client) AddAgent(ctx context.Context, req models.AddSessionAgentRequest) (*models.AgentFormation, error) {
	var row models.AgentFormation
	if err := c.do(ctx, http.MethodPost, "/api/session-agents", nil, req, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *Client) UpdateSessionAgent(ctx context.Context, id uint, req models.UpdateSessionAgentRequest) (*models.AgentFormation, error) {
	var row models.AgentFormation
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/session-agents/%d", id), nil, req, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *Client) ConfirmSessionAgent(ctx context.Context, id uint) (*models.AgentFormation, error) {
	var row models.AgentFormation
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/session-agents/%d/confirm", id), nil, nil, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *Client) RemoveSessionAgent(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/session-agents/%d", id), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
