package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultLoginTimeout = 10 * time.Second

// AuthClient is the console's view of the external authentication endpoint.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// LoginResult carries the upstream's successful login payload. The account
// bytes are kept raw so fields this core does not model survive untouched.
type LoginResult struct {
	Token   string
	Account json.RawMessage
}

// Client talks to the upstream authentication endpoint over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client for the upstream base URL. A nil httpClient
// falls back to a client with the default login timeout; the upstream
// historically had none, which left a hung login hanging forever.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("session: upstream base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultLoginTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		Token   string          `json:"token"`
		Account json.RawMessage `json:"account"`
	} `json:"data,omitempty"`
}

// Login exchanges credentials for a token and serialized account.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return LoginResult{}, fmt.Errorf("session: encode login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, fmt.Errorf("session: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	defer resp.Body.Close()

	var parsed loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return LoginResult{}, fmt.Errorf("%w: malformed response", ErrLoginFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.Success || parsed.Data == nil {
		msg := strings.TrimSpace(parsed.Error)
		if msg == "" {
			msg = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
		}
		return LoginResult{}, fmt.Errorf("%w: %s", ErrLoginFailed, msg)
	}
	if parsed.Data.Token == "" || len(parsed.Data.Account) == 0 {
		return LoginResult{}, fmt.Errorf("%w: incomplete response", ErrLoginFailed)
	}
	return LoginResult{Token: parsed.Data.Token, Account: parsed.Data.Account}, nil
}

// Logout notifies the upstream that the bearer session ended. The response
// body is not interpreted.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("session: build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session: logout notify: %w", err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
	return nil
}
