// Package auth talks to the account endpoints of the game server. Requests are made once;
// retrying is left to the user.
package auth

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

// Mode picks the account endpoint.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

const maxResponseBytes = 1 << 20

var (
	ErrUnknownMode         = errors.New("unknown auth mode")
	ErrCredentialsRequired = errors.New("username and password are required")
)

// Error is a failure reported by the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth failed: http %d", e.Status)
	}
	return e.Message
}

type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type Profile struct {
	Username string `json:"username"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL, e.g. http://localhost:8080/api.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	return c.Authenticate(ctx, ModeLogin, username, password)
}

func (c *Client) Register(ctx context.Context, username, password string) (*Session, error) {
	return c.Authenticate(ctx, ModeRegister, username, password)
}

// Authenticate posts the credentials to the endpoint named by mode.
func (c *Client) Authenticate(ctx context.Context, mode Mode, username, password string) (*Session, error) {
	if mode != ModeLogin && mode != ModeRegister {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	body, err := json.Marshal(credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+string(mode), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, &Error{Status: http.StatusOK, Message: "server returned no session token"}
	}
	if session.Username == "" {
		session.Username = username
	}
	return &session, nil
}

// Profile checks a session token and returns the account it belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var profile Profile
	if err := c.do(req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
