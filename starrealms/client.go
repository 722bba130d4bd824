// Package starrealms is a minimal client for the Star Realms web API: it
// logs in with account credentials once, then fetches the account's activity
// feed (active games, challenges, finished games) with the stored session.
package starrealms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://webservice.starrealms.com"

// ErrNotAuthenticated is returned by Activity when Login has not succeeded
// yet. Sessions are never renewed; an expired one surfaces as a failed fetch.
var ErrNotAuthenticated = errors.New("star realms session missing, login first")

// Config carries the account credentials and optional overrides for the
// client. BaseURL and HTTPClient default to the production service and a
// 10s-timeout client.
type Config struct {
	Username   string
	Password   string
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the Star Realms web API on behalf of a single account. It
// is safe for concurrent use; the session is written once by Login and read
// by every Activity call.
type Client struct {
	username string
	password string
	baseURL  string
	hc       *http.Client

	mu      sync.RWMutex
	session string
}

// New builds a Client from cfg. Credentials are validated by Login, not here.
func New(cfg Config) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		username: cfg.Username,
		password: cfg.Password,
		baseURL:  base,
		hc:       hc,
	}
}

// Username returns the account name the client was configured with.
func (c *Client) Username() string { return c.username }

// Login exchanges the configured credentials for a session and stores it for
// subsequent Activity calls.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("star realms credentials empty")
	}
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("star realms login failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	var body struct {
		Session string `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if body.Session == "" {
		return fmt.Errorf("star realms login response had no session")
	}
	c.mu.Lock()
	c.session = body.Session
	c.mu.Unlock()
	return nil
}

// Activity fetches a fresh snapshot of the account's activity feed.
func (c *Client) Activity(ctx context.Context) (Activity, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == "" {
		return Activity{}, ErrNotAuthenticated
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/activity", nil)
	if err != nil {
		return Activity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+session)
	resp, err := c.hc.Do(req)
	if err != nil {
		return Activity{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Activity{}, fmt.Errorf("star realms activity fetch failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	var act Activity
	if err := json.NewDecoder(resp.Body).Decode(&act); err != nil {
		return Activity{}, err
	}
	return act, nil
}
