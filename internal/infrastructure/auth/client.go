// Package auth pairs this service with a user account and keeps its access
// token fresh.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"ProspectPilot/internal/infrastructure/storage"
	"ProspectPilot/internal/ports"
)

var (
	// ErrNotPaired is returned before a pairing code has been claimed.
	ErrNotPaired = errors.New("not paired")
	// ErrTokenExpired is returned when the refresh token is missing or rejected.
	ErrTokenExpired = errors.New("token expired and could not be refreshed")
)

// Claimer trades a one-time pairing code for a token pair.
type Claimer interface {
	Claim(ctx context.Context, code string) (storage.TokenPair, error)
}

// Client holds the paired credentials in memory and mirrors them to disk.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	file    *CredentialFile
	pairing Claimer
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	creds Credentials
}

var _ ports.TokenSource = (*Client)(nil)

// NewClient loads any previously saved credentials from file.
func NewClient(baseURL, anonKey string, file *CredentialFile, pairing Claimer, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    httpClient,
		file:    file,
		pairing: pairing,
		logger:  logger,
		now:     time.Now,
	}
	if creds, err := file.Load(); err == nil {
		c.creds = creds
	} else if !errors.Is(err, ErrNotPaired) {
		c.warn("cannot load credentials", "error", err)
	}
	return c
}

// Paired reports whether an access token is available.
func (c *Client) Paired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.AccessToken != ""
}

// Pair claims code and persists the resulting tokens. It returns the user id.
func (c *Client) Pair(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("pair: empty code")
	}
	if c.pairing == nil {
		return "", fmt.Errorf("pair: pairing store is not configured")
	}

	pair, err := c.pairing.Claim(ctx, code)
	if err != nil {
		return "", fmt.Errorf("pair: %w", err)
	}

	creds := Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, PairedAt: c.now().UTC()}
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()

	if err := c.file.Save(creds); err != nil {
		return "", fmt.Errorf("pair: %w", err)
	}
	return Subject(creds.AccessToken), nil
}

// AccessToken returns the current token without contacting the auth server.
func (c *Client) AccessToken(context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.creds.AccessToken == "" {
		return "", ErrNotPaired
	}
	return c.creds.AccessToken, nil
}

// UserID is the subject claim of the current access token.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Subject(c.creds.AccessToken)
}

// Refresh exchanges the refresh token for a new access token. A rotated
// refresh token in the response replaces the stored one.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	c.mu.RLock()
	refresh := c.creds.RefreshToken
	c.mu.RUnlock()

	if refresh == "" {
		return "", ErrTokenExpired
	}
	if c.baseURL == "" || c.anonKey == "" {
		return "", fmt.Errorf("refresh: auth endpoint is not configured")
	}

	body, err := json.Marshal(map[string]string{"refresh_token": refresh})
	if err != nil {
		return "", fmt.Errorf("marshal refresh: %w", err)
	}
	endpoint := c.baseURL + "/auth/v1/token?grant_type=refresh_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %s", ErrTokenExpired, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("refresh token: unexpected status %s", resp.Status)
	}

	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode refresh: %w", err)
	}
	if data.AccessToken == "" {
		return "", ErrTokenExpired
	}

	c.mu.Lock()
	c.creds.AccessToken = data.AccessToken
	if data.RefreshToken != "" {
		c.creds.RefreshToken = data.RefreshToken
	}
	creds := c.creds
	c.mu.Unlock()

	if err := c.file.Save(creds); err != nil {
		c.warn("cannot persist refreshed credentials", "error", err)
	}
	return data.AccessToken, nil
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
