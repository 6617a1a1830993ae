package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kata/internal/config"
	"kata/internal/models"

	"github.com/sirupsen/logrus"
)

// lookupTimeout bounds every provider round trip so the guard can fail
// closed instead of hanging a navigation.
const lookupTimeout = 10 * time.Second

// Client talks to the hosted auth provider. The provider owns credentials,
// token issuance and email delivery; this client only reads the current
// user and exchanges callback codes.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg config.AuthConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.Key,
		httpClient: &http.Client{Timeout: lookupTimeout},
		logger:     logger,
	}
}

// Configured reports whether the provider endpoint is known. An
// unconfigured client classifies everyone as anonymous.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// CurrentUser resolves the user behind an access token. A nil user with a
// nil error means the token is missing or rejected; callers treat both the
// same way (anonymous).
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	if !c.Configured() || accessToken == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}

	var user models.AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode auth provider response: %w", err)
	}
	return &user, nil
}

// Session is the provider's answer to a code exchange.
type Session struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int             `json:"expires_in"`
	User         models.AuthUser `json:"user"`
}

// ExchangeCode trades an auth callback code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("auth provider is not configured")
	}

	form := url.Values{}
	form.Set("auth_code", code)

	endpoint := c.baseURL + "/auth/v1/token?grant_type=authorization_code"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
		}).Warn("Auth code exchange rejected")
		return nil, fmt.Errorf("auth provider rejected code exchange with status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}
