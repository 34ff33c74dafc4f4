// Package stream talks to the Stream chat REST API. Only the calls the backend
// needs are covered: user upserts and user token issuance.
package stream

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

	"github.com/golang-jwt/jwt/v4"
)

// ErrNotConfigured is returned when the API key or secret is missing.
var ErrNotConfigured = errors.New("stream api key or secret is missing")

// User is a chat user as stored by the provider.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, apiSecret, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

// UserToken issues a client-side token for userID.
func (c *Client) UserToken(userID string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	if userID == "" {
		return "", errors.New("userID is required")
	}
	return c.sign(jwt.MapClaims{"user_id": userID})
}

// UpsertUser creates or replaces the chat user.
func (c *Client) UpsertUser(ctx context.Context, user User) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}

	serverToken, err := c.sign(jwt.MapClaims{"server": true})
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]map[string]User{"users": {user.ID: user}})
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	url := fmt.Sprintf("%s/users?api_key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", serverToken)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upsert stream user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("stream upsert returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (c *Client) sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign stream token: %w", err)
	}
	return signed, nil
}
