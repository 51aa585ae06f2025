package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Endpoint paths served by Server.
const (
	EncounterPath = "/generate-encounter"
	AdventurePath = "/generate-adventure"
	HealthPath    = "/healthz"
)

// Client talks to a relay server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for the relay at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// Generate posts prompt to path and returns the generated content.
// adventureType is only used by AdventurePath ("campaign" or "oneshot").
func (c *Client) Generate(ctx context.Context, path, prompt, adventureType string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}
	body, err := json.Marshal(GenerateRequest{Prompt: prompt, AdventureType: adventureType})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read relay response: %w", err)
	}
	var out GenerateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("relay returned %d with unreadable body: %w", resp.StatusCode, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("relay: %s", out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("relay returned status %d", resp.StatusCode)
	}
	if strings.TrimSpace(out.Content) == "" {
		return "", ErrNoContent
	}
	return out.Content, nil
}

// Health calls GET /healthz and reports whether the relay has an upstream
// key configured.
func (c *Client) Health(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+HealthPath, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("relay request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("relay returned status %d", resp.StatusCode)
	}
	var body struct {
		UpstreamConfigured bool `json:"upstreamConfigured"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("unreadable health response: %w", err)
	}
	return body.UpstreamConfigured, nil
}
