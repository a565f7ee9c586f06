package audit

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

const (
	requestTimeout = 60 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	auditPath      = "/v1/audit"
)

var (
	// ErrUnauthorized indicates the API key is missing or rejected.
	ErrUnauthorized = errors.New("audit: unauthorized (api key missing or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("audit: rate limited")
)

// Client calls a text-generation service that answers audit requests.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates a client. Returns nil if baseURL or apiKey is empty.
func NewClient(baseURL, apiKey, model string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || apiKey == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{},
	}
}

type generateRequest struct {
	Model string `json:"model,omitempty"`
	Request
}

// Generate posts the request and decodes the suggestions.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	payload, err := json.Marshal(generateRequest{Model: c.model, Request: req})
	if err != nil {
		return nil, fmt.Errorf("audit: encoding request: %w", err)
	}

	body, err := c.post(ctx, auditPath, payload)
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("audit: parsing response: %w", err)
	}
	return &res, nil
}

// post performs an authenticated POST request and returns the response body.
func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("audit: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "opsdash/1.0")

	//nolint:gosec // base URL comes from the local user's config
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audit: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("audit: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("audit: reading response: %w", err)
	}
	return body, nil
}
