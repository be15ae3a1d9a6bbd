// Package usage reports how much of a Claude subscription's rolling
// five-hour and seven-day allowances has been used.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultEndpoint  = "https://api.anthropic.com/api/oauth/usage"
	DefaultUserAgent = "claude-code/2.0.31"
	DefaultTimeout   = 10 * time.Second

	betaHeader = "oauth-2025-04-20"
)

// ErrUnauthorized is returned when the API rejects the token.
var ErrUnauthorized = errors.New("token expired or invalid, run `claude logout && claude login`")

// StatusError reports any other non-200 response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("usage API error: HTTP %d", e.Code)
}

// Client queries the usage endpoint.
type Client struct {
	endpoint   string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

type ClientOption func(*Client)

func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client authenticating with token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		token:      token,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a single GET against the usage endpoint.
func (c *Client) Fetch(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("anthropic-beta", betaHeader)
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("fetching usage", "url", c.endpoint, "authorization", req.Header.Get("Authorization"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	report, err := ParseReport(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("usage fetched", "bytes", len(body))
	return report, nil
}

// ParseReport decodes a usage response body.
func ParseReport(body []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode usage response: %w", err)
	}
	report.Raw = json.RawMessage(body)
	return &report, nil
}
