package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the session server's REST API. A single Client (and its
// underlying http.Client) is shared process-wide; every call is independent
// request/response with no client-side state.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a REST client for the given server base URL,
// e.g. "http://localhost:8080". The http.Client carries no blanket timeout:
// attachment uploads may legitimately run for minutes, so deadlines are the
// caller's business via ctx.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger,
	}
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// envelope is the wire format of every REST response.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// do issues a request and decodes the response envelope's data field into out
// (when out is non-nil). A 404 maps to ErrNotFound, any other failure to
// RequestError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	op := method + " " + path
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.String("request_id", reqID), zap.Error(err))
		return &RequestError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode envelope: %w", err)}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := env.Error
		if reason == "" {
			reason = env.Message
		}
		c.logger.Warn("request rejected",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode),
			zap.String("reason", reason))
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Reason: reason}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return nil
}
