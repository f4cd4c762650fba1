package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/bus"
	"clipsync/internal/status"
)

// Long-poll retry policy. A failed request whose round trip took at least
// slowFailureAfter was most likely a legitimate server-side hold that died
// late, so it is retried immediately; anything failing faster waits
// retryDelay to avoid hammering an unreachable server.
const (
	slowFailureAfter = 15 * time.Second
	retryDelay       = 3 * time.Second
)

// LongPollChannel is the universal fallback: one blocking GET at a time per
// session. Once started it governs its own retry loop and never hands
// control back to the cascade; only Close, context cancellation or a 404
// (session gone) end it.
type LongPollChannel struct {
	base    string
	http    *http.Client
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	// Retry knobs, overridable in tests.
	slowFailureAfter time.Duration
	retryDelay       time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewLongPollChannel creates the channel for the server's base URL.
func NewLongPollChannel(baseURL string, m *status.Machine, b *bus.Bus, logger *zap.Logger) *LongPollChannel {
	return &LongPollChannel{
		base: strings.TrimRight(baseURL, "/"),
		// The server holds each poll for tens of seconds; no client timeout
		// beyond the retry policy.
		http:             &http.Client{},
		machine:          m,
		bus:              b,
		logger:           logger,
		slowFailureAfter: slowFailureAfter,
		retryDelay:       retryDelay,
	}
}

func (c *LongPollChannel) Name() string { return "longpoll" }

// Open starts the polling loop. Any poll already in flight for a previous
// Open is cancelled first so a session never has two outstanding polls.
// Open itself does not wait for the first response.
func (c *LongPollChannel) Open(_ context.Context, sessionID string) error {
	loopCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	c.machine.Set(status.Connecting)
	go c.loop(loopCtx, sessionID)
	return nil
}

func (c *LongPollChannel) loop(ctx context.Context, sessionID string) {
	for {
		if ctx.Err() != nil {
			return
		}
		if c.machine.Current() != status.Connected {
			c.machine.Set(status.Connecting)
		}

		start := time.Now()
		evt, err := c.poll(ctx, sessionID)
		elapsed := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				// Cancelled mid-flight; do not reschedule or touch state.
				return
			}
			c.machine.Set(status.Disconnected)
			if errors.Is(err, api.ErrNotFound) {
				// Session no longer exists: terminal for this channel.
				c.logger.Info("long-poll session gone, stopping", zap.String("session_id", sessionID))
				return
			}
			c.logger.Warn("long-poll failed",
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			if elapsed < c.slowFailureAfter {
				select {
				case <-time.After(c.retryDelay):
				case <-ctx.Done():
					return
				}
			}
			continue
		}

		c.machine.Set(status.Connected)
		if evt != nil {
			c.bus.Publish(bus.KindSessionEvent, evt)
		}
	}
}

// poll issues one blocking request. A timed-out hold (204 or empty body) is
// a normal no-event outcome, returned as (nil, nil).
func (c *LongPollChannel) poll(ctx context.Context, sessionID string) (api.Event, error) {
	endpoint := c.base + "/lp/sessions/" + sessionID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, api.ErrNotFound
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("poll %s: status %d", endpoint, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read poll response: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode poll envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, nil
	}
	return api.DecodeEvent(env.Data)
}

// Close cancels the in-flight poll and stops the loop permanently.
func (c *LongPollChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
