package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/bus"
	"clipsync/internal/status"
)

// sseReadBufferSize bounds a single SSE line; events carry whole messages,
// so lines can be large.
const sseReadBufferSize = 1 << 20

// ErrStreamClosed is reported when the server ends the event stream with a
// named close event.
var ErrStreamClosed = errors.New("server closed event stream")

// SSEChannel receives session events over a server-sent-events stream. The
// server's dedicated heartbeat event, not the HTTP response itself, confirms
// liveness: Open only succeeds once a heartbeat arrives.
type SSEChannel struct {
	base    string
	http    *http.Client
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// NewSSEChannel creates the channel for the server's base URL.
func NewSSEChannel(baseURL string, m *status.Machine, b *bus.Bus, logger *zap.Logger) *SSEChannel {
	return &SSEChannel{
		base: strings.TrimRight(baseURL, "/"),
		// Streaming request; no client-side timeout.
		http:    &http.Client{},
		machine: m,
		bus:     b,
		logger:  logger,
	}
}

func (c *SSEChannel) Name() string { return "sse" }

// Open connects to the session's event stream and waits for the first
// heartbeat. ctx bounds only the wait for that heartbeat; the stream itself
// lives until Close or a server-side termination.
func (c *SSEChannel) Open(ctx context.Context, sessionID string) error {
	c.machine.Set(status.Connecting)

	streamCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.closed = false
	c.mu.Unlock()

	endpoint := c.base + "/sse/sessions/" + sessionID
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		c.machine.Set(status.Disconnected)
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		c.machine.Set(status.Disconnected)
		return fmt.Errorf("open %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		c.machine.Set(status.Disconnected)
		return fmt.Errorf("open %s: status %d", endpoint, resp.StatusCode)
	}

	ready := make(chan error, 1)
	go c.readLoop(resp, ready)

	select {
	case err := <-ready:
		if err != nil {
			c.Close()
			return fmt.Errorf("event stream %s: %w", endpoint, err)
		}
		c.logger.Info("sse connected", zap.String("session_id", sessionID))
		return nil
	case <-ctx.Done():
		c.Close()
		return ctx.Err()
	}
}

// readLoop parses the text/event-stream body and dispatches named events.
// ready receives exactly one value: nil on the first heartbeat, or the error
// that ended the stream before one arrived.
func (c *SSEChannel) readLoop(resp *http.Response, ready chan<- error) {
	defer func() { _ = resp.Body.Close() }()

	connected := false
	finish := func(err error) {
		c.machine.Set(status.Disconnected)
		if !connected {
			ready <- err
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), sseReadBufferSize)

	var name string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name != "" {
				if !c.dispatch(name, data.String(), &connected, ready) {
					finish(ErrStreamClosed)
					return
				}
			}
			name = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		default:
			// id: and comment lines are irrelevant here.
		}
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	err := scanner.Err()
	if closed {
		// Deliberate Close: a newer channel may already own the state
		// machine, so leave it alone.
		if !connected {
			ready <- errors.New("stream closed")
		}
		return
	}
	if err == nil {
		err = errors.New("stream ended")
	} else {
		c.logger.Warn("sse stream failed", zap.Error(err))
	}
	finish(err)
}

// dispatch handles one named event. Returns false when the stream must end.
func (c *SSEChannel) dispatch(name, data string, connected *bool, ready chan<- error) bool {
	switch name {
	case "heartbeat":
		c.machine.Set(status.Connected)
		if !*connected {
			*connected = true
			ready <- nil
		}
	case "message":
		evt, err := api.DecodeEvent([]byte(data))
		if err != nil {
			c.logger.Warn("discarding undecodable sse event", zap.Error(err))
			return true
		}
		c.bus.Publish(bus.KindSessionEvent, evt)
	case "close":
		return false
	default:
		c.logger.Debug("ignoring unknown sse event", zap.String("event", name))
	}
	return true
}

// Close cancels the stream request.
func (c *SSEChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
