package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/bus"
	"clipsync/internal/status"
)

// WebSocketChannel receives session events over a persistent duplex
// connection. Any connection error, even after being connected, collapses to
// Disconnected; the cascade owns retry and fallback, not this channel.
type WebSocketChannel struct {
	wsBase  string
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWebSocketChannel creates the channel for the server's http(s) base URL.
func NewWebSocketChannel(baseURL string, m *status.Machine, b *bus.Bus, logger *zap.Logger) *WebSocketChannel {
	return &WebSocketChannel{
		wsBase:  wsBaseURL(baseURL),
		machine: m,
		bus:     b,
		logger:  logger,
	}
}

func (c *WebSocketChannel) Name() string { return "websocket" }

// Open dials the session's WebSocket endpoint. The transport-level open
// acknowledgment (a successful upgrade) counts as Connected.
func (c *WebSocketChannel) Open(ctx context.Context, sessionID string) error {
	c.machine.Set(status.Connecting)

	endpoint := c.wsBase + "/ws/sessions/" + sessionID
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		c.machine.Set(status.Disconnected)
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	c.machine.Set(status.Connected)
	c.logger.Info("websocket connected", zap.String("session_id", sessionID))

	go c.readLoop(conn)
	return nil
}

func (c *WebSocketChannel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				// After a deliberate Close a newer channel may already own
				// the state machine; leave it alone.
				c.logger.Warn("websocket read failed", zap.Error(err))
				c.machine.Set(status.Disconnected)
			}
			return
		}

		evt, err := api.DecodeEvent(raw)
		if err != nil {
			c.logger.Warn("discarding undecodable websocket event", zap.Error(err))
			continue
		}
		c.bus.Publish(bus.KindSessionEvent, evt)
	}
}

// Close sends a close frame and drops the connection.
func (c *WebSocketChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.conn == nil {
		c.closed = true
		return
	}
	c.closed = true
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
	c.conn = nil
}
