// Package transport implements the push channels that keep a session's
// message list synchronized: WebSocket, server-sent events and long-polling,
// plus the cascade that falls back across them.
package transport

import (
	"context"
	"net/url"
	"strings"
)

// Channel is one transport mechanism delivering session events. Decoded
// events go out on the bus as session.event; connection health goes through
// the shared state machine as conn.state changes.
type Channel interface {
	Name() string

	// Open starts the channel for the given session. It returns nil once the
	// channel is considered established, or an error if it fails before ever
	// connecting, which is a distinct outcome from a later clean close. After
	// a successful return, failures surface as connection-state changes only.
	Open(ctx context.Context, sessionID string) error

	// Close tears the channel down. Safe to call more than once, and safe to
	// call on a channel that never opened.
	Close()
}

// wsBaseURL rewrites an http(s) base URL to its ws(s) counterpart.
func wsBaseURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	return strings.TrimRight(u.String(), "/")
}
