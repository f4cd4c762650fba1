package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/status"
	"clipsync/internal/store"
)

// ErrChannelDisabled marks a cascade attempt skipped by configuration.
var ErrChannelDisabled = errors.New("channel disabled")

// ErrStopped is returned by Reload after the cascade has been stopped for
// good (session deleted or client shutting down).
var ErrStopped = errors.New("cascade stopped")

// SnapshotFetcher is the slice of the REST client the cascade needs.
type SnapshotFetcher interface {
	GetSession(ctx context.Context, id string) (*api.Session, error)
}

// Candidate is one channel in priority order plus its configuration gate.
type Candidate struct {
	Channel Channel
	Enabled bool
}

// AttemptFailure records why one channel attempt did not connect.
type AttemptFailure struct {
	Channel string
	Err     error
}

// ExhaustedError is the terminal failure when no channel ever connected.
// There is no automatic retry of the whole cascade; the caller reports it.
type ExhaustedError struct {
	Failures []AttemptFailure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Channel, f.Err)
	}
	return "all transports failed: " + strings.Join(parts, "; ")
}

// Cascade owns the ordered transport attempts for the active session:
// WebSocket first, then SSE, then long-polling. One channel is active at a
// time; a reload closes the previous one before the new cascade starts so
// events are never delivered twice.
type Cascade struct {
	fetch      SnapshotFetcher
	store      *store.Store
	machine    *status.Machine
	logger     *zap.Logger
	candidates []Candidate

	reloadMu sync.Mutex // serializes whole cascades

	mu      sync.Mutex
	active  Channel
	stopped bool
}

// NewCascade creates the orchestrator over the given candidates, which must
// already be in priority order.
func NewCascade(fetch SnapshotFetcher, st *store.Store, m *status.Machine, logger *zap.Logger, candidates []Candidate) *Cascade {
	return &Cascade{
		fetch:      fetch,
		store:      st,
		machine:    m,
		logger:     logger,
		candidates: candidates,
	}
}

// Reload re-synchronizes with the session: it closes any active channel,
// re-fetches the full snapshot into the store, then walks the candidates in
// order until one connects. Called on initial mount, on session-ID change
// and on explicit user reload.
//
// A NotFound from the snapshot fetch propagates so the caller can navigate
// away. If every channel fails to ever connect, the returned error is an
// *ExhaustedError.
func (c *Cascade) Reload(ctx context.Context, sessionID string) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	prev := c.active
	c.active = nil
	c.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	c.machine.Set(status.Connecting)

	sess, err := c.fetch.GetSession(ctx, sessionID)
	if err != nil {
		c.machine.Set(status.Disconnected)
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	c.store.Replace(sess.Messages)

	var failures []AttemptFailure
	for _, cand := range c.candidates {
		name := cand.Channel.Name()
		if !cand.Enabled {
			c.logger.Info("channel disabled, skipping", zap.String("channel", name))
			failures = append(failures, AttemptFailure{Channel: name, Err: ErrChannelDisabled})
			continue
		}

		if err := cand.Channel.Open(ctx, sessionID); err != nil {
			c.logger.Warn("channel failed, falling back",
				zap.String("channel", name),
				zap.Error(err))
			failures = append(failures, AttemptFailure{Channel: name, Err: err})
			continue
		}

		c.mu.Lock()
		if c.stopped {
			c.mu.Unlock()
			cand.Channel.Close()
			return ErrStopped
		}
		c.active = cand.Channel
		c.mu.Unlock()

		c.logger.Info("channel active", zap.String("channel", name), zap.String("session_id", sessionID))
		return nil
	}

	c.machine.Set(status.Disconnected)
	return &ExhaustedError{Failures: failures}
}

// Active returns the name of the active channel, or "" when none.
func (c *Cascade) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.Name()
}

// Stop closes the active channel and refuses further reloads. Used when the
// session is deleted or the client unmounts, so no background retry loop
// outlives the session view.
func (c *Cascade) Stop() {
	c.mu.Lock()
	c.stopped = true
	active := c.active
	c.active = nil
	c.mu.Unlock()

	if active != nil {
		active.Close()
	}
	c.machine.Set(status.Disconnected)
}
