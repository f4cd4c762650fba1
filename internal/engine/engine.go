// Package engine applies decoded session events to the in-memory message
// store and the on-disk history cache. It sits between the transport layer
// (which only decodes and publishes) and the UI (which only renders store
// views).
package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/bus"
	"clipsync/internal/store"
)

// Recorder is the slice of the history cache the engine writes to. Nil
// disables recording.
type Recorder interface {
	UpsertMessage(sessionID string, m api.Message) error
	DeleteMessage(sessionID, msgID string) error
	MarkSessionDeleted(sessionID string) error
	RecordSnapshot(sessionID string, msgs []api.Message) error
}

// Engine consumes session.event bus events and reconciles them into the
// store. Every apply is idempotent so replayed or duplicated events are
// harmless.
type Engine struct {
	store    *store.Store
	recorder Recorder
	bus      *bus.Bus
	logger   *zap.Logger
	cancel   context.CancelFunc

	mu      sync.RWMutex
	session string
}

// New creates an engine. recorder may be nil.
func New(s *store.Store, recorder Recorder, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		store:    s,
		recorder: recorder,
		bus:      b,
		logger:   logger,
	}
}

// SetSession names the session whose events the engine applies. Events for
// any other session are dropped.
func (e *Engine) SetSession(id string) {
	e.mu.Lock()
	e.session = id
	e.mu.Unlock()
}

// RecordSnapshot writes a freshly fetched message list to the history cache.
// Cache failures are logged, never fatal: the live view does not depend on
// the cache.
func (e *Engine) RecordSnapshot(sessionID string, msgs []api.Message) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordSnapshot(sessionID, msgs); err != nil {
		e.logger.Warn("failed to record snapshot", zap.Error(err), zap.String("session_id", sessionID))
	}
}

// Start subscribes to session events on the bus. The buffer absorbs event
// bursts while Apply is busy; an overflow is dropped and logged by the bus,
// and a reload re-syncs the store from the snapshot.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe(bus.KindSessionEvent, 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				if sessionEvt, ok := evt.Payload.(api.Event); ok {
					e.Apply(sessionEvt)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Apply reconciles a single event into the store and the cache.
func (e *Engine) Apply(evt api.Event) {
	e.mu.RLock()
	session := e.session
	e.mu.RUnlock()

	switch evt := evt.(type) {
	case api.MessageInserted:
		if evt.SessionID != session {
			return
		}
		changed := e.store.ApplyInsert(evt.Message)
		if e.recorder != nil {
			if err := e.recorder.UpsertMessage(evt.SessionID, evt.Message); err != nil {
				e.logger.Warn("failed to cache message", zap.Error(err), zap.String("msg_id", evt.Message.ID))
			}
		}
		if changed {
			e.bus.Publish(bus.KindNotify, evt.Message)
		}

	case api.MessageDeleted:
		if evt.SessionID != session {
			return
		}
		e.store.ApplyDelete(evt.MessageID)
		if e.recorder != nil {
			if err := e.recorder.DeleteMessage(evt.SessionID, evt.MessageID); err != nil {
				e.logger.Warn("failed to evict cached message", zap.Error(err), zap.String("msg_id", evt.MessageID))
			}
		}

	case api.SessionDeleted:
		if evt.SessionID != session {
			return
		}
		e.store.Clear()
		if e.recorder != nil {
			if err := e.recorder.MarkSessionDeleted(evt.SessionID); err != nil {
				e.logger.Warn("failed to mark session deleted", zap.Error(err), zap.String("session_id", evt.SessionID))
			}
		}
		e.bus.Publish(bus.KindSessionDeleted, evt.SessionID)
		e.logger.Info("session deleted server-side", zap.String("session_id", evt.SessionID))
	}
}
