// Package store holds the client-side source of truth for the ordered
// message list of the current session.
package store

import (
	"sync"

	"clipsync/internal/api"
	"clipsync/internal/bus"
)

// Store applies session events to an in-memory message list. Every mutation
// builds a fresh slice and bumps the revision, so a handed-out view is never
// changed underneath its holder and render triggers reduce to a revision (or
// reference) comparison.
//
// Ordering: Replace defines the base order as returned by the server;
// live insertions prepend, giving a newest-first view.
type Store struct {
	mu   sync.RWMutex
	view []api.Message
	rev  uint64
	bus  *bus.Bus
}

// New creates an empty store.
func New(b *bus.Bus) *Store {
	return &Store{bus: b}
}

// Messages returns the current immutable view. Callers must not modify it.
func (s *Store) Messages() []api.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Revision returns the current view revision. It increases on every change.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// Len returns the number of messages in the current view.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.view)
}

// Replace installs a full snapshot, e.g. after the initial fetch or a reload.
func (s *Store) Replace(msgs []api.Message) {
	next := make([]api.Message, len(msgs))
	copy(next, msgs)

	s.mu.Lock()
	s.view = next
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	s.notify(rev)
}

// ApplyInsert prepends the message to the view. Inserting an ID already
// present is a no-op, guarding against duplicate delivery during a channel
// handover. Reports whether the view changed.
func (s *Store) ApplyInsert(m api.Message) bool {
	s.mu.Lock()
	for _, existing := range s.view {
		if existing.ID == m.ID {
			s.mu.Unlock()
			return false
		}
	}
	next := make([]api.Message, 0, len(s.view)+1)
	next = append(next, m)
	next = append(next, s.view...)
	s.view = next
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	s.notify(rev)
	return true
}

// ApplyDelete removes the message with the given ID. Deleting an absent ID
// is a no-op. Reports whether the view changed.
func (s *Store) ApplyDelete(messageID string) bool {
	s.mu.Lock()
	idx := -1
	for i, m := range s.view {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]api.Message, 0, len(s.view)-1)
	next = append(next, s.view[:idx]...)
	next = append(next, s.view[idx+1:]...)
	s.view = next
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	s.notify(rev)
	return true
}

// Clear empties the store, used when the session is deleted.
func (s *Store) Clear() {
	s.mu.Lock()
	s.view = nil
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	s.notify(rev)
}

func (s *Store) notify(rev uint64) {
	if s.bus != nil {
		s.bus.Publish(bus.KindStoreUpdated, rev)
	}
}
