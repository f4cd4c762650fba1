package status

import (
	"sync"

	"clipsync/internal/bus"
)

// State is the connection state of the active transport attempt. Exactly one
// value holds at any time.
type State string

const (
	Disconnected State = "DISCONNECTED"
	Connecting   State = "CONNECTING"
	Connected    State = "CONNECTED"
)

// Machine tracks the current connection state and announces changes on the
// bus. Transports and the orchestrator are the only writers; the UI reads.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// Change is the payload of conn.state events.
type Change struct {
	From State
	To   State
}

// NewMachine creates a machine starting Disconnected.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Disconnected, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set moves to the given state. Setting the current state again is a no-op
// and publishes nothing, so repeated transport callbacks stay quiet.
func (m *Machine) Set(to State) {
	m.mu.Lock()
	from := m.current
	if from == to {
		m.mu.Unlock()
		return
	}
	m.current = to
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.KindConnState, Change{From: from, To: to})
	}
}
