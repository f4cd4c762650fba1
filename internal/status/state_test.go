package status

import (
	"testing"
	"time"

	"clipsync/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Disconnected {
		t.Errorf("initial state = %s, want DISCONNECTED", m.Current())
	}
}

func TestSetPublishesChange(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	m := NewMachine(b)
	m.Set(Connecting)

	select {
	case evt := <-ch:
		change, ok := evt.Payload.(Change)
		if !ok {
			t.Fatalf("payload type = %T, want Change", evt.Payload)
		}
		if change.From != Disconnected || change.To != Connecting {
			t.Errorf("change = %v -> %v, want DISCONNECTED -> CONNECTING", change.From, change.To)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for conn.state event")
	}
}

func TestSetSameStateIsQuiet(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	m := NewMachine(b)
	m.Set(Connecting)
	<-ch
	m.Set(Connecting)

	select {
	case evt := <-ch:
		t.Errorf("unexpected event for no-op transition: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConnectCycle(t *testing.T) {
	m := NewMachine(nil)
	for _, s := range []State{Connecting, Connected, Disconnected} {
		m.Set(s)
		if m.Current() != s {
			t.Fatalf("state = %s, want %s", m.Current(), s)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		state State
		label string
	}{
		{Disconnected, "disconnected"},
		{Connecting, "connecting"},
		{Connected, "connected"},
	}
	for _, tt := range tests {
		got := Describe(tt.state)
		if got.Label != tt.label {
			t.Errorf("Describe(%s).Label = %q, want %q", tt.state, got.Label, tt.label)
		}
		if got.Color == "" {
			t.Errorf("Describe(%s).Color is empty", tt.state)
		}
	}
}
