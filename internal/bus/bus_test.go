package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	b.Publish(KindConnState, "payload")

	select {
	case evt := <-ch:
		if evt.Kind != KindConnState {
			t.Errorf("got kind %q, want %q", evt.Kind, KindConnState)
		}
		if evt.Timestamp.IsZero() {
			t.Error("event timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	b.Publish(KindConnState, nil)
	b.Publish(KindSessionDeleted, "abc")

	select {
	case evt := <-ch:
		if evt.Kind != KindSessionDeleted {
			t.Errorf("got kind %q, want %q", evt.Kind, KindSessionDeleted)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The conn.* event must not have been delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("alert.", 10)
	unsub()

	b.Publish(KindAlert, "boom")

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("store.", 1)
	defer unsub()

	b.Publish(KindStoreUpdated, uint64(1))
	// Buffer is full; this one is dropped rather than blocking the publisher.
	b.Publish(KindStoreUpdated, uint64(2))

	evt := <-ch
	if evt.Payload.(uint64) != 1 {
		t.Errorf("got payload %v, want 1", evt.Payload)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected second event: %v", evt)
	default:
	}

	if got := b.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}
