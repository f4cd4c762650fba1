package store

import (
	"testing"

	"clipsync/internal/api"
	"clipsync/internal/bus"
)

func msg(id, body string) api.Message {
	return api.Message{ID: id, Body: body}
}

func ids(msgs []api.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReplaceThenInsertOrdering(t *testing.T) {
	s := New(nil)
	// Snapshot order is the server-provided order.
	s.Replace([]api.Message{msg("m1", "one"), msg("m2", "two")})

	// Live insertion goes to the front.
	s.ApplyInsert(msg("m3", "three"))

	got := ids(s.Messages())
	want := []string{"m3", "m1", "m2"}
	if !equalIDs(got, want) {
		t.Errorf("view = %v, want %v", got, want)
	}
}

func TestInsertIdempotent(t *testing.T) {
	s := New(nil)
	s.Replace([]api.Message{msg("m1", "one")})

	if !s.ApplyInsert(msg("m2", "two")) {
		t.Error("first insert reported no change")
	}
	rev := s.Revision()
	if s.ApplyInsert(msg("m2", "two again")) {
		t.Error("duplicate insert reported a change")
	}
	if s.Revision() != rev {
		t.Error("duplicate insert bumped the revision")
	}
	if got := ids(s.Messages()); !equalIDs(got, []string{"m2", "m1"}) {
		t.Errorf("view = %v, want [m2 m1]", got)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := New(nil)
	s.Replace([]api.Message{msg("m1", "one"), msg("m2", "two")})

	if !s.ApplyDelete("m1") {
		t.Error("delete of present ID reported no change")
	}
	rev := s.Revision()
	if s.ApplyDelete("m1") {
		t.Error("delete of absent ID reported a change")
	}
	if s.Revision() != rev {
		t.Error("no-op delete bumped the revision")
	}
	if got := ids(s.Messages()); !equalIDs(got, []string{"m2"}) {
		t.Errorf("view = %v, want [m2]", got)
	}
}

func TestViewsAreImmutable(t *testing.T) {
	s := New(nil)
	s.Replace([]api.Message{msg("m1", "one")})

	before := s.Messages()
	s.ApplyInsert(msg("m2", "two"))
	after := s.Messages()

	if len(before) != 1 || before[0].ID != "m1" {
		t.Errorf("old view mutated: %v", ids(before))
	}
	if len(after) != 2 {
		t.Errorf("new view = %v, want 2 messages", ids(after))
	}
	if &before[0] == &after[1] && cap(before) != cap(after) {
		t.Error("views share backing storage")
	}
}

func TestReplaceCopiesInput(t *testing.T) {
	s := New(nil)
	snapshot := []api.Message{msg("m1", "one")}
	s.Replace(snapshot)
	snapshot[0].ID = "mutated"

	if s.Messages()[0].ID != "m1" {
		t.Error("store view aliases the caller's slice")
	}
}

func TestClear(t *testing.T) {
	s := New(nil)
	s.Replace([]api.Message{msg("m1", "one")})
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("len = %d after Clear, want 0", s.Len())
	}
}

func TestNotifiesOnChange(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("store.", 10)
	defer unsub()

	s := New(b)
	s.ApplyInsert(msg("m1", "one"))

	evt := <-ch
	if evt.Kind != bus.KindStoreUpdated {
		t.Errorf("kind = %q, want %q", evt.Kind, bus.KindStoreUpdated)
	}
	if rev := evt.Payload.(uint64); rev != s.Revision() {
		t.Errorf("published revision %d, store at %d", rev, s.Revision())
	}

	// Idempotent no-ops publish nothing.
	s.ApplyDelete("absent")
	select {
	case evt := <-ch:
		t.Errorf("unexpected event for no-op: %v", evt)
	default:
	}
}
