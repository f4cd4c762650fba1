package api

import "testing"

func TestDecodeSessionDeleted(t *testing.T) {
	raw := []byte(`{"id": "e1", "event": "session.deleted", "data": "abc123", "timestamp": 9}`)
	evt, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	deleted, ok := evt.(SessionDeleted)
	if !ok {
		t.Fatalf("type = %T, want SessionDeleted", evt)
	}
	if deleted.SessionID != "abc123" {
		t.Errorf("session_id = %q", deleted.SessionID)
	}
}

func TestDecodeMessageInserted(t *testing.T) {
	raw := []byte(`{
		"id": "e2",
		"event": "message.inserted",
		"data": {
			"session_id": "abc123",
			"message": {"id": "m1", "body": "hi", "sensitive": true, "created_at": 44}
		},
		"timestamp": 10
	}`)
	evt, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	inserted, ok := evt.(MessageInserted)
	if !ok {
		t.Fatalf("type = %T, want MessageInserted", evt)
	}
	if inserted.SessionID != "abc123" {
		t.Errorf("session_id = %q", inserted.SessionID)
	}
	if inserted.Message.ID != "m1" || inserted.Message.Body != "hi" || !inserted.Message.Sensitive {
		t.Errorf("message = %+v", inserted.Message)
	}
}

func TestDecodeMessageDeleted(t *testing.T) {
	raw := []byte(`{
		"id": "e3",
		"event": "message.deleted",
		"data": {"session_id": "abc123", "message_id": "m5"},
		"timestamp": 11
	}`)
	evt, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	deleted, ok := evt.(MessageDeleted)
	if !ok {
		t.Fatalf("type = %T, want MessageDeleted", evt)
	}
	if deleted.SessionID != "abc123" || deleted.MessageID != "m5" {
		t.Errorf("event = %+v", deleted)
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	raw := []byte(`{"id": "e4", "event": "session.renamed", "data": {}, "timestamp": 12}`)
	if _, err := DecodeEvent(raw); err == nil {
		t.Fatal("DecodeEvent() accepted an unknown event kind")
	}
}

func TestDecodeMalformedEnvelope(t *testing.T) {
	if _, err := DecodeEvent([]byte("not json")); err == nil {
		t.Fatal("DecodeEvent() accepted malformed input")
	}
}
