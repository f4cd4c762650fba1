package api

import (
	"encoding/json"
	"fmt"
)

// Wire names of session events.
const (
	eventSessionDeleted  = "session.deleted"
	eventMessageInserted = "message.inserted"
	eventMessageDeleted  = "message.deleted"
)

// Event is one decoded session event. The concrete type is one of
// SessionDeleted, MessageInserted or MessageDeleted; decoding happens once at
// the channel boundary so downstream code switches on types, not strings.
type Event interface {
	sessionEvent()
}

// SessionDeleted signals the session was destroyed server-side.
type SessionDeleted struct {
	SessionID string
}

// MessageInserted carries a newly published message.
type MessageInserted struct {
	SessionID string
	Message   Message
}

// MessageDeleted identifies a removed message.
type MessageDeleted struct {
	SessionID string
	MessageID string
}

func (SessionDeleted) sessionEvent()  {}
func (MessageInserted) sessionEvent() {}
func (MessageDeleted) sessionEvent()  {}

// eventEnvelope is the wire envelope for push notifications.
type eventEnvelope struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// DecodeEvent parses a raw SessionEvent payload into its typed form.
func DecodeEvent(raw []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch env.Event {
	case eventSessionDeleted:
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return SessionDeleted{SessionID: id}, nil

	case eventMessageInserted:
		var data struct {
			SessionID string  `json:"session_id"`
			Message   Message `json:"message"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return MessageInserted{SessionID: data.SessionID, Message: data.Message}, nil

	case eventMessageDeleted:
		var data struct {
			SessionID string `json:"session_id"`
			MessageID string `json:"message_id"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return MessageDeleted{SessionID: data.SessionID, MessageID: data.MessageID}, nil

	default:
		return nil, fmt.Errorf("unknown session event %q", env.Event)
	}
}
