package bus

import "time"

// Event kinds published inside clipsync. Subscribers filter by namespace
// prefix, e.g. "conn." receives every connection-state change.
const (
	KindConnState = "conn.state" // payload: status.Change

	KindSessionEvent   = "session.event"   // payload: api.Event
	KindSessionDeleted = "session.deleted" // payload: session ID string

	KindStoreUpdated = "store.updated" // payload: store revision uint64

	KindAlert  = "alert.error"  // payload: user-facing message string
	KindNotify = "alert.notify" // payload: the inserted api.Message
)

// Event is one occurrence published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
