// Package bus is the in-process publish/subscribe spine connecting the
// transport layer, the reconciliation store and the UI. A single Bus is
// created at startup and passed by reference to everything that publishes or
// subscribes; there is no package-level instance.
package bus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Bus fans events out to subscribers by namespace prefix. Publishing never
// blocks: a subscriber with a full buffer misses the event, which is counted
// and logged so lost session events are visible in the log file.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]*subscription
	next    int
	logger  *zap.Logger
	dropped atomic.Uint64
}

type subscription struct {
	namespace string
	ch        chan Event
}

// New creates an empty bus with a no-op logger.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscription), logger: zap.NewNop()}
}

// SetLogger routes drop warnings to the given logger. Call once at startup,
// before anything publishes.
func (b *Bus) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Dropped returns how many events were lost to full subscriber buffers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Publish stamps the payload with the current time and delivers it to every
// subscriber whose namespace is a prefix of kind.
func (b *Bus) Publish(kind string, payload any) {
	evt := Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(kind, sub.namespace) {
			select {
			case sub.ch <- evt:
			default:
				b.dropped.Add(1)
				b.logger.Warn("subscriber buffer full, event dropped",
					zap.String("kind", kind),
					zap.String("namespace", sub.namespace))
			}
		}
	}
}

// Subscribe registers interest in every kind starting with namespace and
// returns the delivery channel plus an unsubscribe function. bufSize bounds
// how many undelivered events may queue before drops start.
func (b *Bus) Subscribe(namespace string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscription{namespace: namespace, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
