package model

import (
	"sync"
	"time"
)

// Flash is the status bar's transient message slot: send confirmations,
// errors, new-message notices. The newest message wins and disappears on its
// own once the duration passes.
type Flash struct {
	mu      sync.RWMutex
	message string
	expires time.Time
}

// Set replaces the current flash, visible for the given duration.
func (f *Flash) Set(msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.expires = time.Now().Add(d)
}

// Get returns the flash text, or empty once it has expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return ""
	}
	return f.message
}
