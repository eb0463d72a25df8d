// Package clockfake provides a manually advanced Clock for tests.
package clockfake

import (
	"sync"
	"time"
)

// Fake is a Clock whose time only moves when told to.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// New returns a Fake pinned to the given instant.
func New(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the fake current instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the fake time by d without blocking.
func (f *Fake) Sleep(d time.Duration) {
	f.Advance(d)
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
