// Package clock supplies the current instant. Lifecycle and attempt decisions
// take their "now" from a Clock so they stay pure functions of stored state.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// New returns the wall clock, truncated to microseconds in UTC so values
// survive a database round trip unchanged.
func New() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(now time.Time) *Manual { return &Manual{now: now.UTC()} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(now time.Time) {
	m.mu.Lock()
	m.now = now.UTC()
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
