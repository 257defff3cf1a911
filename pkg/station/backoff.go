package station

import (
	"sync"
	"time"
)

// Default rescan interval bounds.
const (
	// DefaultScanMinInterval is the initial delay before a rescan.
	DefaultScanMinInterval = 10 * time.Second

	// DefaultScanMaxInterval caps the rescan delay.
	DefaultScanMaxInterval = 300 * time.Second
)

// Backoff tracks the rescan delay. The delay doubles after every
// failed full scan cycle, capped at the maximum, and resets to the
// minimum after a successful connection so a future disconnect is
// followed by a fast rescan.
//
// Unlike client-to-server reconnect backoff there is no jitter: a
// single embedded station has no thundering-herd peer to avoid.
type Backoff struct {
	mu      sync.Mutex
	current time.Duration
	initial time.Duration
	max     time.Duration
}

// NewBackoff creates a backoff over [initial, max]. Non-positive
// bounds fall back to the defaults.
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultScanMinInterval
	}
	if max <= 0 {
		max = DefaultScanMaxInterval
	}
	if max < initial {
		max = initial
	}
	return &Backoff{current: initial, initial: initial, max: max}
}

// Current returns the delay to use for the next rescan.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Advance doubles the delay, capped at the maximum.
// Call after scheduling a rescan for a failed cycle.
func (b *Backoff) Advance() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current < b.max {
		b.current *= 2
		if b.current > b.max {
			b.current = b.max
		}
	}
}

// Reset restores the minimum delay.
// Call after a successful connection.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
}
