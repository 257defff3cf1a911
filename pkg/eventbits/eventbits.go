package eventbits

import (
	"sync"
	"time"
)

// Bits is a synchronizable set of up to 32 boolean flags.
// The zero value is not usable; use New.
type Bits struct {
	mu      sync.Mutex
	bits    uint32
	changed chan struct{}
}

// New creates an empty flag set.
func New() *Bits {
	return &Bits{changed: make(chan struct{})}
}

// Set sets all flags in mask and wakes waiters.
// It returns the resulting flag value.
func (b *Bits) Set(mask uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bits |= mask
	b.wakeLocked()
	return b.bits
}

// Clear clears all flags in mask.
// It returns the resulting flag value.
func (b *Bits) Clear(mask uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bits &^= mask
	b.wakeLocked()
	return b.bits
}

// Get returns the current flag value.
func (b *Bits) Get() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bits
}

// Wait blocks until any flag in mask is set or timeout elapses.
// It returns the flag value observed and whether the wait was
// satisfied. With clearOnExit, the satisfied flags in mask are
// cleared atomically with the observation.
func (b *Bits) Wait(mask uint32, clearOnExit bool, timeout time.Duration) (uint32, bool) {
	deadline := time.Now().Add(timeout)

	b.mu.Lock()
	for {
		if got := b.bits & mask; got != 0 {
			observed := b.bits
			if clearOnExit {
				b.bits &^= got
				b.wakeLocked()
			}
			b.mu.Unlock()
			return observed, true
		}

		ch := b.changed
		observed := b.bits
		b.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return observed, false
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ch:
			timer.Stop()
		case <-timer.C:
			b.mu.Lock()
			observed = b.bits
			got := observed & mask
			if got != 0 && clearOnExit {
				b.bits &^= got
				b.wakeLocked()
			}
			b.mu.Unlock()
			return observed, got != 0
		}

		b.mu.Lock()
	}
}

// wakeLocked releases all current waiters. Callers hold b.mu.
func (b *Bits) wakeLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}
