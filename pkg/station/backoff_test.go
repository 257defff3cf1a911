package station

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DoublesUpToCap", func(t *testing.T) {
		b := NewBackoff(10*time.Second, 300*time.Second)

		expected := []time.Duration{
			10 * time.Second,
			20 * time.Second,
			40 * time.Second,
			80 * time.Second,
			160 * time.Second,
			300 * time.Second, // capped
			300 * time.Second, // stays at cap
		}

		for i, exp := range expected {
			if got := b.Current(); got != exp {
				t.Errorf("step %d: Current() = %v, want %v", i, got, exp)
			}
			b.Advance()
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(10*time.Second, 300*time.Second)

		for i := 0; i < 4; i++ {
			b.Advance()
		}
		if b.Current() <= 10*time.Second {
			t.Fatal("backoff did not advance")
		}

		b.Reset()
		if got := b.Current(); got != 10*time.Second {
			t.Errorf("Current() = %v after Reset, want 10s", got)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		b := NewBackoff(0, 0)
		if got := b.Current(); got != DefaultScanMinInterval {
			t.Errorf("Current() = %v, want %v", got, DefaultScanMinInterval)
		}
		for i := 0; i < 10; i++ {
			b.Advance()
		}
		if got := b.Current(); got != DefaultScanMaxInterval {
			t.Errorf("Current() = %v after many advances, want %v", got, DefaultScanMaxInterval)
		}
	})

	t.Run("MaxBelowInitial", func(t *testing.T) {
		b := NewBackoff(30*time.Second, 5*time.Second)
		b.Advance()
		if got := b.Current(); got != 30*time.Second {
			t.Errorf("Current() = %v, want the initial value as cap", got)
		}
	})
}
