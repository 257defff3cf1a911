package log

// Logger is the interface applications implement to receive
// connectivity events. Pass nil or NoopLogger to disable capture.
type Logger interface {
	// Log records an event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking
	// stalls the component that emitted it.
	Log(event Event)
}

// NoopLogger discards all events. Use when capture is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}

// OrNoop returns l, or NoopLogger when l is nil. Components call this
// once at construction so the hot path never nil-checks.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}
