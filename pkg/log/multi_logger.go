package log

// MultiLogger fans each connectivity event out to several loggers.
// The usual pairing is a SlogAdapter for live console output plus a
// FileLogger writing the capture file roamlog reads later.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger over the given loggers. Events
// are delivered in argument order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log delivers the event to every configured logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
