package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes connectivity events to an slog.Logger.
// Useful for development when you want to see events in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("component", event.Component.String()),
		slog.String("category", event.Category.String()),
	}

	if event.OldState != "" || event.NewState != "" {
		attrs = append(attrs,
			slog.String("old_state", event.OldState),
			slog.String("new_state", event.NewState),
		)
	}
	if event.SSID != "" {
		attrs = append(attrs, slog.String("ssid", event.SSID))
	}
	if event.RSSI != 0 {
		attrs = append(attrs, slog.Int("rssi", event.RSSI))
	}
	if event.Channel != 0 {
		attrs = append(attrs, slog.Int("channel", int(event.Channel)))
	}
	if event.Address != "" {
		attrs = append(attrs, slog.String("address", event.Address))
	}
	if event.Attempt != 0 {
		attrs = append(attrs, slog.Int("attempt", event.Attempt))
	}
	if event.QueryLen != 0 {
		attrs = append(attrs, slog.Int("query_len", event.QueryLen))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "connectivity event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
