// Package log provides structured lifecycle event capture for the
// connectivity stack.
//
// This package defines the Logger interface and Event type for
// recording connectivity events (mode transitions, scan cycles,
// connect attempts, DNS responder activity). It is separate from
// operational logging (slog) - event capture produces a complete
// machine-readable trace for debugging flaky network environments.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/roam/events.rlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files are a concatenation of CBOR-encoded events with integer
// keys, .rlog extension. ReadEvents loads a file back for analysis.
package log
