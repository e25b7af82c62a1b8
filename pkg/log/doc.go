// Package log provides structured event logging for the profile connection
// engine.
//
// This package defines the Logger interface and Event types for capturing
// engine-level events: committed state transitions, native link calls, timer
// activity, and errors. It is separate from operational logging (slog) -
// event capture provides a complete machine-readable trace of a device's
// connection lifecycle for debugging and analysis.
//
// # Basic Usage
//
// Components accept a Logger implementation; nil or NoopLogger disables
// capture:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/bthost/a2dp.blog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files use CBOR encoding with integer keys. Reader streams events back
// out of a file, optionally filtered by device, profile, category, severity,
// or time window.
package log
