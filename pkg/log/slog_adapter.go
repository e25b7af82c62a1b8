package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes engine events to an slog.Logger.
// Useful for development when you want to see engine events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. The slog level follows the
// event severity.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("engine_id", event.EngineID),
		slog.String("device", event.Device),
		slog.String("category", event.Category.String()),
	}

	if event.Profile != "" {
		attrs = append(attrs, slog.String("profile", event.Profile))
	}

	// Add type-specific attributes
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("from", event.StateChange.From),
			slog.String("to", event.StateChange.To),
		)
		if event.StateChange.Trigger != "" {
			attrs = append(attrs, slog.String("trigger", event.StateChange.Trigger))
		}
	case event.NativeCall != nil:
		attrs = append(attrs,
			slog.String("op", event.NativeCall.Op),
			slog.Bool("accepted", event.NativeCall.Accepted),
		)
	case event.Timer != nil:
		attrs = append(attrs,
			slog.String("timer_op", event.Timer.Op.String()),
			slog.String("timer", event.Timer.Kind),
		)
		if event.Timer.Duration != nil {
			attrs = append(attrs, slog.Duration("duration", *event.Timer.Duration))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("kind", event.Error.Kind))
		if event.Error.Message != "" {
			attrs = append(attrs, slog.String("message", event.Error.Message))
		}
		if event.Error.State != "" {
			attrs = append(attrs, slog.String("state", event.Error.State))
		}
	}

	a.logger.LogAttrs(context.Background(), severityLevel(event.Severity), "engine event", attrs...)
}

// severityLevel maps event severity to an slog level.
func severityLevel(s Severity) slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarn:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
