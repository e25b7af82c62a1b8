// Package commands implements the btlog CLI commands.
package commands

import (
	"fmt"
	"io"

	"github.com/bthost-project/bthost-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	engID := shortenEngineID(event.EngineID)

	fmt.Fprintf(w, "%s [eng:%s] %-5s %-6s %s %s\n",
		ts, engID, event.Severity, event.Category, event.Device, event.Profile)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.NativeCall != nil:
		formatNativeCallDetails(w, event.NativeCall)
	case event.Timer != nil:
		formatTimerDetails(w, event.Timer)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenEngineID returns the first 8 characters of the engine ID.
func shortenEngineID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  %s -> %s\n", sc.From, sc.To)
	if sc.Trigger != "" {
		fmt.Fprintf(w, "  Trigger: %s\n", sc.Trigger)
	}
}

func formatNativeCallDetails(w io.Writer, nc *log.NativeCallEvent) {
	outcome := "accepted"
	if !nc.Accepted {
		outcome = "rejected"
	}
	fmt.Fprintf(w, "  Native %s: %s\n", nc.Op, outcome)
}

func formatTimerDetails(w io.Writer, t *log.TimerEventData) {
	fmt.Fprintf(w, "  Timer %s: %s", t.Kind, t.Op)
	if t.Duration != nil {
		fmt.Fprintf(w, " (%s)", *t.Duration)
	}
	fmt.Fprintln(w)
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s\n", e.Kind)
	if e.Message != "" {
		fmt.Fprintf(w, "  Message: %s\n", e.Message)
	}
	if e.State != "" {
		fmt.Fprintf(w, "  State: %s\n", e.State)
	}
}

// View reads the log file and writes matching events in human-readable
// format to w.
func View(w io.Writer, path string, filter log.Filter) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
		count++
	}

	fmt.Fprintf(w, "Total: %d events\n", count)
	return nil
}

// ParseCategoryFlag converts a category flag value to a Category.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch s {
	case "state":
		return log.CategoryState, nil
	case "native":
		return log.CategoryNative, nil
	case "timer":
		return log.CategoryTimer, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category %q (state, native, timer, error)", s)
	}
}

// ParseSeverityFlag converts a severity flag value to a Severity.
func ParseSeverityFlag(s string) (log.Severity, error) {
	switch s {
	case "debug":
		return log.SeverityDebug, nil
	case "info":
		return log.SeverityInfo, nil
	case "warn":
		return log.SeverityWarn, nil
	case "error":
		return log.SeverityError, nil
	default:
		return 0, fmt.Errorf("invalid severity %q (debug, info, warn, error)", s)
	}
}
