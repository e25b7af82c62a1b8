package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bthost-project/bthost-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	EventsBySeverity map[log.Severity]int
	Devices          map[string]*DeviceStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// DeviceStats holds statistics for a single device.
type DeviceStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	Transitions int
	Errors      int
	LastState   string
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		EventsBySeverity: make(map[log.Severity]int),
		Devices:          make(map[string]*DeviceStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	stats.print(w)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.EventsBySeverity[event.Severity]++
	if event.Category == log.CategoryError {
		s.Errors++
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	dev, ok := s.Devices[event.Device]
	if !ok {
		dev = &DeviceStats{FirstSeen: event.Timestamp}
		s.Devices[event.Device] = dev
	}
	dev.Events++
	if event.Timestamp.After(dev.LastSeen) {
		dev.LastSeen = event.Timestamp
	}
	if event.StateChange != nil {
		dev.Transitions++
		dev.LastState = event.StateChange.To
	}
	if event.Category == log.CategoryError {
		dev.Errors++
	}
}

func (s *Stats) print(w io.Writer) {
	fmt.Fprintf(w, "Total events: %d\n", s.TotalEvents)
	if s.TotalEvents == 0 {
		return
	}

	fmt.Fprintf(w, "Time range:   %s - %s (%s)\n",
		s.TimeRange.Start.UTC().Format(time.RFC3339),
		s.TimeRange.End.UTC().Format(time.RFC3339),
		s.TimeRange.End.Sub(s.TimeRange.Start).Round(time.Millisecond))
	fmt.Fprintf(w, "Errors:       %d\n\n", s.Errors)

	fmt.Fprintln(w, "By category:")
	for _, c := range []log.Category{log.CategoryState, log.CategoryNative, log.CategoryTimer, log.CategoryError} {
		if n := s.EventsByCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-6s %d\n", c, n)
		}
	}

	fmt.Fprintln(w, "\nBy severity:")
	for _, sev := range []log.Severity{log.SeverityDebug, log.SeverityInfo, log.SeverityWarn, log.SeverityError} {
		if n := s.EventsBySeverity[sev]; n > 0 {
			fmt.Fprintf(w, "  %-6s %d\n", sev, n)
		}
	}

	fmt.Fprintln(w, "\nDevices:")
	names := make([]string, 0, len(s.Devices))
	for name := range s.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dev := s.Devices[name]
		fmt.Fprintf(w, "  %s  events=%d transitions=%d errors=%d",
			name, dev.Events, dev.Transitions, dev.Errors)
		if dev.LastState != "" {
			fmt.Fprintf(w, " last=%s", dev.LastState)
		}
		fmt.Fprintln(w)
	}
}
