package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeEvents(t *testing.T, events []Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.btlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, ev := range events {
		logger.Log(ev)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestReader_ReadAll(t *testing.T) {
	path := writeEvents(t, []Event{
		stateEvent("00:11:22:33:44:55", "DISCONNECTED", "CONNECTING"),
		stateEvent("00:11:22:33:44:55", "CONNECTING", "CONNECTED"),
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].StateChange.To != "CONNECTED" {
		t.Errorf("expected CONNECTED, got %s", events[1].StateChange.To)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after ReadAll, got %v", err)
	}
}

func TestFilteredReader(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	warn := Event{
		Timestamp: ts,
		Device:    "AA:BB:CC:DD:EE:FF",
		Severity:  SeverityWarn,
		Category:  CategoryError,
		Error:     &ErrorEventData{Kind: "timeout"},
	}
	path := writeEvents(t, []Event{
		stateEvent("00:11:22:33:44:55", "DISCONNECTED", "CONNECTING"),
		warn,
		stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"),
	})

	minSev := SeverityWarn
	reader, err := NewFilteredReader(path, Filter{
		Device:      "AA:BB:CC:DD:EE:FF",
		MinSeverity: &minSev,
	})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Error == nil || events[0].Error.Kind != "timeout" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestFilter_TimeRange(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration) Event {
		ev := stateEvent("00:11:22:33:44:55", "DISCONNECTED", "CONNECTING")
		ev.Timestamp = base.Add(offset)
		return ev
	}
	path := writeEvents(t, []Event{mk(0), mk(time.Minute), mk(2 * time.Minute)})

	start := base.Add(30 * time.Second)
	end := base.Add(90 * time.Second)
	reader, err := NewFilteredReader(path, Filter{TimeStart: &start, TimeEnd: &end})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event in range, got %d", len(events))
	}
}
