package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func stateEvent(device, from, to string) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		EngineID:  "test-engine",
		Device:    device,
		Profile:   "A2DP_SINK",
		Severity:  SeverityInfo,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			From: from,
			To:   to,
		},
	}
}

func TestFileLogger_WriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.blog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"))
	logger.Log(stateEvent("AA:BB:CC:DD:EE:FF", "CONNECTING", "CONNECTED"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

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
	if events[0].StateChange.To != "CONNECTING" {
		t.Errorf("first event To: got %s", events[0].StateChange.To)
	}
	if events[1].StateChange.To != "CONNECTED" {
		t.Errorf("second event To: got %s", events[1].StateChange.To)
	}
}

func TestFileLogger_LogAfterCloseIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.blog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Must not panic or write
	logger.Log(stateEvent("AA:BB:CC:DD:EE:FF", "CONNECTING", "CONNECTED"))
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestFilteredReader_ByDeviceAndCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.blog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"))
	logger.Log(stateEvent("11:22:33:44:55:66", "DISCONNECTED", "CONNECTING"))
	logger.Log(Event{
		Timestamp:  time.Now().UTC(),
		EngineID:   "test-engine",
		Device:     "AA:BB:CC:DD:EE:FF",
		Severity:   SeverityInfo,
		Category:   CategoryNative,
		NativeCall: &NativeCallEvent{Op: "connect", Accepted: true},
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cat := CategoryState
	reader, err := NewFilteredReader(path, Filter{
		Device:   "AA:BB:CC:DD:EE:FF",
		Category: &cat,
	})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if event.Device != "AA:BB:CC:DD:EE:FF" || event.Category != CategoryState {
		t.Errorf("unexpected event: %+v", event)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected EOF after last match, got %v", err)
	}
}

func TestFilteredReader_MinSeverity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.blog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"))
	logger.Log(Event{
		Timestamp: time.Now().UTC(),
		EngineID:  "test-engine",
		Device:    "AA:BB:CC:DD:EE:FF",
		Severity:  SeverityError,
		Category:  CategoryError,
		Error:     &ErrorEventData{Kind: "device_mismatch"},
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	min := SeverityWarn
	reader, err := NewFilteredReader(path, Filter{MinSeverity: &min})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event at or above WARN, got %d", len(events))
	}
	if events[0].Error == nil || events[0].Error.Kind != "device_mismatch" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}
