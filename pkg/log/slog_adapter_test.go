package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogAdapter_StateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(stateEvent("AA:BB:CC:DD:EE:FF", "CONNECTING", "CONNECTED"))

	out := buf.String()
	for _, want := range []string{"device=AA:BB:CC:DD:EE:FF", "from=CONNECTING", "to=CONNECTED", "category=STATE"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapter_SeverityMapsToLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	adapter.Log(Event{
		Timestamp: time.Now().UTC(),
		EngineID:  "id",
		Device:    "AA:BB:CC:DD:EE:FF",
		Severity:  SeverityError,
		Category:  CategoryError,
		Error:     &ErrorEventData{Kind: "device_mismatch", Message: "indication for wrong device"},
	})

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("expected ERROR level, got: %s", out)
	}
	if !strings.Contains(out, "kind=device_mismatch") {
		t.Errorf("expected error kind attribute, got: %s", out)
	}
}

func TestSlogAdapter_DebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	d := 10 * time.Second
	adapter.Log(Event{
		Timestamp: time.Now().UTC(),
		EngineID:  "id",
		Device:    "AA:BB:CC:DD:EE:FF",
		Severity:  SeverityDebug,
		Category:  CategoryTimer,
		Timer:     &TimerEventData{Op: TimerOpArm, Kind: "connect", Duration: &d},
	})

	if buf.Len() != 0 {
		t.Errorf("debug event should be suppressed at default level: %s", buf.String())
	}
}
