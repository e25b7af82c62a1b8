package log

import (
	"sync"
	"testing"
)

// captureLogger records events for test assertions.
type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureLogger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestMultiLogger_FansOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	m := NewMultiLogger(a, b)

	m.Log(stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"))

	if a.count() != 1 {
		t.Errorf("first logger: expected 1 event, got %d", a.count())
	}
	if b.count() != 1 {
		t.Errorf("second logger: expected 1 event, got %d", b.count())
	}
}

func TestMultiLogger_Empty(t *testing.T) {
	m := NewMultiLogger()
	// Must not panic
	m.Log(stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"))
}

func TestNoopLogger(t *testing.T) {
	var l NoopLogger
	l.Log(stateEvent("AA:BB:CC:DD:EE:FF", "DISCONNECTED", "CONNECTING"))
}
