package log

import (
	"time"
)

// Event represents a host-stack log event captured by a profile connection
// engine. CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// EngineID uniquely identifies the engine instance (UUID). One device
	// can be served by several engine instances over time; the ID separates
	// their traces.
	EngineID string `cbor:"2,keyasint"`

	// Device is the remote device address.
	Device string `cbor:"3,keyasint"`

	// Profile is the profile name the engine serves.
	Profile string `cbor:"4,keyasint,omitempty"`

	// Severity classifies how seriously to take the event.
	Severity Severity `cbor:"5,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"6,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`  // Committed transitions
	NativeCall  *NativeCallEvent  `cbor:"8,keyasint,omitempty"`  // Calls into the native link
	Timer       *TimerEventData   `cbor:"9,keyasint,omitempty"`  // Timer arm/disarm/fire
	Error       *ErrorEventData   `cbor:"10,keyasint,omitempty"` // Errors at any layer
}

// Severity classifies log events.
type Severity uint8

const (
	// SeverityDebug is detailed event flow, off in production.
	SeverityDebug Severity = 0
	// SeverityInfo is normal lifecycle progress.
	SeverityInfo Severity = 1
	// SeverityWarn is recoverable anomalies (rejections, timeouts, discards).
	SeverityWarn Severity = 2
	// SeverityError is logic faults (device mismatch, native failure).
	SeverityError Severity = 3
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a committed state transition.
	CategoryState Category = 0
	// CategoryNative indicates a call into the native link.
	CategoryNative Category = 1
	// CategoryTimer indicates timer arm/disarm/fire.
	CategoryTimer Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryNative:
		return "NATIVE"
	case CategoryTimer:
		return "TIMER"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a committed engine transition.
type StateChangeEvent struct {
	// From is the state being left.
	From string `cbor:"1,keyasint"`

	// To is the state entered.
	To string `cbor:"2,keyasint"`

	// Trigger names the event that caused the transition.
	Trigger string `cbor:"3,keyasint,omitempty"`
}

// NativeCallEvent captures a synchronous call into the native link.
type NativeCallEvent struct {
	// Op is the operation name ("connect" or "disconnect").
	Op string `cbor:"1,keyasint"`

	// Accepted is the immediate accept/reject returned by the native link.
	Accepted bool `cbor:"2,keyasint"`
}

// TimerOp distinguishes timer lifecycle events.
type TimerOp uint8

const (
	// TimerOpArm indicates a timer was armed.
	TimerOpArm TimerOp = 0
	// TimerOpDisarm indicates a timer was cancelled.
	TimerOpDisarm TimerOp = 1
	// TimerOpFire indicates a timer fired and was accepted.
	TimerOpFire TimerOp = 2
	// TimerOpStale indicates a fired timer was discarded as stale.
	TimerOpStale TimerOp = 3
)

// String returns the timer operation name.
func (o TimerOp) String() string {
	switch o {
	case TimerOpArm:
		return "ARM"
	case TimerOpDisarm:
		return "DISARM"
	case TimerOpFire:
		return "FIRE"
	case TimerOpStale:
		return "STALE"
	default:
		return "UNKNOWN"
	}
}

// TimerEventData captures a transient-state timer event.
type TimerEventData struct {
	// Op is the timer lifecycle operation.
	Op TimerOp `cbor:"1,keyasint"`

	// Kind names the timer ("connect" or "disconnect").
	Kind string `cbor:"2,keyasint"`

	// Duration is the armed window (arm events only). Stored as nanoseconds.
	Duration *time.Duration `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Kind is the error taxonomy name (e.g. "admission_rejected",
	// "native_command_failed", "timeout", "unexpected_event",
	// "device_mismatch").
	Kind string `cbor:"1,keyasint"`

	// Message is a human-readable description.
	Message string `cbor:"2,keyasint,omitempty"`

	// State names the engine state the error was observed in.
	State string `cbor:"3,keyasint,omitempty"`
}
