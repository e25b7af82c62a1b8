package engine

import (
	"fmt"

	"github.com/bthost-project/bthost-go/pkg/device"
)

// Type distinguishes the event kinds an engine consumes.
type Type uint8

const (
	// TypeLocalConnect is a local application connect request.
	TypeLocalConnect Type = iota

	// TypeLocalDisconnect is a local application disconnect request.
	TypeLocalDisconnect

	// TypeRemoteIndication is an asynchronous indication from the native link.
	TypeRemoteIndication

	// TypeTimerFired is a transient-state timer expiry. Only the engine's
	// own timer produces these; externally submitted timer events are
	// discarded as stale.
	TypeTimerFired
)

// Indication is the connection state reported by a remote indication.
type Indication uint8

const (
	// IndicationConnecting reports the remote side started connecting.
	IndicationConnecting Indication = iota

	// IndicationConnected reports the link completed.
	IndicationConnected

	// IndicationDisconnecting reports the remote side started disconnecting.
	IndicationDisconnecting

	// IndicationDisconnected reports the link is gone.
	IndicationDisconnected
)

// String returns the indication name.
func (i Indication) String() string {
	switch i {
	case IndicationConnecting:
		return "CONNECTING"
	case IndicationConnected:
		return "CONNECTED"
	case IndicationDisconnecting:
		return "DISCONNECTING"
	case IndicationDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// TimerKind names the timer armed by a transient state.
type TimerKind uint8

const (
	// TimerConnect bounds the Connecting state.
	TimerConnect TimerKind = iota

	// TimerDisconnect bounds the Disconnecting state.
	TimerDisconnect
)

// String returns the timer name.
func (k TimerKind) String() string {
	switch k {
	case TimerConnect:
		return "connect"
	case TimerDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is a single unit of input to an engine. Construct events with
// LocalConnect, LocalDisconnect, or RemoteIndication; timer events are
// created internally.
type Event struct {
	// Type is the event kind.
	Type Type

	// Device identifies the device a remote indication refers to.
	// Zero for local requests.
	Device device.Address

	// Indication carries the reported state for TypeRemoteIndication.
	Indication Indication

	// Timer names the expired timer for TypeTimerFired.
	Timer TimerKind

	// epoch guards timer events against firing after a concurrent disarm.
	epoch uint64
}

// LocalConnect returns a local connect request event.
func LocalConnect() Event {
	return Event{Type: TypeLocalConnect}
}

// LocalDisconnect returns a local disconnect request event.
func LocalDisconnect() Event {
	return Event{Type: TypeLocalDisconnect}
}

// RemoteIndication returns a remote indication event for the given device.
func RemoteIndication(addr device.Address, ind Indication) Event {
	return Event{Type: TypeRemoteIndication, Device: addr, Indication: ind}
}

// String returns a short event description for logs.
func (e Event) String() string {
	switch e.Type {
	case TypeLocalConnect:
		return "LOCAL_CONNECT"
	case TypeLocalDisconnect:
		return "LOCAL_DISCONNECT"
	case TypeRemoteIndication:
		return "REMOTE_" + e.Indication.String()
	case TypeTimerFired:
		return fmt.Sprintf("TIMER_%s_FIRED", e.Timer)
	default:
		return "UNKNOWN"
	}
}
