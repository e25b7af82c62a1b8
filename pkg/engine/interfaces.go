package engine

import (
	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/profile"
)

// NativeLink performs connect/disconnect against the lower transport layer.
// The boolean return is the immediate accept/reject of the request; the
// actual completion arrives later as a remote indication submitted to the
// engine. Implementations must return quickly and must not block on I/O:
// they are called from inside the device actor.
type NativeLink interface {
	Connect(addr device.Address) bool
	Disconnect(addr device.Address) bool
}

// AdmissionPolicy decides whether a connection attempt may proceed.
// Consulted for both local-initiated (incoming=false) and remote-initiated
// (incoming=true) attempts; the answer may differ per direction. Called
// from inside the device actor; implementations must not block.
type AdmissionPolicy interface {
	OkToConnect(addr device.Address, incoming bool) bool
}

// Transition is a committed state change. It is emitted at most once per
// actual change, after the new state has fully taken effect.
type Transition struct {
	Device  device.Address
	Profile profile.ID
	From    State
	To      State
}

// Notifier publishes committed transitions to interested observers.
// OnTransition is called from inside the device actor and must not block;
// implementations should hand off to their own goroutine or queue.
// Notifications are the only authoritative signal of state ordering.
type Notifier interface {
	OnTransition(t Transition)
}

// Extension carries profile-specific state alongside the generic engine
// state, opaque to the core. Both hooks run on the device actor, in the
// same turn as the core's own transition: OnEnter after the state has been
// entered, OnEvent after the core has finished handling the event.
// Summary must be safe to call concurrently (it serves diagnostics).
type Extension interface {
	OnEnter(state State)
	OnEvent(ev Event)
	Summary() string
}

// Snapshot is a read-only diagnostic view of an engine. Taking a snapshot
// has no transition side effects.
type Snapshot struct {
	EngineID      string
	Device        device.Address
	Profile       profile.ID
	State         State
	PreviousState State

	// HasPrevious is false until the first committed transition; the
	// implicit Disconnected assigned at construction has no predecessor.
	HasPrevious bool

	// Deferred is the number of queued deferred events.
	Deferred int

	// ExtensionSummary is the profile extension's own diagnostic line.
	ExtensionSummary string
}
