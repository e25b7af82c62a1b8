package engine

// State represents the connection state of a remote device for one profile.
type State uint8

const (
	// StateDisconnected indicates no logical link. Initial state.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateDisconnecting indicates a disconnection is in progress.
	StateDisconnecting

	// StateConnected indicates an active logical link.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateDisconnecting:
		return "DISCONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// IsTransient reports whether the state expects an outcome and carries an
// armed timer.
func (s State) IsTransient() bool {
	return s == StateConnecting || s == StateDisconnecting
}
