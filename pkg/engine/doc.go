// Package engine implements the per-device profile connection state machine.
//
// One Engine exists per remote device and profile. "Disconnected" and
// "Connected" are steady states; "Connecting" and "Disconnecting" are
// transient states held until the native link reports an outcome or a
// bounded timer fires.
//
//	         (Disconnected)
//	            |       ^
//	    CONNECT |       | DISCONNECTED
//	            V       |
//	  (Connecting)<--->(Disconnecting)
//	            |       ^
//	  CONNECTED |       | DISCONNECT
//	            V       |
//	           (Connected)
//
// If the engine is Connecting and the remote peer starts disconnecting, the
// engine moves straight to Disconnecting, and symmetrically from
// Disconnecting back to Connecting. The transient state the engine is
// already in absorbs the opposing remote indication without waiting for the
// original operation's outcome.
//
// Each engine is a single-threaded actor. Submit enqueues an event and
// returns; one worker goroutine drains the queue, so all native link calls,
// policy checks, timer handling and notifications for a device are strictly
// sequential. Fresh local requests arriving in a transient state are
// deferred and replayed, in order, when the transient state is left.
package engine
