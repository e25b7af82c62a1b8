// Package policy provides the admission policy consulted by connection
// engines: a per-device table of connection-policy values.
package policy

import (
	"sync"

	"github.com/bthost-project/bthost-go/pkg/device"
)

// Value is the stored connection policy for a device.
type Value uint8

const (
	// Unknown means no policy has been set. Incoming attempts are
	// admitted, outgoing attempts are not: the application must opt a
	// device in before the stack dials out to it.
	Unknown Value = iota

	// Forbidden rejects attempts in both directions.
	Forbidden

	// Allowed admits attempts in both directions.
	Allowed
)

// String returns the policy value name.
func (v Value) String() string {
	switch v {
	case Unknown:
		return "UNKNOWN"
	case Forbidden:
		return "FORBIDDEN"
	case Allowed:
		return "ALLOWED"
	default:
		return "INVALID"
	}
}

// Table is a mutable per-device admission policy. It implements
// engine.AdmissionPolicy and is safe for concurrent use: engines read it
// from their actors while the application mutates it.
type Table struct {
	mu     sync.RWMutex
	values map[device.Address]Value
}

// NewTable creates an empty policy table. All devices start Unknown.
func NewTable() *Table {
	return &Table{values: make(map[device.Address]Value)}
}

// Set stores the policy for a device.
func (t *Table) Set(addr device.Address, v Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[addr] = v
}

// Get returns the stored policy for a device.
func (t *Table) Get(addr device.Address) Value {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[addr]
}

// Remove forgets the policy for a device, returning it to Unknown.
func (t *Table) Remove(addr device.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, addr)
}

// OkToConnect reports whether a connection attempt may proceed.
// Policy is re-read on every call, so deferred events replayed later see
// the current answer, not the one from their arrival.
func (t *Table) OkToConnect(addr device.Address, incoming bool) bool {
	switch t.Get(addr) {
	case Allowed:
		return true
	case Forbidden:
		return false
	default:
		return incoming
	}
}
