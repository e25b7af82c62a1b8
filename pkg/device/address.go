// Package device defines the identity of a remote Bluetooth device.
//
// An Address is an opaque, comparable token. The rest of the stack keys
// per-device state (connection engines, policy entries, group membership)
// on it and never inspects its contents.
package device

import (
	"errors"
	"fmt"
	"strings"
)

// Address errors.
var (
	ErrInvalidAddress = errors.New("invalid device address")
)

// Address is a 48-bit Bluetooth device address (BD_ADDR).
// The zero value is not a valid address of any remote device.
// Address is comparable and usable as a map key; it is stable for the
// lifetime of the remote device.
type Address [6]byte

// ParseAddress parses the colon-separated form "AA:BB:CC:DD:EE:FF".
// Hex digits may be upper or lower case.
func ParseAddress(s string) (Address, error) {
	var a Address
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for i, p := range parts {
		if len(p) != 2 {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		var b byte
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		a[i] = b
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Intended for tests and tooling with literal addresses.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the canonical upper-case colon-separated form.
func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}
