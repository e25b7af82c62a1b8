// Package profile enumerates the Bluetooth profiles served by the
// connection engine and carries their per-profile timing defaults.
package profile

import (
	"fmt"
	"strings"
	"time"
)

// ID identifies a Bluetooth profile.
type ID uint8

const (
	// A2DPSource streams audio to the remote device.
	A2DPSource ID = iota

	// A2DPSink receives audio from the remote device.
	A2DPSink

	// HandsFree is the hands-free calling profile.
	HandsFree

	// PbapClient downloads contacts and call history from the remote device.
	PbapClient

	// VolumeControl is the LE volume control profile.
	VolumeControl

	// Battery is the LE battery service profile.
	Battery

	// HearingAid is the ASHA hearing aid profile.
	HearingAid

	// HID is the human interface device profile.
	HID
)

// String returns the profile name.
func (id ID) String() string {
	switch id {
	case A2DPSource:
		return "A2DP_SOURCE"
	case A2DPSink:
		return "A2DP_SINK"
	case HandsFree:
		return "HANDSFREE"
	case PbapClient:
		return "PBAP_CLIENT"
	case VolumeControl:
		return "VOLUME_CONTROL"
	case Battery:
		return "BATTERY"
	case HearingAid:
		return "HEARING_AID"
	case HID:
		return "HID"
	default:
		return "UNKNOWN"
	}
}

// All lists every known profile.
func All() []ID {
	return []ID{A2DPSource, A2DPSink, HandsFree, PbapClient, VolumeControl, Battery, HearingAid, HID}
}

// Parse maps a profile name back to its ID. Matching is case-insensitive.
func Parse(name string) (ID, error) {
	upper := strings.ToUpper(name)
	for _, id := range All() {
		if id.String() == upper {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown profile %q", name)
}

// Transient-state timeout defaults. A2DP sink historically uses a shorter
// window than the LE profiles; the remaining profiles share the 30 second
// default.
const (
	// DefaultConnectTimeout bounds Connecting/Disconnecting for most profiles.
	DefaultConnectTimeout = 30 * time.Second

	// SinkConnectTimeout bounds Connecting/Disconnecting for the A2DP sink role.
	SinkConnectTimeout = 10 * time.Second
)

// ConnectTimeout returns the transient-state timeout for the profile.
func (id ID) ConnectTimeout() time.Duration {
	if id == A2DPSink {
		return SinkConnectTimeout
	}
	return DefaultConnectTimeout
}
