// Package vc implements volume control coordination across device groups.
// Volume and mute are cached per group so members that connect after a
// change still converge on the group's current rendering state.
package vc

import (
	"fmt"
	"sync"

	"github.com/bthost-project/bthost-go/pkg/device"
)

// Link issues volume control operations against a connected device.
type Link interface {
	// SetVolume pushes an absolute volume. Reports acceptance.
	SetVolume(addr device.Address, volume uint8) bool

	// SetMute pushes the mute state. Reports acceptance.
	SetMute(addr device.Address, muted bool) bool
}

// AudioUpdateFunc is invoked when the active group's rendering state
// changes, so the audio subsystem can follow.
type AudioUpdateFunc func(group int, volume uint8, muted bool)

// NoGroup marks a device without a group assignment.
const NoGroup = -1

// Coordinator caches per-group volume and mute state and keeps connected
// group members synchronized. Safe for concurrent use.
type Coordinator struct {
	link        Link
	audioUpdate AudioUpdateFunc

	mu          sync.Mutex
	groups      map[device.Address]int
	volumes     map[int]uint8
	mutes       map[int]bool
	connected   map[device.Address]bool
	activeGroup int
}

// NewCoordinator creates a coordinator with no group assignments and no
// active group.
func NewCoordinator(link Link, audioUpdate AudioUpdateFunc) *Coordinator {
	return &Coordinator{
		link:        link,
		audioUpdate: audioUpdate,
		groups:      make(map[device.Address]int),
		volumes:     make(map[int]uint8),
		mutes:       make(map[int]bool),
		connected:   make(map[device.Address]bool),
		activeGroup: NoGroup,
	}
}

// AssignGroup places a device in a group. A device belongs to at most one
// group; reassignment overwrites.
func (c *Coordinator) AssignGroup(addr device.Address, group int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[addr] = group
}

// GroupOf returns the device's group, or NoGroup.
func (c *Coordinator) GroupOf(addr device.Address) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if group, ok := c.groups[addr]; ok {
		return group
	}
	return NoGroup
}

// SetGroupVolume caches the group volume and pushes it to every connected
// member. The audio subsystem is updated only for the active group.
func (c *Coordinator) SetGroupVolume(group int, volume uint8) {
	c.mu.Lock()
	c.volumes[group] = volume
	members := c.connectedMembersLocked(group)
	notifyAudio := group == c.activeGroup
	muted := c.mutes[group]
	c.mu.Unlock()

	for _, addr := range members {
		c.link.SetVolume(addr, volume)
	}
	if notifyAudio && c.audioUpdate != nil {
		c.audioUpdate(group, volume, muted)
	}
}

// SetGroupMute caches the group mute state and pushes it to every
// connected member. The audio subsystem is updated only for the active
// group.
func (c *Coordinator) SetGroupMute(group int, muted bool) {
	c.mu.Lock()
	c.mutes[group] = muted
	members := c.connectedMembersLocked(group)
	notifyAudio := group == c.activeGroup
	volume := c.volumes[group]
	c.mu.Unlock()

	for _, addr := range members {
		c.link.SetMute(addr, muted)
	}
	if notifyAudio && c.audioUpdate != nil {
		c.audioUpdate(group, volume, muted)
	}
}

// ClearGroupMute drops the cached mute state so it is no longer replayed
// to late joiners. Connected members are unmuted.
func (c *Coordinator) ClearGroupMute(group int) {
	c.mu.Lock()
	_, hadMute := c.mutes[group]
	delete(c.mutes, group)
	members := c.connectedMembersLocked(group)
	c.mu.Unlock()

	if !hadMute {
		return
	}
	for _, addr := range members {
		c.link.SetMute(addr, false)
	}
}

// GroupVolume returns the cached group volume.
func (c *Coordinator) GroupVolume(group int) (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.volumes[group]
	return v, ok
}

// GroupMute returns the cached group mute state.
func (c *Coordinator) GroupMute(group int) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.mutes[group]
	return m, ok
}

// SetActiveGroup marks the group whose rendering state drives the audio
// subsystem, and pushes that group's cached state to it.
func (c *Coordinator) SetActiveGroup(group int) {
	c.mu.Lock()
	c.activeGroup = group
	volume, hasVolume := c.volumes[group]
	muted := c.mutes[group]
	c.mu.Unlock()

	if hasVolume && c.audioUpdate != nil {
		c.audioUpdate(group, volume, muted)
	}
}

// ActiveGroup returns the active group, or NoGroup.
func (c *Coordinator) ActiveGroup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeGroup
}

// deviceConnected replays the group's cached state to a member that just
// reached Connected.
func (c *Coordinator) deviceConnected(addr device.Address) {
	c.mu.Lock()
	c.connected[addr] = true
	group, grouped := c.groups[addr]
	var (
		volume    uint8
		hasVolume bool
		muted     bool
		hasMute   bool
	)
	if grouped {
		volume, hasVolume = c.volumes[group]
		muted, hasMute = c.mutes[group]
	}
	c.mu.Unlock()

	if hasVolume {
		c.link.SetVolume(addr, volume)
	}
	if hasMute {
		c.link.SetMute(addr, muted)
	}
}

func (c *Coordinator) deviceDisconnected(addr device.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.connected, addr)
}

func (c *Coordinator) summaryFor(addr device.Address) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[addr]
	if !ok {
		return "ungrouped"
	}
	s := fmt.Sprintf("group=%d", group)
	if v, ok := c.volumes[group]; ok {
		s += fmt.Sprintf(" volume=%d", v)
	}
	if m, ok := c.mutes[group]; ok {
		s += fmt.Sprintf(" muted=%t", m)
	}
	return s
}

// connectedMembersLocked lists connected devices of a group. Caller holds mu.
func (c *Coordinator) connectedMembersLocked(group int) []device.Address {
	var members []device.Address
	for addr, g := range c.groups {
		if g == group && c.connected[addr] {
			members = append(members, addr)
		}
	}
	return members
}
