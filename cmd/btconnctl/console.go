package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
	"github.com/bthost-project/bthost-go/pkg/policy"
	"github.com/bthost-project/bthost-go/pkg/profile"
	"github.com/bthost-project/bthost-go/pkg/service"
	"github.com/bthost-project/bthost-go/pkg/vc"
)

// console handles interactive mode for btconnctl.
type console struct {
	services map[profile.ID]*service.ProfileService
	links    map[profile.ID]*simLink
	table    *policy.Table
	coord    *vc.Coordinator
	rl       *readline.Instance
}

func newConsole(services map[profile.ID]*service.ProfileService, links map[profile.ID]*simLink, table *policy.Table, coord *vc.Coordinator) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bthost> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &console{
		services: services,
		links:    links,
		table:    table,
		coord:    coord,
		rl:       rl,
	}, nil
}

func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.rl.Stdout(), format+"\n", args...)
}

// onTransition prints committed transitions without clobbering the prompt.
func (c *console) onTransition(t engine.Transition) {
	c.printf("[%s] %s: %s -> %s", t.Profile, t.Device, t.From, t.To)
}

// run starts the interactive command loop.
func (c *console) run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			c.printf("Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "connect", "c":
			c.cmdConnect(args)

		case "disconnect", "d":
			c.cmdDisconnect(args)

		case "indicate", "i":
			c.cmdIndicate(args)

		case "state", "s":
			c.cmdState(args)

		case "devices":
			c.cmdDevices(args)

		case "dump":
			c.cmdDump()

		case "policy", "p":
			c.cmdPolicy(args)

		case "auto":
			c.cmdAuto(args)

		case "refuse":
			c.cmdRefuse(args)

		case "group":
			c.cmdGroup(args)

		case "volume", "v":
			c.cmdVolume(args)

		case "mute", "m":
			c.cmdMute(args)

		case "active":
			c.cmdActive(args)

		case "quit", "exit", "q":
			c.printf("Exiting...")
			cancel()
			return

		default:
			c.printf("Unknown command: %s (type 'help' for commands)", cmd)
		}
	}
}

func (c *console) printHelp() {
	c.printf(`
btconnctl Commands:
  Connection:
    connect <profile> <addr>      - Request a connection
    disconnect <profile> <addr>   - Request a disconnection
    indicate <profile> <addr> <connecting|connected|disconnecting|disconnected>
                                  - Inject a remote indication
    state <profile> <addr>        - Show a device's connection state
    devices [profile]             - List tracked devices
    dump                          - Dump all engine snapshots

  Policy:
    policy <addr> <allowed|forbidden|unknown>
                                  - Set the admission policy for a device

  Simulation:
    auto <on|off>                 - Remote responds to native commands
    refuse <on|off>               - Native link refuses commands

  Volume Control:
    group <addr> <n>              - Assign a device to group n
    volume <group> <0-127>        - Set a group's volume
    mute <group> <on|off>         - Set a group's mute state
    active <group>                - Mark the active audio group

  General:
    help                          - Show this help
    quit                          - Exit

  Profiles: A2DP_SOURCE A2DP_SINK HANDSFREE PBAP_CLIENT VOLUME_CONTROL
            BATTERY HEARING_AID HID`)
}

func (c *console) serviceArg(name string) (*service.ProfileService, bool) {
	id, err := profile.Parse(name)
	if err != nil {
		c.printf("%v", err)
		return nil, false
	}
	svc, ok := c.services[id]
	if !ok {
		c.printf("profile %s not running", id)
		return nil, false
	}
	return svc, true
}

func (c *console) addrArg(s string) (device.Address, bool) {
	addr, err := device.ParseAddress(s)
	if err != nil {
		c.printf("%v", err)
		return device.Address{}, false
	}
	return addr, true
}

func (c *console) cmdConnect(args []string) {
	if len(args) != 2 {
		c.printf("usage: connect <profile> <addr>")
		return
	}
	svc, ok := c.serviceArg(args[0])
	if !ok {
		return
	}
	addr, ok := c.addrArg(args[1])
	if !ok {
		return
	}
	if err := svc.Connect(addr); err != nil {
		c.printf("connect failed: %v", err)
	}
}

func (c *console) cmdDisconnect(args []string) {
	if len(args) != 2 {
		c.printf("usage: disconnect <profile> <addr>")
		return
	}
	svc, ok := c.serviceArg(args[0])
	if !ok {
		return
	}
	addr, ok := c.addrArg(args[1])
	if !ok {
		return
	}
	if err := svc.Disconnect(addr); err != nil {
		c.printf("disconnect failed: %v", err)
	}
}

func (c *console) cmdIndicate(args []string) {
	if len(args) != 3 {
		c.printf("usage: indicate <profile> <addr> <indication>")
		return
	}
	svc, ok := c.serviceArg(args[0])
	if !ok {
		return
	}
	addr, ok := c.addrArg(args[1])
	if !ok {
		return
	}
	ind, err := parseIndication(args[2])
	if err != nil {
		c.printf("%v", err)
		return
	}
	if err := svc.HandleIndication(addr, ind); err != nil {
		c.printf("indicate failed: %v", err)
	}
}

func (c *console) cmdState(args []string) {
	if len(args) != 2 {
		c.printf("usage: state <profile> <addr>")
		return
	}
	svc, ok := c.serviceArg(args[0])
	if !ok {
		return
	}
	addr, ok := c.addrArg(args[1])
	if !ok {
		return
	}
	c.printf("%s", svc.ConnectionState(addr))
}

func (c *console) cmdDevices(args []string) {
	ids := make([]profile.ID, 0, len(c.services))
	if len(args) > 0 {
		id, err := profile.Parse(args[0])
		if err != nil {
			c.printf("%v", err)
			return
		}
		ids = append(ids, id)
	} else {
		for id := range c.services {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	for _, id := range ids {
		svc, ok := c.services[id]
		if !ok {
			continue
		}
		for _, addr := range svc.Devices() {
			c.printf("%-14s %s %s", id, addr, svc.ConnectionState(addr))
		}
	}
}

func (c *console) cmdDump() {
	for _, id := range sortedProfiles(c.services) {
		for _, snap := range c.services[id].Dump() {
			line := fmt.Sprintf("%-14s %s state=%s", snap.Profile, snap.Device, snap.State)
			if snap.HasPrevious {
				line += fmt.Sprintf(" prev=%s", snap.PreviousState)
			}
			if snap.Deferred > 0 {
				line += fmt.Sprintf(" deferred=%d", snap.Deferred)
			}
			if snap.ExtensionSummary != "" {
				line += " " + snap.ExtensionSummary
			}
			c.printf("%s", line)
		}
	}
}

func (c *console) cmdPolicy(args []string) {
	if len(args) != 2 {
		c.printf("usage: policy <addr> <allowed|forbidden|unknown>")
		return
	}
	addr, ok := c.addrArg(args[0])
	if !ok {
		return
	}
	switch strings.ToLower(args[1]) {
	case "allowed":
		c.table.Set(addr, policy.Allowed)
	case "forbidden":
		c.table.Set(addr, policy.Forbidden)
	case "unknown":
		c.table.Remove(addr)
	default:
		c.printf("invalid policy value: %s", args[1])
		return
	}
	c.printf("%s -> %s", addr, c.table.Get(addr))
}

func (c *console) cmdAuto(args []string) {
	on, ok := c.boolArg(args, "auto")
	if !ok {
		return
	}
	for _, link := range c.links {
		link.setAutoRespond(on)
	}
}

func (c *console) cmdRefuse(args []string) {
	on, ok := c.boolArg(args, "refuse")
	if !ok {
		return
	}
	for _, link := range c.links {
		link.setRefuse(on)
	}
}

func (c *console) boolArg(args []string, cmd string) (bool, bool) {
	if len(args) != 1 {
		c.printf("usage: %s <on|off>", cmd)
		return false, false
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return true, true
	case "off":
		return false, true
	default:
		c.printf("usage: %s <on|off>", cmd)
		return false, false
	}
}

func (c *console) cmdGroup(args []string) {
	if len(args) != 2 {
		c.printf("usage: group <addr> <n>")
		return
	}
	addr, ok := c.addrArg(args[0])
	if !ok {
		return
	}
	group, err := strconv.Atoi(args[1])
	if err != nil {
		c.printf("invalid group: %s", args[1])
		return
	}
	c.coord.AssignGroup(addr, group)
}

func (c *console) cmdVolume(args []string) {
	if len(args) != 2 {
		c.printf("usage: volume <group> <0-127>")
		return
	}
	group, err := strconv.Atoi(args[0])
	if err != nil {
		c.printf("invalid group: %s", args[0])
		return
	}
	vol, err := strconv.Atoi(args[1])
	if err != nil || vol < 0 || vol > 127 {
		c.printf("invalid volume: %s", args[1])
		return
	}
	c.coord.SetGroupVolume(group, uint8(vol))
}

func (c *console) cmdMute(args []string) {
	if len(args) != 2 {
		c.printf("usage: mute <group> <on|off>")
		return
	}
	group, err := strconv.Atoi(args[0])
	if err != nil {
		c.printf("invalid group: %s", args[0])
		return
	}
	muted, ok := c.boolArg(args[1:], "mute <group>")
	if !ok {
		return
	}
	c.coord.SetGroupMute(group, muted)
}

func (c *console) cmdActive(args []string) {
	if len(args) != 1 {
		c.printf("usage: active <group>")
		return
	}
	group, err := strconv.Atoi(args[0])
	if err != nil {
		c.printf("invalid group: %s", args[0])
		return
	}
	c.coord.SetActiveGroup(group)
}

func parseIndication(s string) (engine.Indication, error) {
	switch strings.ToLower(s) {
	case "connecting":
		return engine.IndicationConnecting, nil
	case "connected":
		return engine.IndicationConnected, nil
	case "disconnecting":
		return engine.IndicationDisconnecting, nil
	case "disconnected":
		return engine.IndicationDisconnected, nil
	default:
		return 0, fmt.Errorf("invalid indication %q", s)
	}
}

func sortedProfiles(services map[profile.ID]*service.ProfileService) []profile.ID {
	ids := make([]profile.ID, 0, len(services))
	for id := range services {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
