package vc

import (
	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
)

// Extension is the per-device volume control hook. It tells the
// coordinator when its device becomes usable so cached group state can be
// replayed to late joiners.
type Extension struct {
	coord *Coordinator
	addr  device.Address
}

var _ engine.Extension = (*Extension)(nil)

// NewExtension creates the extension for one device.
func (c *Coordinator) NewExtension(addr device.Address) *Extension {
	return &Extension{coord: c, addr: addr}
}

// OnEnter implements engine.Extension.
func (e *Extension) OnEnter(s engine.State) {
	switch s {
	case engine.StateConnected:
		e.coord.deviceConnected(e.addr)
	case engine.StateDisconnected:
		e.coord.deviceDisconnected(e.addr)
	}
}

// OnEvent implements engine.Extension. Volume control carries no
// per-event work.
func (e *Extension) OnEvent(engine.Event) {}

// Summary implements engine.Extension.
func (e *Extension) Summary() string {
	return e.coord.summaryFor(e.addr)
}
