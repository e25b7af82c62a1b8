package pbap

import (
	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
)

// Extension is the per-device phonebook client hook. It feeds the engine's
// connection state into the download pipeline.
type Extension struct {
	pipeline *Pipeline
}

var _ engine.Extension = (*Extension)(nil)

// NewExtension creates the extension and its pipeline for one device.
func NewExtension(addr device.Address, client Client, store *Store) *Extension {
	return &Extension{pipeline: NewPipeline(addr, client, store)}
}

// Pipeline exposes the download pipeline for response delivery and
// readiness gating.
func (e *Extension) Pipeline() *Pipeline {
	return e.pipeline
}

// OnEnter implements engine.Extension.
func (e *Extension) OnEnter(s engine.State) {
	switch s {
	case engine.StateConnected:
		e.pipeline.connectedChanged(true)
	case engine.StateDisconnected:
		e.pipeline.connectedChanged(false)
	}
}

// OnEvent implements engine.Extension. The pipeline reacts to state
// changes only.
func (e *Extension) OnEvent(engine.Event) {}

// Summary implements engine.Extension.
func (e *Extension) Summary() string {
	return e.pipeline.summary()
}
