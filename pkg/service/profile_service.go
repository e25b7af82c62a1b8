package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
	"github.com/bthost-project/bthost-go/pkg/log"
	"github.com/bthost-project/bthost-go/pkg/profile"
)

// Service errors.
var (
	ErrServiceStopped = errors.New("profile service stopped")
	ErrUnknownDevice  = errors.New("no engine for device")
	ErrTooManyDevices = errors.New("maximum device engines reached")
)

// MaxEngines is the default cap on simultaneously tracked devices.
const MaxEngines = 50

// Config holds profile service construction parameters.
type Config struct {
	// Profile is the profile this service serves.
	Profile profile.ID

	// Link performs native connect/disconnect. Required.
	Link engine.NativeLink

	// Policy decides admission. Required.
	Policy engine.AdmissionPolicy

	// Notifier receives every engine's committed transitions. Optional.
	Notifier engine.Notifier

	// Logger receives engine events. Nil disables logging.
	Logger log.Logger

	// NewExtension builds the per-device profile extension. Optional.
	NewExtension func(addr device.Address) engine.Extension

	// ConnectTimeout / DisconnectTimeout override the profile defaults
	// when non-zero.
	ConnectTimeout    time.Duration
	DisconnectTimeout time.Duration

	// MaxEngines caps tracked devices. Zero selects the default.
	MaxEngines int
}

// ProfileService owns the connection engines of one profile.
// It is safe for concurrent use.
type ProfileService struct {
	cfg Config

	mu      sync.Mutex
	engines map[device.Address]*engine.Engine
	stopped bool
}

// New creates a profile service with no tracked devices.
func New(cfg Config) (*ProfileService, error) {
	if cfg.Link == nil {
		return nil, errors.New("service: native link required")
	}
	if cfg.Policy == nil {
		return nil, errors.New("service: admission policy required")
	}
	if cfg.MaxEngines == 0 {
		cfg.MaxEngines = MaxEngines
	}
	return &ProfileService{
		cfg:     cfg,
		engines: make(map[device.Address]*engine.Engine),
	}, nil
}

// Profile returns the profile this service serves.
func (s *ProfileService) Profile() profile.ID {
	return s.cfg.Profile
}

// Connect requests a connection to the device, creating its engine if this
// is the first event referencing it.
func (s *ProfileService) Connect(addr device.Address) error {
	eng, err := s.getOrCreate(addr)
	if err != nil {
		return err
	}
	eng.Connect()
	return nil
}

// Disconnect requests a disconnection. Unknown devices are an error: there
// is nothing to tear down.
func (s *ProfileService) Disconnect(addr device.Address) error {
	eng := s.get(addr)
	if eng == nil {
		return ErrUnknownDevice
	}
	eng.Disconnect()
	return nil
}

// HandleIndication feeds a remote indication from the native link into the
// device's engine. An indication for a previously-unknown device creates
// its engine, except a Disconnected indication, which carries no work.
func (s *ProfileService) HandleIndication(addr device.Address, ind engine.Indication) error {
	eng := s.get(addr)
	if eng == nil {
		if ind == engine.IndicationDisconnected {
			return nil
		}
		var err error
		eng, err = s.getOrCreate(addr)
		if err != nil {
			return err
		}
	}
	eng.Submit(engine.RemoteIndication(addr, ind))
	return nil
}

// ConnectionState returns the device's last committed state.
// Untracked devices are Disconnected.
func (s *ProfileService) ConnectionState(addr device.Address) engine.State {
	eng := s.get(addr)
	if eng == nil {
		return engine.StateDisconnected
	}
	return eng.CurrentState()
}

// ConnectedDevices lists devices whose last committed state is Connected.
func (s *ProfileService) ConnectedDevices() []device.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []device.Address
	for addr, eng := range s.engines {
		if eng.IsConnected() {
			out = append(out, addr)
		}
	}
	sortAddresses(out)
	return out
}

// Devices lists all tracked devices.
func (s *ProfileService) Devices() []device.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]device.Address, 0, len(s.engines))
	for addr := range s.engines {
		out = append(out, addr)
	}
	sortAddresses(out)
	return out
}

// EngineCount returns the number of tracked devices.
func (s *ProfileService) EngineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.engines)
}

// Dump returns read-only snapshots of every tracked engine, ordered by
// device address. No transition side effects.
func (s *ProfileService) Dump() []engine.Snapshot {
	s.mu.Lock()
	engines := make([]*engine.Engine, 0, len(s.engines))
	for _, eng := range s.engines {
		engines = append(engines, eng)
	}
	s.mu.Unlock()

	snaps := make([]engine.Snapshot, 0, len(engines))
	for _, eng := range engines {
		snaps = append(snaps, eng.DumpSnapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Device.String() < snaps[j].Device.String()
	})
	return snaps
}

// Stop destroys all engines. Subsequent calls that would create an engine
// return ErrServiceStopped.
func (s *ProfileService) Stop() {
	s.mu.Lock()
	engines := make([]*engine.Engine, 0, len(s.engines))
	for _, eng := range s.engines {
		engines = append(engines, eng)
	}
	s.engines = make(map[device.Address]*engine.Engine)
	s.stopped = true
	s.mu.Unlock()

	for _, eng := range engines {
		eng.Stop()
	}
}

// get returns the engine for a device, or nil.
func (s *ProfileService) get(addr device.Address) *engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engines[addr]
}

// getOrCreate returns the device's engine, creating and starting one if
// this is the first event referencing the device.
func (s *ProfileService) getOrCreate(addr device.Address) (*engine.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, ErrServiceStopped
	}
	if eng, ok := s.engines[addr]; ok {
		return eng, nil
	}
	if len(s.engines) >= s.cfg.MaxEngines {
		return nil, ErrTooManyDevices
	}

	var ext engine.Extension
	if s.cfg.NewExtension != nil {
		ext = s.cfg.NewExtension(addr)
	}

	eng, err := engine.New(engine.Config{
		Device:            addr,
		Profile:           s.cfg.Profile,
		Link:              s.cfg.Link,
		Policy:            s.cfg.Policy,
		Notifier:          s.cfg.Notifier,
		Extension:         ext,
		Logger:            s.cfg.Logger,
		ConnectTimeout:    s.cfg.ConnectTimeout,
		DisconnectTimeout: s.cfg.DisconnectTimeout,
		CleanupEligible:   s.removeEngine,
	})
	if err != nil {
		return nil, err
	}

	s.engines[addr] = eng
	eng.Start()
	return eng, nil
}

// removeEngine destroys a settled engine. Invoked from the engine's own
// actor once it is cleanup-eligible; engine.Stop does not join the worker,
// so this does not deadlock.
func (s *ProfileService) removeEngine(addr device.Address) {
	s.mu.Lock()
	eng, ok := s.engines[addr]
	if ok {
		delete(s.engines, addr)
	}
	s.mu.Unlock()

	if ok {
		eng.Stop()
	}
}

func sortAddresses(addrs []device.Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].String() < addrs[j].String()
	})
}
