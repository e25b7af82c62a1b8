package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/log"
	"github.com/bthost-project/bthost-go/pkg/profile"
)

// Config holds engine construction parameters.
type Config struct {
	// Device is the remote device this engine serves. Required.
	Device device.Address

	// Profile is the profile this engine serves.
	Profile profile.ID

	// Link performs native connect/disconnect. Required.
	Link NativeLink

	// Policy decides admission. Required.
	Policy AdmissionPolicy

	// Notifier receives committed transitions. Optional.
	Notifier Notifier

	// Extension carries profile-specific state. Optional.
	Extension Extension

	// Logger receives engine events. Nil disables logging.
	Logger log.Logger

	// ConnectTimeout bounds the Connecting state.
	// Zero selects the profile default.
	ConnectTimeout time.Duration

	// DisconnectTimeout bounds the Disconnecting state.
	// Zero selects ConnectTimeout.
	DisconnectTimeout time.Duration

	// CleanupEligible is invoked on the device actor when the engine has
	// settled back into Disconnected with nothing queued. The owning
	// service uses it to decide destruction; it must not call Stop
	// synchronously from the callback's goroutine context. Optional.
	CleanupEligible func(addr device.Address)
}

// Engine is the per-device profile connection state machine.
// All state mutation happens on a single worker goroutine; Submit only
// enqueues. See the package documentation for the transition rules.
type Engine struct {
	id        string
	device    device.Address
	profile   profile.ID
	link      NativeLink
	policy    AdmissionPolicy
	notifier  Notifier
	extension Extension
	logger    log.Logger

	connectTimeout    time.Duration
	disconnectTimeout time.Duration
	cleanupEligible   func(addr device.Address)

	// Mailbox. pending is shared with submitters; deferred is spliced back
	// into pending on transient-state exit.
	mu       sync.Mutex
	pending  []Event
	deferred []Event

	wake     chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
	started  bool

	// Actor-owned transition state.
	state      State
	timer      *time.Timer
	timerKind  TimerKind
	timerEpoch uint64
	timerArmed bool

	// Committed snapshot for concurrent readers.
	snapMu      sync.RWMutex
	snapState   State
	snapPrev    State
	snapHasPrev bool
}

// New creates an engine in the Disconnected state. No transition is
// emitted for the initial state. Call Start before submitting events.
func New(cfg Config) (*Engine, error) {
	if cfg.Device.IsZero() {
		return nil, fmt.Errorf("engine: device address required")
	}
	if cfg.Link == nil {
		return nil, fmt.Errorf("engine: native link required")
	}
	if cfg.Policy == nil {
		return nil, fmt.Errorf("engine: admission policy required")
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = cfg.Profile.ConnectTimeout()
	}
	disconnectTimeout := cfg.DisconnectTimeout
	if disconnectTimeout == 0 {
		disconnectTimeout = connectTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	return &Engine{
		id:                uuid.NewString(),
		device:            cfg.Device,
		profile:           cfg.Profile,
		link:              cfg.Link,
		policy:            cfg.Policy,
		notifier:          cfg.Notifier,
		extension:         cfg.Extension,
		logger:            logger,
		connectTimeout:    connectTimeout,
		disconnectTimeout: disconnectTimeout,
		cleanupEligible:   cfg.CleanupEligible,
		wake:              make(chan struct{}, 1),
		quit:              make(chan struct{}),
		state:             StateDisconnected,
		snapState:         StateDisconnected,
	}, nil
}

// Start launches the engine's worker goroutine. Start must be called
// exactly once.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()
	go e.run()
}

// Stop shuts the engine down. Queued events are dropped and the pending
// timer is released. Stop is safe to call from any goroutine, including
// the owning service's cleanup path, and does not wait for the worker.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.quit) })
}

// Submit enqueues an event for this device. It never blocks beyond the
// enqueue itself. Events submitted after Stop are dropped.
func (e *Engine) Submit(ev Event) {
	e.mu.Lock()
	e.pending = append(e.pending, ev)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Connect submits a local connect request.
func (e *Engine) Connect() { e.Submit(LocalConnect()) }

// Disconnect submits a local disconnect request.
func (e *Engine) Disconnect() { e.Submit(LocalDisconnect()) }

// Device returns the remote device this engine serves.
func (e *Engine) Device() device.Address { return e.device }

// Profile returns the profile this engine serves.
func (e *Engine) Profile() profile.ID { return e.profile }

// ID returns the engine's correlation ID used in log events.
func (e *Engine) ID() string { return e.id }

// CurrentState returns the last committed state. Safe to call at any time;
// use transitions, not polling, to sequence against other devices.
func (e *Engine) CurrentState() State {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapState
}

// IsConnected reports whether the last committed state is Connected.
func (e *Engine) IsConnected() bool {
	return e.CurrentState() == StateConnected
}

// DumpSnapshot returns a read-only diagnostic view. No side effects.
func (e *Engine) DumpSnapshot() Snapshot {
	e.snapMu.RLock()
	snap := Snapshot{
		EngineID:      e.id,
		Device:        e.device,
		Profile:       e.profile,
		State:         e.snapState,
		PreviousState: e.snapPrev,
		HasPrevious:   e.snapHasPrev,
	}
	e.snapMu.RUnlock()

	e.mu.Lock()
	snap.Deferred = len(e.deferred)
	e.mu.Unlock()

	if e.extension != nil {
		snap.ExtensionSummary = e.extension.Summary()
	}
	return snap
}

// run is the device actor: it drains the mailbox one event at a time.
func (e *Engine) run() {
	for {
		ev, ok := e.next()
		if !ok {
			e.disarmTimer()
			return
		}
		e.process(ev)
	}
}

// next pops the oldest pending event, blocking until one is available or
// the engine is stopped.
func (e *Engine) next() (Event, bool) {
	for {
		select {
		case <-e.quit:
			return Event{}, false
		default:
		}

		e.mu.Lock()
		if len(e.pending) > 0 {
			ev := e.pending[0]
			e.pending = e.pending[1:]
			e.mu.Unlock()
			return ev, true
		}
		e.mu.Unlock()

		select {
		case <-e.quit:
			return Event{}, false
		case <-e.wake:
		}
	}
}

// process handles one event against the current state.
func (e *Engine) process(ev Event) {
	if ev.Type == TypeTimerFired {
		if !e.timerArmed || ev.epoch != e.timerEpoch || ev.Timer != e.timerKind {
			e.logTimer(log.TimerOpStale, ev.Timer, nil)
			return
		}
	}
	if ev.Type == TypeRemoteIndication && ev.Device != e.device {
		// A mis-routed indication is a logic fault in the caller.
		e.logError(log.SeverityError, "device_mismatch",
			fmt.Sprintf("indication %s for device %s delivered to engine for %s",
				ev.Indication, ev.Device, e.device))
		return
	}

	switch e.state {
	case StateDisconnected:
		e.processDisconnected(ev)
	case StateConnecting:
		e.processConnecting(ev)
	case StateDisconnecting:
		e.processDisconnecting(ev)
	case StateConnected:
		e.processConnected(ev)
	}

	if e.extension != nil {
		e.extension.OnEvent(ev)
	}
}

func (e *Engine) processDisconnected(ev Event) {
	switch ev.Type {
	case TypeLocalConnect:
		if !e.nativeConnect() {
			e.logError(log.SeverityWarn, "native_command_failed",
				"error connecting to "+e.device.String())
			return
		}
		if e.policy.OkToConnect(e.device, false) {
			e.transitionTo(StateConnecting, ev)
		} else {
			e.logError(log.SeverityWarn, "admission_rejected",
				"outgoing connecting request rejected: "+e.device.String())
		}

	case TypeLocalDisconnect:
		// The stack may still hold a half-open link the upper layer never
		// saw; forward the disconnect and stay.
		e.nativeDisconnect()

	case TypeRemoteIndication:
		switch ev.Indication {
		case IndicationConnecting:
			if e.policy.OkToConnect(e.device, true) {
				e.transitionTo(StateConnecting, ev)
			} else {
				e.logError(log.SeverityWarn, "admission_rejected",
					"incoming connecting request rejected: "+e.device.String())
				e.nativeDisconnect()
			}
		case IndicationConnected:
			if e.policy.OkToConnect(e.device, true) {
				e.transitionTo(StateConnected, ev)
			} else {
				e.logError(log.SeverityWarn, "admission_rejected",
					"incoming connected request rejected: "+e.device.String())
				e.nativeDisconnect()
			}
		default:
			e.unexpected(ev)
		}

	default:
		e.unexpected(ev)
	}
}

func (e *Engine) processConnecting(ev Event) {
	switch ev.Type {
	case TypeLocalConnect:
		e.deferEvent(ev)

	case TypeLocalDisconnect:
		// Cancel the attempt.
		e.nativeDisconnect()
		e.transitionTo(StateDisconnected, ev)

	case TypeTimerFired:
		e.logTimer(log.TimerOpFire, ev.Timer, nil)
		e.logError(log.SeverityWarn, "timeout",
			"connecting timeout: "+e.device.String())
		e.nativeDisconnect()
		e.Submit(RemoteIndication(e.device, IndicationDisconnected))

	case TypeRemoteIndication:
		switch ev.Indication {
		case IndicationConnected:
			e.transitionTo(StateConnected, ev)
		case IndicationDisconnecting:
			// Collision: the peer changed its mind mid-attempt.
			e.transitionTo(StateDisconnecting, ev)
		case IndicationDisconnected:
			e.transitionTo(StateDisconnected, ev)
		default:
			e.unexpected(ev)
		}
	}
}

func (e *Engine) processDisconnecting(ev Event) {
	switch ev.Type {
	case TypeLocalConnect, TypeLocalDisconnect:
		e.deferEvent(ev)

	case TypeTimerFired:
		e.logTimer(log.TimerOpFire, ev.Timer, nil)
		e.logError(log.SeverityWarn, "timeout",
			"disconnecting timeout: "+e.device.String())
		e.nativeDisconnect()
		e.Submit(RemoteIndication(e.device, IndicationDisconnected))

	case TypeRemoteIndication:
		switch ev.Indication {
		case IndicationDisconnected:
			e.transitionTo(StateDisconnected, ev)
		case IndicationConnected:
			if e.policy.OkToConnect(e.device, true) {
				// Collision: the peer completed the link we were tearing down.
				e.transitionTo(StateConnected, ev)
			} else {
				e.logError(log.SeverityWarn, "admission_rejected",
					"incoming connected request rejected: "+e.device.String())
				e.nativeDisconnect()
			}
		case IndicationConnecting:
			if e.policy.OkToConnect(e.device, true) {
				// Collision: the peer is reconnecting before we finished.
				e.transitionTo(StateConnecting, ev)
			} else {
				e.logError(log.SeverityWarn, "admission_rejected",
					"incoming connecting request rejected: "+e.device.String())
				e.nativeDisconnect()
			}
		default:
			e.unexpected(ev)
		}
	}
}

func (e *Engine) processConnected(ev Event) {
	switch ev.Type {
	case TypeLocalConnect:
		e.logError(log.SeverityWarn, "unexpected_event",
			"connect ignored, already connected: "+e.device.String())

	case TypeLocalDisconnect:
		if !e.nativeDisconnect() {
			// Native rejection skips the Disconnecting wait entirely.
			e.logError(log.SeverityError, "native_command_failed",
				"error disconnecting from "+e.device.String())
			e.transitionTo(StateDisconnected, ev)
			return
		}
		e.transitionTo(StateDisconnecting, ev)

	case TypeRemoteIndication:
		switch ev.Indication {
		case IndicationDisconnected:
			e.transitionTo(StateDisconnected, ev)
		case IndicationDisconnecting:
			e.transitionTo(StateDisconnecting, ev)
		default:
			e.unexpected(ev)
		}

	default:
		e.unexpected(ev)
	}
}

// transitionTo commits a state change: exit actions, state swap, entry
// actions, extension hook, snapshot, broadcast, deferred replay.
func (e *Engine) transitionTo(next State, trigger Event) {
	prev := e.state
	leftTransient := prev.IsTransient()
	if leftTransient {
		e.disarmTimer()
	}

	e.state = next

	switch next {
	case StateConnecting:
		e.armTimer(TimerConnect, e.connectTimeout)
	case StateDisconnecting:
		e.armTimer(TimerDisconnect, e.disconnectTimeout)
	case StateConnected:
		e.clearDeferred(TypeLocalConnect)
	case StateDisconnected:
		e.clearDeferred(TypeLocalDisconnect)
	}

	if e.extension != nil {
		e.extension.OnEnter(next)
	}

	e.snapMu.Lock()
	e.snapState = next
	e.snapPrev = prev
	e.snapHasPrev = true
	e.snapMu.Unlock()

	e.logger.Log(log.Event{
		Timestamp: time.Now(),
		EngineID:  e.id,
		Device:    e.device.String(),
		Profile:   e.profile.String(),
		Severity:  log.SeverityInfo,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			From:    prev.String(),
			To:      next.String(),
			Trigger: trigger.String(),
		},
	})

	if e.notifier != nil {
		e.notifier.OnTransition(Transition{
			Device:  e.device,
			Profile: e.profile,
			From:    prev,
			To:      next,
		})
	}

	if leftTransient {
		e.replayDeferred()
	}

	if next == StateDisconnected {
		e.maybeCleanupEligible()
	}
}

// deferEvent queues an event for replay after the current transient state.
func (e *Engine) deferEvent(ev Event) {
	e.mu.Lock()
	e.deferred = append(e.deferred, ev)
	e.mu.Unlock()
}

// clearDeferred drops deferred events of the given type. Entering
// Connected obsoletes queued connect requests; entering Disconnected
// obsoletes queued disconnects.
func (e *Engine) clearDeferred(t Type) {
	e.mu.Lock()
	kept := e.deferred[:0]
	for _, ev := range e.deferred {
		if ev.Type != t {
			kept = append(kept, ev)
		}
	}
	e.deferred = kept
	e.mu.Unlock()
}

// replayDeferred moves the deferred queue, in original order, ahead of
// anything submitted afterward. Admission is re-evaluated when each event
// is processed, not cached from the deferral point.
func (e *Engine) replayDeferred() {
	e.mu.Lock()
	if len(e.deferred) > 0 {
		replay := make([]Event, 0, len(e.deferred)+len(e.pending))
		replay = append(replay, e.deferred...)
		replay = append(replay, e.pending...)
		e.pending = replay
		e.deferred = nil
	}
	e.mu.Unlock()
}

// maybeCleanupEligible reports the engine as destroyable once it has
// settled in Disconnected with nothing left to process.
func (e *Engine) maybeCleanupEligible() {
	if e.cleanupEligible == nil {
		return
	}
	e.mu.Lock()
	idle := len(e.pending) == 0 && len(e.deferred) == 0
	e.mu.Unlock()
	if idle {
		e.cleanupEligible(e.device)
	}
}

// armTimer starts the transient-state timer. At most one timer is pending;
// the epoch ties each fired event to the arm that created it, so a firing
// that raced a disarm is discarded.
func (e *Engine) armTimer(kind TimerKind, d time.Duration) {
	e.timerEpoch++
	e.timerKind = kind
	e.timerArmed = true
	epoch := e.timerEpoch
	e.timer = time.AfterFunc(d, func() {
		e.Submit(Event{Type: TypeTimerFired, Timer: kind, epoch: epoch})
	})
	e.logTimer(log.TimerOpArm, kind, &d)
}

// disarmTimer cancels any pending timer.
func (e *Engine) disarmTimer() {
	if !e.timerArmed {
		return
	}
	e.timerArmed = false
	e.timerEpoch++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.logTimer(log.TimerOpDisarm, e.timerKind, nil)
}

// nativeConnect forwards a connect to the native link and logs the result.
func (e *Engine) nativeConnect() bool {
	accepted := e.link.Connect(e.device)
	e.logNative("connect", accepted)
	return accepted
}

// nativeDisconnect forwards a disconnect to the native link and logs the result.
func (e *Engine) nativeDisconnect() bool {
	accepted := e.link.Disconnect(e.device)
	e.logNative("disconnect", accepted)
	return accepted
}

// unexpected logs and discards an indication inconsistent with the current
// state. No state change, no notification.
func (e *Engine) unexpected(ev Event) {
	e.logError(log.SeverityWarn, "unexpected_event",
		fmt.Sprintf("ignoring %s in %s: %s", ev, e.state, e.device))
}

func (e *Engine) logNative(op string, accepted bool) {
	e.logger.Log(log.Event{
		Timestamp:  time.Now(),
		EngineID:   e.id,
		Device:     e.device.String(),
		Profile:    e.profile.String(),
		Severity:   log.SeverityDebug,
		Category:   log.CategoryNative,
		NativeCall: &log.NativeCallEvent{Op: op, Accepted: accepted},
	})
}

func (e *Engine) logTimer(op log.TimerOp, kind TimerKind, d *time.Duration) {
	e.logger.Log(log.Event{
		Timestamp: time.Now(),
		EngineID:  e.id,
		Device:    e.device.String(),
		Profile:   e.profile.String(),
		Severity:  log.SeverityDebug,
		Category:  log.CategoryTimer,
		Timer:     &log.TimerEventData{Op: op, Kind: kind.String(), Duration: d},
	})
}

func (e *Engine) logError(sev log.Severity, kind, msg string) {
	e.logger.Log(log.Event{
		Timestamp: time.Now(),
		EngineID:  e.id,
		Device:    e.device.String(),
		Profile:   e.profile.String(),
		Severity:  sev,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Kind: kind, Message: msg, State: e.state.String()},
	})
}
