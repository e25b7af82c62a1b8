package main

import (
	"sync"
	"time"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
	"github.com/bthost-project/bthost-go/pkg/vc"
)

// simLink simulates the native transport. When auto-respond is on, an
// accepted connect or disconnect produces the matching indication after a
// short delay, as a cooperative remote would.
type simLink struct {
	mu          sync.Mutex
	sink        func(addr device.Address, ind engine.Indication)
	delay       time.Duration
	autoRespond bool
	refuse      bool
}

func newSimLink(delay time.Duration) *simLink {
	return &simLink{delay: delay, autoRespond: true}
}

// setSink wires responses to the owning service. Must be called before
// the first command.
func (l *simLink) setSink(sink func(addr device.Address, ind engine.Indication)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

func (l *simLink) setAutoRespond(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoRespond = on
}

func (l *simLink) setRefuse(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refuse = on
}

func (l *simLink) Connect(addr device.Address) bool {
	return l.respond(addr, engine.IndicationConnected)
}

func (l *simLink) Disconnect(addr device.Address) bool {
	return l.respond(addr, engine.IndicationDisconnected)
}

func (l *simLink) respond(addr device.Address, ind engine.Indication) bool {
	l.mu.Lock()
	refuse, auto, sink, delay := l.refuse, l.autoRespond, l.sink, l.delay
	l.mu.Unlock()

	if refuse {
		return false
	}
	if auto && sink != nil {
		time.AfterFunc(delay, func() { sink(addr, ind) })
	}
	return true
}

// simVolumeLink prints volume pushes through the console writer.
type simVolumeLink struct {
	mu     sync.Mutex
	printf func(format string, args ...interface{})
}

var _ vc.Link = (*simVolumeLink)(nil)

func (l *simVolumeLink) setPrintf(printf func(format string, args ...interface{})) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.printf = printf
}

func (l *simVolumeLink) SetVolume(addr device.Address, volume uint8) bool {
	l.emit("volume -> %s: %d", addr, volume)
	return true
}

func (l *simVolumeLink) SetMute(addr device.Address, muted bool) bool {
	l.emit("mute -> %s: %t", addr, muted)
	return true
}

func (l *simVolumeLink) emit(format string, args ...interface{}) {
	l.mu.Lock()
	printf := l.printf
	l.mu.Unlock()
	if printf != nil {
		printf(format, args...)
	}
}
