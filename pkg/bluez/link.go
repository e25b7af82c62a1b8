// Package bluez adapts the BlueZ D-Bus API to the connection engine's
// native link boundary. Connect and Disconnect are issued asynchronously
// against org.bluez.Device1 objects; Connected property changes are
// translated into remote indications.
package bluez

import (
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
)

const (
	bluezBus        = "org.bluez"
	deviceInterface = "org.bluez.Device1"
	propsInterface  = "org.freedesktop.DBus.Properties"
)

// IndicationSink receives remote indications derived from BlueZ signals.
type IndicationSink func(addr device.Address, ind engine.Indication)

// Link is an engine.NativeLink backed by a BlueZ adapter.
type Link struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath
	sink    IndicationSink

	signals chan *dbus.Signal
	done    chan struct{}
	once    sync.Once
}

var _ engine.NativeLink = (*Link)(nil)

// NewLink connects to the system bus and watches the given adapter,
// "hci0" being the usual choice. Indications are delivered on the sink
// from a dedicated goroutine.
func NewLink(adapter string, sink IndicationSink) (*Link, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system D-Bus: %w", err)
	}
	return NewLinkWithConn(conn, adapter, sink)
}

// NewLinkWithConn wraps an existing bus connection. The caller keeps
// ownership of the connection.
func NewLinkWithConn(conn *dbus.Conn, adapter string, sink IndicationSink) (*Link, error) {
	l := &Link{
		conn:    conn,
		adapter: dbus.ObjectPath("/org/bluez/" + adapter),
		sink:    sink,
		signals: make(chan *dbus.Signal, 32),
		done:    make(chan struct{}),
	}

	err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, deviceInterface),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to device signals: %w", err)
	}

	conn.Signal(l.signals)
	go l.watch()
	return l, nil
}

// Connect issues org.bluez.Device1.Connect. The call is asynchronous;
// a failed call surfaces as a Disconnected indication so the engine's
// transient state resolves without waiting for the timeout.
func (l *Link) Connect(addr device.Address) bool {
	obj := l.conn.Object(bluezBus, l.devicePath(addr))
	ch := make(chan *dbus.Call, 1)
	obj.Go(deviceInterface+".Connect", 0, ch)

	go func() {
		call := <-ch
		if call.Err != nil && l.sink != nil {
			l.sink(addr, engine.IndicationDisconnected)
		}
	}()
	return true
}

// Disconnect issues org.bluez.Device1.Disconnect. The outcome arrives as
// a Connected property change.
func (l *Link) Disconnect(addr device.Address) bool {
	obj := l.conn.Object(bluezBus, l.devicePath(addr))
	obj.Go(deviceInterface+".Disconnect", 0, make(chan *dbus.Call, 1))
	return true
}

// Close stops signal delivery. The bus connection itself is left open.
func (l *Link) Close() {
	l.once.Do(func() {
		close(l.done)
		l.conn.RemoveSignal(l.signals)
	})
}

func (l *Link) watch() {
	for {
		select {
		case sig, ok := <-l.signals:
			if !ok {
				return
			}
			l.handleSignal(sig)
		case <-l.done:
			return
		}
	}
}

func (l *Link) handleSignal(sig *dbus.Signal) {
	if sig.Name != propsInterface+".PropertiesChanged" || len(sig.Body) < 2 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != deviceInterface {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}
	variant, ok := changed["Connected"]
	if !ok {
		return
	}
	connected, ok := variant.Value().(bool)
	if !ok {
		return
	}
	addr, err := addressFromPath(sig.Path)
	if err != nil {
		return
	}

	if l.sink != nil {
		if connected {
			l.sink(addr, engine.IndicationConnected)
		} else {
			l.sink(addr, engine.IndicationDisconnected)
		}
	}
}

// devicePath maps an address to its BlueZ object path under the adapter.
func (l *Link) devicePath(addr device.Address) dbus.ObjectPath {
	suffix := strings.ReplaceAll(addr.String(), ":", "_")
	return dbus.ObjectPath(string(l.adapter) + "/dev_" + suffix)
}

// addressFromPath recovers the device address from a BlueZ object path
// like /org/bluez/hci0/dev_00_11_22_33_44_55.
func addressFromPath(path dbus.ObjectPath) (device.Address, error) {
	s := string(path)
	idx := strings.LastIndex(s, "/dev_")
	if idx < 0 {
		return device.Address{}, fmt.Errorf("not a device path: %s", s)
	}
	raw := strings.ReplaceAll(s[idx+len("/dev_"):], "_", ":")
	return device.ParseAddress(raw)
}
