package bluez

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
)

func TestDevicePath(t *testing.T) {
	l := &Link{adapter: "/org/bluez/hci0"}
	addr := device.MustParseAddress("00:11:22:33:44:55")

	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0/dev_00_11_22_33_44_55"), l.devicePath(addr))
}

func TestAddressFromPath(t *testing.T) {
	addr, err := addressFromPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")
	require.NoError(t, err)
	assert.Equal(t, device.MustParseAddress("AA:BB:CC:DD:EE:FF"), addr)

	_, err = addressFromPath("/org/bluez/hci0")
	assert.Error(t, err)

	_, err = addressFromPath("/org/bluez/hci0/dev_nope")
	assert.Error(t, err)
}

func TestHandleSignal_ConnectedChange(t *testing.T) {
	var (
		gotAddr device.Address
		gotInd  engine.Indication
		calls   int
	)
	l := &Link{
		adapter: "/org/bluez/hci0",
		sink: func(addr device.Address, ind engine.Indication) {
			gotAddr = addr
			gotInd = ind
			calls++
		},
	}

	l.handleSignal(&dbus.Signal{
		Path: "/org/bluez/hci0/dev_00_11_22_33_44_55",
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{
			"org.bluez.Device1",
			map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)},
			[]string{},
		},
	})

	require.Equal(t, 1, calls)
	assert.Equal(t, device.MustParseAddress("00:11:22:33:44:55"), gotAddr)
	assert.Equal(t, engine.IndicationConnected, gotInd)

	l.handleSignal(&dbus.Signal{
		Path: "/org/bluez/hci0/dev_00_11_22_33_44_55",
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{
			"org.bluez.Device1",
			map[string]dbus.Variant{"Connected": dbus.MakeVariant(false)},
			[]string{},
		},
	})

	require.Equal(t, 2, calls)
	assert.Equal(t, engine.IndicationDisconnected, gotInd)
}

func TestHandleSignal_IgnoresUnrelated(t *testing.T) {
	var calls int
	l := &Link{
		adapter: "/org/bluez/hci0",
		sink:    func(device.Address, engine.Indication) { calls++ },
	}

	// Different interface.
	l.handleSignal(&dbus.Signal{
		Path: "/org/bluez/hci0/dev_00_11_22_33_44_55",
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{
			"org.bluez.MediaControl1",
			map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)},
			[]string{},
		},
	})

	// No Connected property.
	l.handleSignal(&dbus.Signal{
		Path: "/org/bluez/hci0/dev_00_11_22_33_44_55",
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{
			"org.bluez.Device1",
			map[string]dbus.Variant{"RSSI": dbus.MakeVariant(int16(-40))},
			[]string{},
		},
	})

	// Path without a device component.
	l.handleSignal(&dbus.Signal{
		Path: "/org/bluez/hci0",
		Name: "org.freedesktop.DBus.Properties.PropertiesChanged",
		Body: []interface{}{
			"org.bluez.Device1",
			map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)},
			[]string{},
		},
	})

	assert.Zero(t, calls)
}
