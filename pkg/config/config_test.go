package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/policy"
	"github.com/bthost-project/bthost-go/pkg/profile"
)

const sampleYAML = `
log_file: /var/log/bthost/events.cbor
observer_listen: ":8585"
max_devices: 16
profiles:
  A2DP_SINK:
    connect_timeout: 5s
    disconnect_timeout: 8s
policy:
  - device: "00:11:22:33:44:55"
    access: allowed
  - device: "AA:BB:CC:DD:EE:FF"
    access: forbidden
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/var/log/bthost/events.cbor", cfg.LogFile)
	assert.Equal(t, ":8585", cfg.ObserverListen)
	assert.Equal(t, 16, cfg.MaxDevices)

	connect, disconnect := cfg.Timeouts(profile.A2DPSink)
	assert.Equal(t, 5*time.Second, connect)
	assert.Equal(t, 8*time.Second, disconnect)

	connect, disconnect = cfg.Timeouts(profile.HearingAid)
	assert.Zero(t, connect)
	assert.Zero(t, disconnect)
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", ":\n-"},
		{"unknown profile", "profiles:\n  OBEX:\n    connect_timeout: 5s"},
		{"bad duration", "profiles:\n  A2DP_SINK:\n    connect_timeout: fast"},
		{"bad address", "policy:\n  - device: nope\n    access: allowed"},
		{"bad access", "policy:\n  - device: \"00:11:22:33:44:55\"\n    access: maybe"},
		{"negative max", "max_devices: -1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bthost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.MaxDevices)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedPolicy(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	table := policy.NewTable()
	cfg.SeedPolicy(table)

	allowed := device.MustParseAddress("00:11:22:33:44:55")
	forbidden := device.MustParseAddress("AA:BB:CC:DD:EE:FF")
	assert.Equal(t, policy.Allowed, table.Get(allowed))
	assert.Equal(t, policy.Forbidden, table.Get(forbidden))
}
