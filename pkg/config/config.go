// Package config loads the host stack configuration from YAML: per-profile
// timeout overrides, seeded admission policy entries, the event log path
// and the observer listen address.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/policy"
	"github.com/bthost-project/bthost-go/pkg/profile"
)

// Duration wraps time.Duration with YAML decoding from strings like "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ProfileConfig overrides per-profile timing.
type ProfileConfig struct {
	ConnectTimeout    Duration `yaml:"connect_timeout"`
	DisconnectTimeout Duration `yaml:"disconnect_timeout"`
}

// PolicyEntry seeds the admission policy for one device.
type PolicyEntry struct {
	Device string `yaml:"device"`
	Access string `yaml:"access"`
}

// Config is the top-level host stack configuration.
type Config struct {
	// LogFile is the CBOR event log path. Empty disables file logging.
	LogFile string `yaml:"log_file"`

	// ObserverListen is the websocket observer listen address.
	// Empty disables the observer endpoint.
	ObserverListen string `yaml:"observer_listen"`

	// MaxDevices caps the number of tracked devices per profile.
	// Zero selects the service default.
	MaxDevices int `yaml:"max_devices"`

	// Profiles holds per-profile timing overrides keyed by profile name.
	Profiles map[string]ProfileConfig `yaml:"profiles"`

	// Policy seeds the admission table.
	Policy []PolicyEntry `yaml:"policy"`
}

// Parse parses and validates a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxDevices < 0 {
		return fmt.Errorf("max_devices must not be negative, got %d", c.MaxDevices)
	}
	for name, pc := range c.Profiles {
		if _, err := profile.Parse(name); err != nil {
			return err
		}
		if pc.ConnectTimeout < 0 || pc.DisconnectTimeout < 0 {
			return fmt.Errorf("profile %s: timeouts must not be negative", name)
		}
	}
	for _, entry := range c.Policy {
		if _, err := device.ParseAddress(entry.Device); err != nil {
			return fmt.Errorf("policy entry %q: %w", entry.Device, err)
		}
		if _, err := parseAccess(entry.Access); err != nil {
			return fmt.Errorf("policy entry %q: %w", entry.Device, err)
		}
	}
	return nil
}

// Timeouts returns the configured connect and disconnect timeouts for a
// profile. Zero values mean the profile default applies.
func (c *Config) Timeouts(id profile.ID) (connect, disconnect time.Duration) {
	pc, ok := c.Profiles[id.String()]
	if !ok {
		return 0, 0
	}
	return pc.ConnectTimeout.Std(), pc.DisconnectTimeout.Std()
}

// SeedPolicy applies all policy entries to the table. The configuration
// must have passed validation; malformed entries are skipped.
func (c *Config) SeedPolicy(table *policy.Table) {
	for _, entry := range c.Policy {
		addr, err := device.ParseAddress(entry.Device)
		if err != nil {
			continue
		}
		v, err := parseAccess(entry.Access)
		if err != nil {
			continue
		}
		table.Set(addr, v)
	}
}

func parseAccess(s string) (policy.Value, error) {
	switch s {
	case "allowed":
		return policy.Allowed, nil
	case "forbidden":
		return policy.Forbidden, nil
	case "unknown", "":
		return policy.Unknown, nil
	default:
		return 0, fmt.Errorf("invalid access value %q", s)
	}
}
