package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lanwatch/internal/logger"
)

// Source transports
const (
	TransportSNMP = "snmp"
	TransportSSH  = "ssh"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Polling  PollingConfig  `yaml:"polling"`
	Logging  logger.Config  `yaml:"logging"`
	Sources  SourcesConfig  `yaml:"sources"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds the API listener settings
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// PollingConfig holds the cycle schedule
type PollingConfig struct {
	Interval Duration `yaml:"interval"`
}

// SourcesConfig holds one block per source kind
type SourcesConfig struct {
	UniFi  UniFiSource  `yaml:"unifi"`
	Router RouterSource `yaml:"router"`
	LLDP   RouterSource `yaml:"lldp"`
	Sweep  SweepSource  `yaml:"sweep"`
}

// UniFiSource configures the wireless controller
type UniFiSource struct {
	Enabled            bool     `yaml:"enabled"`
	Controller         string   `yaml:"controller"`
	Username           string   `yaml:"username"`
	Password           string   `yaml:"password"`
	Site               string   `yaml:"site"`
	UniFiOS            bool     `yaml:"unifi_os"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
	Timeout            Duration `yaml:"timeout"`
}

// RouterSource configures a wired or neighbor source reached over SNMP or SSH
type RouterSource struct {
	Enabled   bool      `yaml:"enabled"`
	Transport string    `yaml:"transport"`
	Host      string    `yaml:"host"`
	Community string    `yaml:"community"`
	SNMPPort  uint16    `yaml:"snmp_port"`
	SSH       SSHConfig `yaml:"ssh"`
	Timeout   Duration  `yaml:"timeout"`
}

// SSHConfig holds console credentials
type SSHConfig struct {
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	KeyPath    string `yaml:"key_path"`
	Passphrase string `yaml:"passphrase"`
}

// SweepSource configures the nmap inventory sweep
type SweepSource struct {
	Enabled    bool     `yaml:"enabled"`
	Targets    []string `yaml:"targets"`
	Exclude    []string `yaml:"exclude"`
	Privileged *bool    `yaml:"privileged"`
	Timeout    Duration `yaml:"timeout"`
}

// MetricsConfig configures the metrics sink; an empty URL selects the log sink
type MetricsConfig struct {
	NATSURL       string `yaml:"nats_url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Duration wraps time.Duration for YAML. It accepts duration strings
// ("90s", "5m") and plain integers meaning seconds.
type Duration time.Duration

// ParseDuration parses a duration string or a number of seconds
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return Duration(time.Duration(secs) * time.Second), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return Duration(d), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
