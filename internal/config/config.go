// Package config loads the lanwatch configuration.
//
// Config file locations (priority order):
//  1. $LANWATCH_CONFIG
//  2. ./lanwatch.yaml
//  3. $XDG_CONFIG_HOME/lanwatch/config.yaml
//  4. ~/.config/lanwatch/config.yaml
//  5. /etc/lanwatch/config.yaml
//
// Environment variables override the file, and the file overrides defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lanwatch/internal/logger"
)

const (
	DefaultDatabasePath = "./lanwatch.db"
	DefaultHTTPAddr     = ":5000"
	DefaultPollInterval = 60 * time.Second
	DefaultTimeout      = 10 * time.Second
	DefaultSweepTimeout = 2 * time.Minute
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", cfg.Validate()
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, path, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes YAML and fills in defaults. It does not read the environment.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns the configuration used without a file
func DefaultConfig() *Config {
	cfg := &Config{
		Version:  1,
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		HTTP:     HTTPConfig{Addr: DefaultHTTPAddr},
		Polling:  PollingConfig{Interval: Duration(DefaultPollInterval)},
		Logging:  logger.DefaultConfig(),
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.Polling.Interval <= 0 {
		c.Polling.Interval = Duration(DefaultPollInterval)
	}

	s := &c.Sources
	if s.UniFi.Site == "" {
		s.UniFi.Site = "default"
	}
	if s.UniFi.Timeout <= 0 {
		s.UniFi.Timeout = Duration(DefaultTimeout)
	}
	for _, r := range []*RouterSource{&s.Router, &s.LLDP} {
		r.Transport = strings.ToLower(r.Transport)
		if r.Transport == "" {
			r.Transport = TransportSNMP
		}
		if r.Community == "" {
			r.Community = "public"
		}
		if r.SNMPPort == 0 {
			r.SNMPPort = 161
		}
		if r.SSH.Port == 0 {
			r.SSH.Port = 22
		}
		if r.Timeout <= 0 {
			r.Timeout = Duration(DefaultTimeout)
		}
	}
	if s.Sweep.Timeout <= 0 {
		s.Sweep.Timeout = Duration(DefaultSweepTimeout)
	}
}

// Validate rejects settings that cannot work
func (c *Config) Validate() error {
	var errs []error

	s := c.Sources
	if s.UniFi.Enabled && s.UniFi.Controller == "" {
		errs = append(errs, errors.New("sources.unifi: controller is required"))
	}
	for name, r := range map[string]RouterSource{"router": s.Router, "lldp": s.LLDP} {
		if !r.Enabled {
			continue
		}
		if r.Host == "" {
			errs = append(errs, fmt.Errorf("sources.%s: host is required", name))
		}
		if r.Transport != TransportSNMP && r.Transport != TransportSSH {
			errs = append(errs, fmt.Errorf("sources.%s: unknown transport %q", name, r.Transport))
		}
	}
	if s.Sweep.Enabled && len(s.Sweep.Targets) == 0 {
		errs = append(errs, errors.New("sources.sweep: at least one target is required"))
	}

	return errors.Join(errs...)
}
