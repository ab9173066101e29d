package config

import (
	"fmt"
	"os"

	"lanwatch/internal/logger"
)

// ApplyEnv overrides settings from the environment
func (c *Config) ApplyEnv() error {
	setString(&c.Database.Path, "LANWATCH_DB_PATH")
	setString(&c.HTTP.Addr, "LANWATCH_HTTP_ADDR")

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := ParseDuration(v)
		if err != nil || d == 0 {
			return fmt.Errorf("POLL_INTERVAL: invalid interval %q", v)
		}
		c.Polling.Interval = d
	}

	u := &c.Sources.UniFi
	if setString(&u.Controller, "UNIFI_CONTROLLER") {
		u.Enabled = true
	}
	setString(&u.Username, "UNIFI_USER")
	setString(&u.Password, "UNIFI_PASS")

	for _, r := range []*RouterSource{&c.Sources.Router, &c.Sources.LLDP} {
		if setString(&r.Host, "MIKROTIK_HOST") {
			r.Enabled = true
		}
		setString(&r.SSH.Username, "MIKROTIK_USER")
		setString(&r.SSH.Password, "MIKROTIK_PASS")
		setString(&r.Community, "SNMP_COMMUNITY")
	}

	setString(&c.Metrics.NATSURL, "NATS_URL")

	c.Logging = logger.ApplyEnv(c.Logging)
	return nil
}

func setString(dst *string, key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false
	}
	*dst = v
	return true
}
