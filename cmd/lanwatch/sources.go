package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"lanwatch/internal/adapter"
	"lanwatch/internal/config"
	"lanwatch/internal/core/bootstrap"
	"lanwatch/internal/domain"
)

// configureSources builds one source per enabled config block and installs
// them together. Disabled blocks clear their slot so a reload can turn a
// source off. On error the registry is left as it was.
func configureSources(reg *adapter.Registry, cfg config.SourcesConfig, host bootstrap.Report, logger zerolog.Logger) error {
	set, err := buildSources(cfg, host, logger)
	if err != nil {
		return err
	}
	reg.Replace(set)
	return nil
}

func buildSources(cfg config.SourcesConfig, host bootstrap.Report, logger zerolog.Logger) (adapter.Set, error) {
	set := adapter.Set{Timeouts: map[domain.SourceKind]time.Duration{
		domain.SourceWireless: cfg.UniFi.Timeout.Duration(),
		domain.SourceWired:    cfg.Router.Timeout.Duration(),
		domain.SourceNeighbor: cfg.LLDP.Timeout.Duration(),
		domain.SourceSweep:    cfg.Sweep.Timeout.Duration(),
	}}

	if cfg.UniFi.Enabled {
		u := cfg.UniFi
		set.Wireless = adapter.NewUniFiClient(adapter.UniFiConfig{
			Controller:         u.Controller,
			Username:           u.Username,
			Password:           u.Password,
			Site:               u.Site,
			UniFiOS:            u.UniFiOS,
			InsecureSkipVerify: u.InsecureSkipVerify,
			Timeout:            u.Timeout.Duration(),
		}, logger.With().Str("source", "unifi").Logger())
	}

	if cfg.Router.Enabled {
		ifaces, _, err := routerSource(cfg.Router, logger)
		if err != nil {
			return adapter.Set{}, fmt.Errorf("sources.router: %w", err)
		}
		set.Wired = ifaces
	}

	if cfg.LLDP.Enabled {
		_, nbrs, err := routerSource(cfg.LLDP, logger)
		if err != nil {
			return adapter.Set{}, fmt.Errorf("sources.lldp: %w", err)
		}
		set.Neighbors = nbrs
	}

	switch {
	case cfg.Sweep.Enabled && !host.HasNmap():
		logger.Warn().Msg("Sweep enabled but nmap is unavailable; skipping")
	case cfg.Sweep.Enabled:
		privileged := host.SweepPrivileged()
		if cfg.Sweep.Privileged != nil {
			privileged = *cfg.Sweep.Privileged
		}
		opts := []adapter.NmapOption{
			adapter.WithExcluded(cfg.Sweep.Exclude...),
			adapter.WithPrivileged(privileged),
		}
		n, err := adapter.NewNmapSweep(cfg.Sweep.Targets, logger.With().Str("source", "nmap").Logger(), opts...)
		if err != nil {
			return adapter.Set{}, fmt.Errorf("sources.sweep: %w", err)
		}
		set.Sweep = adapter.Named(n.Name(), n.Hosts)
	}

	return set, nil
}

// routerSource builds the interface and neighbor sources for one device
func routerSource(rc config.RouterSource, logger zerolog.Logger) (adapter.Source[domain.WiredInterface], adapter.Source[domain.NeighborRecord], error) {
	switch rc.Transport {
	case config.TransportSSH:
		var key string
		if rc.SSH.KeyPath != "" {
			data, err := os.ReadFile(rc.SSH.KeyPath)
			if err != nil {
				return nil, nil, fmt.Errorf("read ssh key: %w", err)
			}
			key = string(data)
		}
		sh := adapter.NewRouterOSShell(adapter.RouterOSConfig{
			Host:       rc.Host,
			Port:       rc.SSH.Port,
			Username:   rc.SSH.Username,
			Password:   rc.SSH.Password,
			PrivateKey: key,
			Passphrase: rc.SSH.Passphrase,
			Timeout:    rc.Timeout.Duration(),
		}, logger.With().Str("source", "routeros").Str("host", rc.Host).Logger())
		return adapter.Named(sh.Name(), sh.Interfaces), adapter.Named(sh.Name(), sh.Neighbors), nil

	case config.TransportSNMP:
		p := adapter.NewSNMPPoller(adapter.SNMPConfig{
			Target:    rc.Host,
			Port:      rc.SNMPPort,
			Community: rc.Community,
			Timeout:   rc.Timeout.Duration(),
		}, logger.With().Str("source", "snmp").Str("host", rc.Host).Logger())
		return adapter.Named(p.Name(), p.Interfaces), adapter.Named(p.Name(), p.Neighbors), nil
	}
	return nil, nil, fmt.Errorf("unknown transport %q", rc.Transport)
}
