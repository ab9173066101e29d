package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"lanwatch/internal/domain"
)

// NmapSweep finds live hosts with an nmap ping sweep. MAC addresses are only
// reported for hosts on a directly attached segment, so hosts without one
// are dropped.
type NmapSweep struct {
	targets    []string
	excluded   []string
	privileged bool
	aggressive bool
	logger     zerolog.Logger
	run        func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, error)
}

// NewNmapSweep creates a sweep over the given CIDR ranges or addresses
func NewNmapSweep(targets []string, logger zerolog.Logger, opts ...NmapOption) (*NmapSweep, error) {
	expanded, err := expandTargets(targets)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, errors.New("nmap: no sweep targets configured")
	}

	sweep := &NmapSweep{
		targets:    expanded,
		privileged: true,
		aggressive: true,
		logger:     logger,
		run:        runNmap,
	}
	for _, opt := range opts {
		opt(sweep)
	}
	return sweep, nil
}

// Name returns the source identifier
func (n *NmapSweep) Name() string {
	return "nmap"
}

// Hosts runs one ping sweep over all targets
func (n *NmapSweep) Hosts(ctx context.Context) ([]domain.SweepHost, error) {
	opts := []nmap.Option{
		nmap.WithTargets(n.targets...),
		nmap.WithPingScan(),
	}
	if len(n.excluded) > 0 {
		opts = append(opts, nmap.WithTargetExclusions(n.excluded...))
	}
	if n.privileged {
		opts = append(opts, nmap.WithPrivileged())
	}
	if n.aggressive {
		opts = append(opts, nmap.WithTimingTemplate(nmap.TimingAggressive))
	}

	n.logger.Debug().Strs("targets", n.targets).Msg("Starting nmap sweep")
	result, err := n.run(ctx, opts...)
	if err != nil {
		return nil, err
	}

	hosts := hostsFromRun(result)
	n.logger.Debug().Int("hosts", len(hosts)).Msg("Nmap sweep complete")
	return hosts, nil
}

func runNmap(ctx context.Context, opts ...nmap.Option) (*nmap.Run, error) {
	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		if warnings != nil && len(*warnings) > 0 {
			return nil, fmt.Errorf("sweep failed: %w (warnings: %s)", err, strings.Join(*warnings, "; "))
		}
		return nil, fmt.Errorf("sweep failed: %w", err)
	}
	return result, nil
}

// hostsFromRun keeps live hosts that reported a hardware address
func hostsFromRun(result *nmap.Run) []domain.SweepHost {
	if result == nil {
		return []domain.SweepHost{}
	}

	hosts := make([]domain.SweepHost, 0, len(result.Hosts))
	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}

		var h domain.SweepHost
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "mac":
				h.MAC = addr.Addr
			case "ipv4":
				if h.IP == "" {
					h.IP = addr.Addr
				}
			}
		}
		if h.MAC == "" {
			continue
		}

		if len(host.Hostnames) > 0 {
			h.Hostname = strings.TrimSuffix(host.Hostnames[0].Name, ".")
		}
		hosts = append(hosts, h)
	}
	return hosts
}

// expandTargets validates CIDR targets; nmap handles the expansion itself
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, ipNet.String())
			continue
		}
		expanded = append(expanded, target)
	}
	return expanded, nil
}
