// Package bootstrap inspects the host at startup to decide how the
// sweep source can run.
package bootstrap

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Report describes what the process may do on this host
type Report struct {
	EUID        int      `json:"euid"`
	IsRoot      bool     `json:"is_root"`
	RawSocket   bool     `json:"raw_socket"`
	NmapPath    string   `json:"nmap_path,omitempty"`
	NmapVersion string   `json:"nmap_version,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// HasNmap reports whether an nmap binary was found and answered
func (r Report) HasNmap() bool {
	return r.NmapPath != "" && r.NmapVersion != ""
}

// SweepPrivileged reports whether nmap can send raw ARP/ICMP packets.
// Unprivileged sweeps fall back to TCP connect pings and cannot see MACs.
func (r Report) SweepPrivileged() bool {
	return r.IsRoot || r.RawSocket
}

// checks are swapped out in tests
type checks struct {
	euid      func() int
	rawSocket func() bool
	lookPath  func(string) (string, error)
	version   func(ctx context.Context, path string) (string, error)
}

var hostChecks = checks{
	euid:      os.Geteuid,
	rawSocket: canOpenRawSocket,
	lookPath:  exec.LookPath,
	version:   nmapVersion,
}

// Run inspects the host. It never fails; missing capabilities become warnings.
func Run(ctx context.Context, logger zerolog.Logger) Report {
	return run(ctx, hostChecks, logger)
}

func run(ctx context.Context, p checks, logger zerolog.Logger) Report {
	start := time.Now()

	r := Report{EUID: p.euid()}
	r.IsRoot = r.EUID == 0
	r.RawSocket = p.rawSocket()

	if path, err := p.lookPath("nmap"); err == nil {
		r.NmapPath = path
		vctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		v, err := p.version(vctx, path)
		cancel()
		if err != nil {
			r.Warnings = append(r.Warnings, "nmap --version failed: "+err.Error())
		}
		r.NmapVersion = v
	} else {
		r.Warnings = append(r.Warnings, "nmap not in PATH; sweep source unavailable")
	}

	if !r.SweepPrivileged() {
		r.Warnings = append(r.Warnings, "no raw socket access; sweep will run unprivileged and report no MAC addresses")
	}

	logger.Info().
		Bool("root", r.IsRoot).
		Bool("raw_socket", r.RawSocket).
		Str("nmap", r.NmapVersion).
		Dur("took", time.Since(start)).
		Msg("Bootstrap complete")
	for _, w := range r.Warnings {
		logger.Warn().Msg(w)
	}
	return r
}

// canOpenRawSocket needs CAP_NET_RAW or root
func canOpenRawSocket() bool {
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_ICMP)
	if err != nil {
		return false
	}
	syscall.Close(fd)
	return true
}

func nmapVersion(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0]), nil
}
