package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"lanwatch/internal/domain"
)

// RouterOS console commands. Terse output prints one item per line as
// key=value pairs.
const (
	cmdInterfaces     = "/interface print terse without-paging"
	cmdInterfaceStats = "/interface print stats terse without-paging"
	cmdNeighbors      = "/ip neighbor print terse without-paging"
)

// RouterOSConfig holds the SSH settings for a MikroTik router
type RouterOSConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	PrivateKey string // PEM encoded; takes precedence over Password
	Passphrase string
	Timeout    time.Duration
}

// RouterOSShell reads interfaces and neighbors over the RouterOS console
type RouterOSShell struct {
	cfg    RouterOSConfig
	logger zerolog.Logger
	exec   func(ctx context.Context, cmds ...string) ([]string, error)
}

// NewRouterOSShell creates a shell adapter for one router
func NewRouterOSShell(cfg RouterOSConfig, logger zerolog.Logger) *RouterOSShell {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	s := &RouterOSShell{cfg: cfg, logger: logger}
	s.exec = s.runCommands
	return s
}

// Name returns the source identifier
func (s *RouterOSShell) Name() string {
	return "routeros:" + s.cfg.Host
}

// Interfaces returns every interface with its MAC and byte counters
func (s *RouterOSShell) Interfaces(ctx context.Context) ([]domain.WiredInterface, error) {
	out, err := s.exec(ctx, cmdInterfaces, cmdInterfaceStats)
	if err != nil {
		return nil, err
	}
	ifaces := parseInterfaceListing(out[0], out[1])
	s.logger.Debug().Str("host", s.cfg.Host).Int("interfaces", len(ifaces)).Msg("RouterOS interfaces read")
	return ifaces, nil
}

// Neighbors returns the router's discovery neighbors. The local side of each
// adjacency is the MAC of the interface the neighbor was seen on.
func (s *RouterOSShell) Neighbors(ctx context.Context) ([]domain.NeighborRecord, error) {
	out, err := s.exec(ctx, cmdInterfaces, cmdNeighbors)
	if err != nil {
		return nil, err
	}
	neighbors := parseNeighborListing(out[0], out[1])
	s.logger.Debug().Str("host", s.cfg.Host).Int("neighbors", len(neighbors)).Msg("RouterOS neighbors read")
	return neighbors, nil
}

func parseInterfaceListing(listing, stats string) []domain.WiredInterface {
	counters := make(map[string][2]int64)
	for _, item := range parseTerse(stats) {
		counters[item["name"]] = [2]int64{parseCounter(item["rx-byte"]), parseCounter(item["tx-byte"])}
	}

	items := parseTerse(listing)
	ifaces := make([]domain.WiredInterface, 0, len(items))
	for _, item := range items {
		if item["mac-address"] == "" {
			continue
		}
		c := counters[item["name"]]
		ifaces = append(ifaces, domain.WiredInterface{
			MAC:     item["mac-address"],
			Name:    item["name"],
			RxBytes: c[0],
			TxBytes: c[1],
		})
	}
	return ifaces
}

func parseNeighborListing(listing, neighbors string) []domain.NeighborRecord {
	macByName := make(map[string]string)
	for _, item := range parseTerse(listing) {
		macByName[item["name"]] = item["mac-address"]
	}

	items := parseTerse(neighbors)
	records := make([]domain.NeighborRecord, 0, len(items))
	for _, item := range items {
		// bridged neighbors report "bridge,ether2"; the last element is the port
		ports := strings.Split(item["interface"], ",")
		port := ports[len(ports)-1]

		localMAC := ""
		for _, name := range ports {
			if mac := macByName[name]; mac != "" {
				localMAC = mac
				break
			}
		}

		name := item["identity"]
		if name == "" {
			name = item["platform"]
		}

		records = append(records, domain.NeighborRecord{
			LocalMAC:     localMAC,
			NeighborMAC:  item["mac-address"],
			NeighborName: name,
			Port:         port,
		})
	}
	return records
}

// parseTerse splits terse console output into one map per item. Leading
// tokens without '=' (item numbers and flags) are skipped; quoted values may
// contain spaces.
func parseTerse(output string) []map[string]string {
	var items []map[string]string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Flags:") || strings.HasPrefix(line, "#") {
			continue
		}

		item := make(map[string]string)
		for _, token := range splitTerseTokens(line) {
			key, value, ok := strings.Cut(token, "=")
			if !ok {
				continue
			}
			item[key] = strings.Trim(value, `"`)
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}

func splitTerseTokens(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case r == ' ' && !quoted:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func parseCounter(v string) int64 {
	n, err := strconv.ParseInt(strings.ReplaceAll(v, " ", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// runCommands opens one connection and runs each command in its own session
func (s *RouterOSShell) runCommands(ctx context.Context, cmds ...string) ([]string, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	// unblocks NewSession and reads on a peer that stops answering
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	outputs := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		out, err := s.runCommand(ctx, client, cmd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (s *RouterOSShell) connect(ctx context.Context) (*ssh.Client, error) {
	config, err := s.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	// ClientConfig.Timeout only covers ssh.Dial; bound the handshake here
	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	stop()
	if err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ssh handshake with %s: %w", addr, ctx.Err())
		}
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (s *RouterOSShell) clientConfig() (*ssh.ClientConfig, error) {
	if s.cfg.Username == "" {
		return nil, errors.New("routeros: username is required")
	}

	var auth ssh.AuthMethod
	switch {
	case s.cfg.PrivateKey != "":
		var (
			signer ssh.Signer
			err    error
		)
		if s.cfg.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(s.cfg.PrivateKey), []byte(s.cfg.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(s.cfg.PrivateKey))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = ssh.PublicKeys(signer)
	case s.cfg.Password != "":
		auth = ssh.Password(s.cfg.Password)
	default:
		return nil, errors.New("routeros: password or private key is required")
	}

	return &ssh.ClientConfig{
		User:            s.cfg.Username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // routers are addressed by configured IP
		Timeout:         s.cfg.Timeout,
	}, nil
}

func (s *RouterOSShell) runCommand(ctx context.Context, client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.Output(cmd)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("command failed: %w", r.err)
		}
		return string(r.out), nil
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	}
}
