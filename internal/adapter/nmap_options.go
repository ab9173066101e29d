package adapter

// NmapOption is a functional option for configuring NmapSweep
type NmapOption func(*NmapSweep)

// WithExcluded skips the given addresses, e.g. the poller's own host
func WithExcluded(targets ...string) NmapOption {
	return func(n *NmapSweep) {
		n.excluded = append(n.excluded, targets...)
	}
}

// WithPrivileged controls whether nmap assumes raw socket access. ARP
// discovery, and with it MAC reporting, needs privileges.
func WithPrivileged(enabled bool) NmapOption {
	return func(n *NmapSweep) {
		n.privileged = enabled
	}
}

// WithPoliteTiming drops the aggressive timing template (-T4)
func WithPoliteTiming() NmapOption {
	return func(n *NmapSweep) {
		n.aggressive = false
	}
}
