package domain

import "strings"

// InterfaceKind tags how a device is attached to the network
type InterfaceKind string

const (
	InterfaceWireless InterfaceKind = "wireless"
	InterfaceWired    InterfaceKind = "wired"
	InterfaceUnknown  InterfaceKind = "unknown"
)

// SourceKind identifies which kind of adapter produced a record
type SourceKind string

const (
	SourceWireless SourceKind = "wireless"
	SourceWired    SourceKind = "wired"
	SourceNeighbor SourceKind = "neighbor"
	SourceSweep    SourceKind = "sweep"
)

// Record is the uniform device record consumed by the normalizer and the
// device registry. Raw adapter output and normalized output share this shape.
type Record struct {
	MAC           string        `json:"mac"`
	Hostname      string        `json:"hostname,omitempty"`
	APMAC         string        `json:"ap_mac,omitempty"`
	SwitchMAC     string        `json:"switch_mac,omitempty"`
	IP            string        `json:"ip,omitempty"`
	RxBytes       int64         `json:"rx_bytes"`
	TxBytes       int64         `json:"tx_bytes"`
	InterfaceKind InterfaceKind `json:"interface_kind,omitempty"`
}

// WirelessClient is a station reported by the wireless controller
type WirelessClient struct {
	MAC      string `json:"mac"`
	Hostname string `json:"hostname,omitempty"`
	APMAC    string `json:"ap_mac,omitempty"`
	IP       string `json:"ip,omitempty"`
	RxBytes  int64  `json:"rx_bytes"`
	TxBytes  int64  `json:"tx_bytes"`
}

// Record converts the client to the uniform record shape
func (c WirelessClient) Record() Record {
	return Record{
		MAC:           c.MAC,
		Hostname:      c.Hostname,
		APMAC:         c.APMAC,
		IP:            c.IP,
		RxBytes:       c.RxBytes,
		TxBytes:       c.TxBytes,
		InterfaceKind: InterfaceWireless,
	}
}

// WiredInterface is a router interface with its traffic counters
type WiredInterface struct {
	MAC     string `json:"mac"`
	Name    string `json:"name,omitempty"`
	RxBytes int64  `json:"rx_bytes"`
	TxBytes int64  `json:"tx_bytes"`
}

// Record converts the interface to the uniform record shape.
// The interface name is not a hostname and is not carried over.
func (i WiredInterface) Record() Record {
	return Record{
		MAC:           i.MAC,
		RxBytes:       i.RxBytes,
		TxBytes:       i.TxBytes,
		InterfaceKind: InterfaceWired,
	}
}

// NeighborRecord is one adjacency reported by neighbor discovery
type NeighborRecord struct {
	LocalMAC     string `json:"local_mac"`
	NeighborMAC  string `json:"neighbor_mac"`
	NeighborName string `json:"neighbor_name,omitempty"`
	Port         string `json:"port,omitempty"`
}

// SweepHost is a live host found by an active sweep of the local network
type SweepHost struct {
	MAC      string `json:"mac"`
	IP       string `json:"ip,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// Record converts the host to the uniform record shape
func (h SweepHost) Record() Record {
	return Record{
		MAC:      h.MAC,
		IP:       h.IP,
		Hostname: h.Hostname,
	}
}

// CanonicalMAC trims and lowercases a hardware address.
// Separators are left as reported.
func CanonicalMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}
