package adapter

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog"

	"lanwatch/internal/domain"
)

// IF-MIB and LLDP-MIB objects
const (
	oidIfPhysAddress = ".1.3.6.1.2.1.2.2.1.6"
	oidIfName        = ".1.3.6.1.2.1.31.1.1.1.1"
	oidIfHCInOctets  = ".1.3.6.1.2.1.31.1.1.1.6"
	oidIfHCOutOctets = ".1.3.6.1.2.1.31.1.1.1.10"

	oidLLDPLocalSystem = ".1.0.8802.1.1.2.1.3"
	oidLLDPLocChassisSubtype = ".1.0.8802.1.1.2.1.3.1.0"
	oidLLDPLocChassis        = ".1.0.8802.1.1.2.1.3.2.0"
	oidLLDPLocPortSubtype    = ".1.0.8802.1.1.2.1.3.7.1.2"
	oidLLDPLocPortID         = ".1.0.8802.1.1.2.1.3.7.1.3"
	oidLLDPRemTable          = ".1.0.8802.1.1.2.1.4.1.1"

	lldpRemChassisSubtype = "4"
	lldpRemChassisID      = "5"
	lldpRemPortSubtype    = "6"
	lldpRemPortID         = "7"
	lldpRemPortDesc       = "8"
	lldpRemSysName        = "9"

	// LldpChassisIdSubtype and LldpPortIdSubtype values for macAddress
	chassisSubtypeMAC = 4
	portSubtypeMAC    = 3

	// .1.0.8802.1.1.2.1.4.1.1.X.timeMark.localPort.index
	lldpRemOIDParts = 15

	macByteLength = 6
)

// SNMPConfig holds the SNMP v2c agent settings
type SNMPConfig struct {
	Target    string
	Port      uint16
	Community string
	Timeout   time.Duration
	Retries   int
}

// snmpSession is the subset of gosnmp used by the poller
type snmpSession interface {
	BulkWalk(rootOid string, walkFn gosnmp.WalkFunc) error
	Close() error
}

type gosnmpSession struct {
	*gosnmp.GoSNMP
}

func (s gosnmpSession) Close() error {
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}

// SNMPPoller reads interface counters from IF-MIB and neighbors from LLDP-MIB
type SNMPPoller struct {
	cfg    SNMPConfig
	logger zerolog.Logger
	dial   func(ctx context.Context) (snmpSession, error)
}

// NewSNMPPoller creates a poller for one agent
func NewSNMPPoller(cfg SNMPConfig, logger zerolog.Logger) *SNMPPoller {
	if cfg.Port == 0 {
		cfg.Port = 161
	}
	if cfg.Community == "" {
		cfg.Community = "public"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 2
	}

	p := &SNMPPoller{cfg: cfg, logger: logger}
	p.dial = p.connect
	return p
}

// Name returns the source identifier
func (p *SNMPPoller) Name() string {
	return "snmp:" + p.cfg.Target
}

func (p *SNMPPoller) connect(ctx context.Context) (snmpSession, error) {
	client := &gosnmp.GoSNMP{
		Target:             p.cfg.Target,
		Port:               p.cfg.Port,
		Community:          p.cfg.Community,
		Version:            gosnmp.Version2c,
		Timeout:            p.cfg.Timeout,
		Retries:            p.cfg.Retries,
		ExponentialTimeout: true,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     10,
		Context:            ctx,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to SNMP agent %s: %w", p.cfg.Target, err)
	}
	return gosnmpSession{client}, nil
}

// Interfaces walks IF-MIB and returns one record per interface that has a
// hardware address
func (p *SNMPPoller) Interfaces(ctx context.Context) ([]domain.WiredInterface, error) {
	session, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	var pdus []gosnmp.SnmpPDU
	for _, root := range []string{oidIfName, oidIfPhysAddress, oidIfHCInOctets, oidIfHCOutOctets} {
		walked, err := walk(session, root)
		if err != nil {
			return nil, err
		}
		pdus = append(pdus, walked...)
	}

	ifaces := parseInterfaces(pdus)
	p.logger.Debug().Str("target", p.cfg.Target).Int("interfaces", len(ifaces)).Msg("SNMP interfaces walked")
	return ifaces, nil
}

// Neighbors walks the LLDP local and remote tables
func (p *SNMPPoller) Neighbors(ctx context.Context) ([]domain.NeighborRecord, error) {
	session, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	local, err := walk(session, oidLLDPLocalSystem)
	if err != nil {
		return nil, err
	}
	remote, err := walk(session, oidLLDPRemTable)
	if err != nil {
		return nil, err
	}

	neighbors := parseLLDP(local, remote)
	p.logger.Debug().Str("target", p.cfg.Target).Int("neighbors", len(neighbors)).Msg("LLDP neighbors walked")
	return neighbors, nil
}

func walk(session snmpSession, root string) ([]gosnmp.SnmpPDU, error) {
	var pdus []gosnmp.SnmpPDU
	err := session.BulkWalk(root, func(pdu gosnmp.SnmpPDU) error {
		if pdu.Type == gosnmp.NoSuchObject || pdu.Type == gosnmp.NoSuchInstance || pdu.Type == gosnmp.EndOfMibView {
			return nil
		}
		pdus = append(pdus, pdu)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return pdus, nil
}

type ifEntry struct {
	name string
	mac  string
	rx   int64
	tx   int64
}

func parseInterfaces(pdus []gosnmp.SnmpPDU) []domain.WiredInterface {
	entries := make(map[int]*ifEntry)
	entry := func(idx int) *ifEntry {
		e, ok := entries[idx]
		if !ok {
			e = &ifEntry{}
			entries[idx] = e
		}
		return e
	}

	for _, pdu := range pdus {
		name := normalizeOID(pdu.Name)
		switch {
		case hasOIDPrefix(name, oidIfName):
			if idx, ok := oidIndex(name); ok && pdu.Type == gosnmp.OctetString {
				entry(idx).name = string(pduBytes(pdu))
			}
		case hasOIDPrefix(name, oidIfPhysAddress):
			if idx, ok := oidIndex(name); ok && pdu.Type == gosnmp.OctetString {
				entry(idx).mac = formatMACAddress(pduBytes(pdu))
			}
		case hasOIDPrefix(name, oidIfHCInOctets):
			if idx, ok := oidIndex(name); ok {
				entry(idx).rx = counterValue(pdu)
			}
		case hasOIDPrefix(name, oidIfHCOutOctets):
			if idx, ok := oidIndex(name); ok {
				entry(idx).tx = counterValue(pdu)
			}
		}
	}

	indexes := make([]int, 0, len(entries))
	for idx := range entries {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	ifaces := make([]domain.WiredInterface, 0, len(indexes))
	for _, idx := range indexes {
		e := entries[idx]
		if e.mac == "" {
			continue
		}
		ifaces = append(ifaces, domain.WiredInterface{
			MAC:     e.mac,
			Name:    e.name,
			RxBytes: e.rx,
			TxBytes: e.tx,
		})
	}
	return ifaces
}

// lldpID is a chassis or port identifier with its subtype; subtype 0 means
// the agent did not report one
type lldpID struct {
	value   []byte
	subtype int64
}

// format renders the identifier as a MAC only when its subtype says it is
// one. Without a subtype a 6-byte value is taken as a MAC.
func (id lldpID) format(macSubtype int64) string {
	if len(id.value) == 0 {
		return ""
	}
	if id.subtype == macSubtype || (id.subtype == 0 && len(id.value) == macByteLength) {
		if mac := formatMACAddress(id.value); mac != "" {
			return mac
		}
	}
	return string(id.value)
}

type lldpEntry struct {
	localPort string
	chassis   lldpID
	port      lldpID
	portDesc  string
	sysName   string
}

func parseLLDP(local, remote []gosnmp.SnmpPDU) []domain.NeighborRecord {
	var chassis lldpID
	localPorts := make(map[string]*lldpID)
	localPort := func(name string) *lldpID {
		port := name[strings.LastIndex(name, ".")+1:]
		id, ok := localPorts[port]
		if !ok {
			id = &lldpID{}
			localPorts[port] = id
		}
		return id
	}

	for _, pdu := range local {
		name := normalizeOID(pdu.Name)
		switch {
		case name == oidLLDPLocChassisSubtype:
			chassis.subtype = integerValue(pdu)
		case name == oidLLDPLocChassis:
			chassis.value = pduBytes(pdu)
		case hasOIDPrefix(name, oidLLDPLocPortSubtype):
			localPort(name).subtype = integerValue(pdu)
		case hasOIDPrefix(name, oidLLDPLocPortID):
			localPort(name).value = pduBytes(pdu)
		}
	}

	chassisMAC := chassis.format(chassisSubtypeMAC)
	portMACs := make(map[string]string, len(localPorts))
	for port, id := range localPorts {
		if id.subtype != 0 && id.subtype != portSubtypeMAC {
			continue
		}
		if mac := formatMACAddress(id.value); mac != "" {
			portMACs[port] = mac
		}
	}

	links := make(map[string]*lldpEntry)
	var order []string

	for _, pdu := range remote {
		parts := strings.Split(normalizeOID(pdu.Name), ".")
		if len(parts) < lldpRemOIDParts {
			continue
		}

		localPort := parts[len(parts)-2]
		key := strings.Join(parts[len(parts)-3:], ".")
		link, ok := links[key]
		if !ok {
			link = &lldpEntry{localPort: localPort}
			links[key] = link
			order = append(order, key)
		}

		switch column := parts[len(parts)-4]; {
		case column == lldpRemChassisSubtype && pdu.Type == gosnmp.Integer:
			link.chassis.subtype = integerValue(pdu)
		case column == lldpRemPortSubtype && pdu.Type == gosnmp.Integer:
			link.port.subtype = integerValue(pdu)
		case pdu.Type != gosnmp.OctetString:
		case column == lldpRemChassisID:
			link.chassis.value = pduBytes(pdu)
		case column == lldpRemPortID:
			link.port.value = pduBytes(pdu)
		case column == lldpRemPortDesc:
			link.portDesc = string(pduBytes(pdu))
		case column == lldpRemSysName:
			link.sysName = string(pduBytes(pdu))
		}
	}

	neighbors := make([]domain.NeighborRecord, 0, len(order))
	for _, key := range order {
		link := links[key]
		neighborMAC := link.chassis.format(chassisSubtypeMAC)
		if neighborMAC == "" {
			continue
		}

		localMAC := portMACs[link.localPort]
		if localMAC == "" {
			localMAC = chassisMAC
		}

		port := link.portDesc
		if port == "" {
			port = link.port.format(portSubtypeMAC)
		}

		neighbors = append(neighbors, domain.NeighborRecord{
			LocalMAC:     localMAC,
			NeighborMAC:  neighborMAC,
			NeighborName: link.sysName,
			Port:         port,
		})
	}
	return neighbors
}

func normalizeOID(oid string) string {
	return "." + strings.TrimPrefix(oid, ".")
}

func hasOIDPrefix(oid, prefix string) bool {
	return strings.HasPrefix(oid, prefix+".")
}

func oidIndex(oid string) (int, bool) {
	idx, err := strconv.Atoi(oid[strings.LastIndex(oid, ".")+1:])
	return idx, err == nil
}

func pduBytes(pdu gosnmp.SnmpPDU) []byte {
	switch v := pdu.Value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

func counterValue(pdu gosnmp.SnmpPDU) int64 {
	switch pdu.Type {
	case gosnmp.Counter64, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.Uinteger32, gosnmp.Integer:
		v := gosnmp.ToBigInt(pdu.Value)
		if !v.IsInt64() {
			return math.MaxInt64
		}
		return v.Int64()
	default:
		return 0
	}
}

func integerValue(pdu gosnmp.SnmpPDU) int64 {
	v := gosnmp.ToBigInt(pdu.Value)
	if !v.IsInt64() {
		return 0
	}
	return v.Int64()
}

func formatMACAddress(mac []byte) string {
	if len(mac) != macByteLength {
		return ""
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
}
