package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanwatch/internal/domain"
)

type fakeSession struct {
	pdus   []gosnmp.SnmpPDU
	err    error
	closed bool
}

func (f *fakeSession) BulkWalk(root string, fn gosnmp.WalkFunc) error {
	if f.err != nil {
		return f.err
	}
	for _, pdu := range f.pdus {
		if hasOIDPrefix(normalizeOID(pdu.Name), root) {
			if err := fn(pdu); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func newFakePoller(session *fakeSession) *SNMPPoller {
	p := NewSNMPPoller(SNMPConfig{Target: "192.0.2.1"}, zerolog.Nop())
	p.dial = func(context.Context) (snmpSession, error) { return session, nil }
	return p
}

func octets(name string, value []byte) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: name, Type: gosnmp.OctetString, Value: value}
}

func counter(name string, value uint64) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: name, Type: gosnmp.Counter64, Value: value}
}

func TestSNMPPollerInterfaces(t *testing.T) {
	session := &fakeSession{pdus: []gosnmp.SnmpPDU{
		octets(".1.3.6.1.2.1.31.1.1.1.1.1", []byte("lo")),
		octets(".1.3.6.1.2.1.31.1.1.1.1.2", []byte("ether1")),
		octets(".1.3.6.1.2.1.31.1.1.1.1.3", []byte("ether2")),
		octets(".1.3.6.1.2.1.2.2.1.6.1", []byte{}),
		octets(".1.3.6.1.2.1.2.2.1.6.2", []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01}),
		octets("1.3.6.1.2.1.2.2.1.6.3", []byte{0xAA, 0xBB, 0xCC, 0x00, 0x00, 0x02}),
		counter(".1.3.6.1.2.1.31.1.1.1.6.2", 1000),
		counter(".1.3.6.1.2.1.31.1.1.1.10.2", 2000),
		counter(".1.3.6.1.2.1.31.1.1.1.6.3", 5),
		{Name: ".1.3.6.1.2.1.31.1.1.1.10.3", Type: gosnmp.NoSuchInstance},
	}}

	ifaces, err := newFakePoller(session).Interfaces(context.Background())
	require.NoError(t, err)
	assert.True(t, session.closed)
	assert.Equal(t, []domain.WiredInterface{
		{MAC: "aa:bb:cc:00:00:01", Name: "ether1", RxBytes: 1000, TxBytes: 2000},
		{MAC: "aa:bb:cc:00:00:02", Name: "ether2", RxBytes: 5},
	}, ifaces)
}

func TestSNMPPollerWalkError(t *testing.T) {
	p := newFakePoller(&fakeSession{err: errors.New("request timeout")})

	_, err := p.Interfaces(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request timeout")

	_, err = p.Neighbors(context.Background())
	require.Error(t, err)
}

func TestSNMPPollerNeighbors(t *testing.T) {
	session := &fakeSession{pdus: []gosnmp.SnmpPDU{
		octets(".1.0.8802.1.1.2.1.3.2.0", []byte{0x11, 0x22, 0x33, 0x00, 0x00, 0x01}),
		octets(".1.0.8802.1.1.2.1.3.7.1.3.1", []byte{0x11, 0x22, 0x33, 0x00, 0x00, 0x0a}),
		octets(".1.0.8802.1.1.2.1.3.7.1.3.2", []byte("ether10")),

		octets(".1.0.8802.1.1.2.1.4.1.1.5.0.1.1", []byte{0x22, 0x33, 0x44, 0x00, 0x00, 0x01}),
		octets(".1.0.8802.1.1.2.1.4.1.1.7.0.1.1", []byte("gi0/1")),
		octets(".1.0.8802.1.1.2.1.4.1.1.9.0.1.1", []byte("core-switch")),

		octets(".1.0.8802.1.1.2.1.4.1.1.5.0.2.4", []byte{0x22, 0x33, 0x44, 0x00, 0x00, 0x02}),
		octets(".1.0.8802.1.1.2.1.4.1.1.7.0.2.4", []byte("eth0")),
		octets(".1.0.8802.1.1.2.1.4.1.1.8.0.2.4", []byte("uplink")),

		octets(".1.0.8802.1.1.2.1.4.1.1.9.0.3.7", []byte("no-chassis")),
	}}

	neighbors, err := newFakePoller(session).Neighbors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.NeighborRecord{
		{LocalMAC: "11:22:33:00:00:0a", NeighborMAC: "22:33:44:00:00:01", NeighborName: "core-switch", Port: "gi0/1"},
		{LocalMAC: "11:22:33:00:00:01", NeighborMAC: "22:33:44:00:00:02", Port: "uplink"},
	}, neighbors)
}

func integer(name string, value int) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: name, Type: gosnmp.Integer, Value: value}
}

func TestLLDPIDFormat(t *testing.T) {
	mac := []byte{0x00, 0x1a, 0x2b, 0x3c, 0x4d, 0x5e}
	tests := []struct {
		name string
		id   lldpID
		want string
	}{
		{"mac subtype", lldpID{value: mac, subtype: chassisSubtypeMAC}, "00:1a:2b:3c:4d:5e"},
		{"no subtype, 6 bytes", lldpID{value: mac}, "00:1a:2b:3c:4d:5e"},
		{"local subtype, 6 bytes", lldpID{value: []byte("switch"), subtype: 7}, "switch"},
		{"interface name", lldpID{value: []byte("switch-1"), subtype: 6}, "switch-1"},
		{"empty", lldpID{subtype: chassisSubtypeMAC}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.format(chassisSubtypeMAC))
		})
	}
	assert.Equal(t, "", formatMACAddress([]byte{0x01}))
}

func TestSNMPPollerNeighborsHonorSubtypes(t *testing.T) {
	session := &fakeSession{pdus: []gosnmp.SnmpPDU{
		integer(".1.0.8802.1.1.2.1.3.1.0", chassisSubtypeMAC),
		octets(".1.0.8802.1.1.2.1.3.2.0", []byte{0x11, 0x22, 0x33, 0x00, 0x00, 0x01}),
		// a locally assigned port id that happens to be 6 bytes long
		integer(".1.0.8802.1.1.2.1.3.7.1.2.1", 7),
		octets(".1.0.8802.1.1.2.1.3.7.1.3.1", []byte("ether1")),

		// chassis subtype local (7): "switch" is a name, not a MAC
		integer(".1.0.8802.1.1.2.1.4.1.1.4.0.1.1", 7),
		octets(".1.0.8802.1.1.2.1.4.1.1.5.0.1.1", []byte("switch")),
		integer(".1.0.8802.1.1.2.1.4.1.1.6.0.1.1", 5),
		octets(".1.0.8802.1.1.2.1.4.1.1.7.0.1.1", []byte("gi0/1")),

		integer(".1.0.8802.1.1.2.1.4.1.1.4.0.1.2", chassisSubtypeMAC),
		octets(".1.0.8802.1.1.2.1.4.1.1.5.0.1.2", []byte{0x22, 0x33, 0x44, 0x00, 0x00, 0x02}),
		integer(".1.0.8802.1.1.2.1.4.1.1.6.0.1.2", portSubtypeMAC),
		octets(".1.0.8802.1.1.2.1.4.1.1.7.0.1.2", []byte{0x22, 0x33, 0x44, 0x00, 0x00, 0x03}),
	}}

	neighbors, err := newFakePoller(session).Neighbors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.NeighborRecord{
		{LocalMAC: "11:22:33:00:00:01", NeighborMAC: "switch", Port: "gi0/1"},
		{LocalMAC: "11:22:33:00:00:01", NeighborMAC: "22:33:44:00:00:02", Port: "22:33:44:00:00:03"},
	}, neighbors)
}
