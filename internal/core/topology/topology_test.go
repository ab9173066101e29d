package topology

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanwatch/internal/domain"
)

func scenarioA() Input {
	return Input{
		Wireless: []domain.WirelessClient{
			{MAC: "aa:bb", APMAC: "11:22", Hostname: "device1"},
			{MAC: "cc:dd", APMAC: "11:22", Hostname: "device2"},
		},
		Wired: []domain.WiredInterface{
			{MAC: "11:22", Name: "ap1"},
		},
		Neighbors: []domain.NeighborRecord{
			{LocalMAC: "11:22", NeighborMAC: "ee:ff", NeighborName: "sw1"},
		},
	}
}

func TestBuildScenarioA(t *testing.T) {
	g := BuildInput(scenarioA())

	assert.Equal(t, []string{"aa:bb", "11:22", "cc:dd", RouterNodeID, "ee:ff"}, g.NodeIDs())

	assert.Equal(t, []domain.GraphEdge{
		{Source: "aa:bb", Target: "11:22"},
		{Source: "cc:dd", Target: "11:22"},
		{Source: "11:22", Target: RouterNodeID},
		{Source: "11:22", Target: "ee:ff"},
	}, g.Edges)

	ap, ok := g.Node("11:22")
	require.True(t, ok)
	assert.Equal(t, "11:22", ap.Label, "wireless pass fixes the AP label before the wired pass")
	assert.Equal(t, domain.SourceWireless, ap.Source)

	sw, ok := g.Node("ee:ff")
	require.True(t, ok)
	assert.Equal(t, "sw1", sw.Label)

	router, ok := g.Node(RouterNodeID)
	require.True(t, ok)
	assert.Equal(t, RouterNodeLabel, router.Label)
}

func TestBuildEmptyInputs(t *testing.T) {
	g := Build(nil, nil, nil)
	require.NotNil(t, g.Nodes)
	require.NotNil(t, g.Edges)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestBuildSkipsEmptyAddresses(t *testing.T) {
	g := Build(
		[]domain.WirelessClient{{MAC: "", APMAC: "11:22", Hostname: "ghost"}},
		[]domain.WiredInterface{{MAC: "", Name: "ether9"}},
		[]domain.NeighborRecord{{LocalMAC: "", NeighborMAC: ""}},
	)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestBuildNeighborPartialRecords(t *testing.T) {
	g := Build(nil, nil, []domain.NeighborRecord{
		{LocalMAC: "aa:aa", NeighborMAC: ""},
		{LocalMAC: "", NeighborMAC: "bb:bb", NeighborName: "switch"},
	})
	assert.Equal(t, []string{"aa:aa", "bb:bb"}, g.NodeIDs())
	assert.Empty(t, g.Edges)

	n, _ := g.Node("bb:bb")
	assert.Equal(t, "switch", n.Label)
}

func TestBuildRepeatedObservationsKeepEdges(t *testing.T) {
	g := Build(
		[]domain.WirelessClient{
			{MAC: "aa:bb", APMAC: "11:22"},
			{MAC: "AA:BB", APMAC: "11:22"},
		},
		[]domain.WiredInterface{
			{MAC: "33:44", Name: "ether1"},
			{MAC: "33:44", Name: "ether1-dup"},
		},
		nil,
	)

	assert.Equal(t, []string{"aa:bb", "11:22", "33:44", RouterNodeID}, g.NodeIDs())
	assert.Len(t, g.Edges, 4)

	n, _ := g.Node("33:44")
	assert.Equal(t, "ether1", n.Label)
}

func TestBuildLabelPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		in        Input
		id        string
		wantLabel string
		wantSrc   domain.SourceKind
	}{
		{
			name: "wireless beats neighbor",
			in: Input{
				Wireless:  []domain.WirelessClient{{MAC: "aa:bb", Hostname: "laptop"}},
				Neighbors: []domain.NeighborRecord{{LocalMAC: "11:22", NeighborMAC: "aa:bb", NeighborName: "lldp-name"}},
			},
			id:        "aa:bb",
			wantLabel: "laptop",
			wantSrc:   domain.SourceWireless,
		},
		{
			name: "wired beats neighbor",
			in: Input{
				Wired:     []domain.WiredInterface{{MAC: "11:22", Name: "ether1"}},
				Neighbors: []domain.NeighborRecord{{LocalMAC: "00:01", NeighborMAC: "11:22", NeighborName: "sw"}},
			},
			id:        "11:22",
			wantLabel: "ether1",
			wantSrc:   domain.SourceWired,
		},
		{
			name: "wireless beats wired",
			in: Input{
				Wireless: []domain.WirelessClient{{MAC: "11:22", Hostname: "ap-lobby"}},
				Wired:    []domain.WiredInterface{{MAC: "11:22", Name: "ether2"}},
			},
			id:        "11:22",
			wantLabel: "ap-lobby",
			wantSrc:   domain.SourceWireless,
		},
		{
			name: "blank hostname falls back to address",
			in: Input{
				Wireless: []domain.WirelessClient{{MAC: "AA:BB", Hostname: "  "}},
			},
			id:        "aa:bb",
			wantLabel: "aa:bb",
			wantSrc:   domain.SourceWireless,
		},
		{
			name: "neighbor local address is labelled with itself",
			in: Input{
				Neighbors: []domain.NeighborRecord{{LocalMAC: "11:22", NeighborMAC: "33:44", NeighborName: "sw"}},
			},
			id:        "11:22",
			wantLabel: "11:22",
			wantSrc:   domain.SourceNeighbor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				g := BuildInput(tt.in)
				n, ok := g.Node(tt.id)
				require.True(t, ok)
				assert.Equal(t, tt.wantLabel, n.Label)
				assert.Equal(t, tt.wantSrc, n.Source)
			}
		})
	}
}

func TestPrecedenceOrder(t *testing.T) {
	assert.Equal(t, []domain.SourceKind{domain.SourceWireless, domain.SourceWired, domain.SourceNeighbor}, Precedence)
	for _, kind := range Precedence {
		assert.Contains(t, passes, kind)
	}
}

func TestBuildGraphProperties(t *testing.T) {
	in := Input{
		Wireless: []domain.WirelessClient{
			{MAC: "AA:01", APMAC: "AP:01"},
			{MAC: "aa:02"},
			{MAC: "", APMAC: "ap:99"},
		},
		Wired: []domain.WiredInterface{
			{MAC: "ap:01", Name: "uplink"},
			{MAC: "rt:02"},
		},
		Neighbors: []domain.NeighborRecord{
			{LocalMAC: "rt:02", NeighborMAC: "sw:01"},
			{LocalMAC: "sw:01", NeighborMAC: "aa:01"},
			{NeighborMAC: "sw:02"},
		},
	}

	g := BuildInput(in)

	want := []string{"aa:01", "ap:01", "aa:02", "rt:02", RouterNodeID, "sw:01", "sw:02"}
	got := g.NodeIDs()
	sort.Strings(want)
	sort.Strings(got)
	assert.Equal(t, want, got, "node ids are exactly the referenced non-empty addresses")

	ids := make(map[string]bool)
	for _, id := range got {
		assert.False(t, ids[id], "duplicate node %s", id)
		ids[id] = true
	}
	for _, e := range g.Edges {
		assert.True(t, ids[e.Source], "edge source %s missing", e.Source)
		assert.True(t, ids[e.Target], "edge target %s missing", e.Target)
	}
}
