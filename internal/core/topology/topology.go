// Package topology builds the node/edge graph of one poll cycle from the raw
// records reported by the wireless, wired and neighbor-discovery sources.
//
// Build is pure. Sources are merged in the order given by Precedence, and the
// first source to introduce a node id fixes that node's label. Edges are kept
// in the order they are reported and are never deduplicated, so two sources
// asserting the same link both appear in the result.
package topology

import (
	"strings"

	"lanwatch/internal/domain"
)

const (
	// RouterNodeID is the synthetic node every wired interface links to
	RouterNodeID = "router"
	// RouterNodeLabel is the display label of the router node
	RouterNodeLabel = "Router"
)

// Precedence lists sources from most to least authoritative for node labels
var Precedence = []domain.SourceKind{
	domain.SourceWireless,
	domain.SourceWired,
	domain.SourceNeighbor,
}

// Input groups the raw records of one cycle
type Input struct {
	Wireless  []domain.WirelessClient
	Wired     []domain.WiredInterface
	Neighbors []domain.NeighborRecord
}

type pass func(b *builder, in Input)

var passes = map[domain.SourceKind]pass{
	domain.SourceWireless: wirelessPass,
	domain.SourceWired:    wiredPass,
	domain.SourceNeighbor: neighborPass,
}

// Build returns the graph for the given records. Neighbors may be nil.
func Build(wireless []domain.WirelessClient, wired []domain.WiredInterface, neighbors []domain.NeighborRecord) *domain.Graph {
	return BuildInput(Input{Wireless: wireless, Wired: wired, Neighbors: neighbors})
}

// BuildInput runs every pass in Precedence order
func BuildInput(in Input) *domain.Graph {
	b := newBuilder()
	for _, kind := range Precedence {
		if p, ok := passes[kind]; ok {
			p(b, in)
		}
	}
	return b.graph
}

type builder struct {
	graph *domain.Graph
	index map[string]struct{}
}

func newBuilder() *builder {
	return &builder{
		graph: domain.NewGraph(),
		index: make(map[string]struct{}),
	}
}

// node adds a node unless the id is already present. An existing node keeps
// its label and source.
func (b *builder) node(id, label string, source domain.SourceKind) {
	if _, ok := b.index[id]; ok {
		return
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = id
	}
	b.index[id] = struct{}{}
	b.graph.Nodes = append(b.graph.Nodes, domain.GraphNode{ID: id, Label: label, Source: source})
}

func (b *builder) edge(source, target string) {
	b.graph.Edges = append(b.graph.Edges, domain.GraphEdge{Source: source, Target: target})
}

func wirelessPass(b *builder, in Input) {
	for _, c := range in.Wireless {
		client := domain.CanonicalMAC(c.MAC)
		if client == "" {
			continue
		}
		b.node(client, c.Hostname, domain.SourceWireless)

		ap := domain.CanonicalMAC(c.APMAC)
		if ap == "" {
			continue
		}
		b.node(ap, ap, domain.SourceWireless)
		b.edge(client, ap)
	}
}

func wiredPass(b *builder, in Input) {
	for _, iface := range in.Wired {
		id := domain.CanonicalMAC(iface.MAC)
		if id == "" {
			continue
		}
		b.node(id, iface.Name, domain.SourceWired)
		b.node(RouterNodeID, RouterNodeLabel, domain.SourceWired)
		b.edge(id, RouterNodeID)
	}
}

func neighborPass(b *builder, in Input) {
	for _, n := range in.Neighbors {
		local := domain.CanonicalMAC(n.LocalMAC)
		remote := domain.CanonicalMAC(n.NeighborMAC)

		if local != "" {
			b.node(local, local, domain.SourceNeighbor)
		}
		if remote != "" {
			b.node(remote, n.NeighborName, domain.SourceNeighbor)
		}
		if local != "" && remote != "" {
			b.edge(local, remote)
		}
	}
}
