package domain

import "encoding/json"

// Graph is the topology built for one poll cycle
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is a device, interface or synthetic node in the topology
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Source is the pass that introduced the node; it is not serialized
	Source SourceKind `json:"-"`
}

// GraphEdge is a directed link between two node ids
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewGraph creates an empty graph with initialized collections
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]GraphNode, 0),
		Edges: make([]GraphEdge, 0),
	}
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// NodeIDs returns node ids in graph order
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// MarshalCanonical returns the serialized form stored in snapshots
func (g *Graph) MarshalCanonical() ([]byte, error) {
	out := Graph{Nodes: g.Nodes, Edges: g.Edges}
	if out.Nodes == nil {
		out.Nodes = []GraphNode{}
	}
	if out.Edges == nil {
		out.Edges = []GraphEdge{}
	}
	return json.Marshal(out)
}

// ParseGraph decodes a serialized graph
func ParseGraph(data []byte) (*Graph, error) {
	g := NewGraph()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, err
	}
	return g, nil
}
