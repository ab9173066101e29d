package domain

import (
	"encoding/json"
	"time"
)

// Snapshot is one persisted topology graph. GraphJSON holds the stored bytes
// exactly as written.
type Snapshot struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	GraphJSON json.RawMessage `json:"graph"`
}

// Graph decodes the stored graph
func (s *Snapshot) Graph() (*Graph, error) {
	return ParseGraph(s.GraphJSON)
}

// SnapshotSummary describes a snapshot without its graph body
type SnapshotSummary struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

// Summary counts nodes and edges of the stored graph
func (s *Snapshot) Summary() (SnapshotSummary, error) {
	g, err := s.Graph()
	if err != nil {
		return SnapshotSummary{}, err
	}
	return SnapshotSummary{
		ID:        s.ID,
		Timestamp: s.Timestamp,
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
	}, nil
}
