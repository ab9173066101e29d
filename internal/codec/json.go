package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"lanwatch/internal/domain"
)

// JSONCodec exports graphs as indented JSON in the snapshot shape
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of the output
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Export writes g as JSON
func (c *JSONCodec) Export(g *domain.Graph, w io.Writer) error {
	out := domain.Graph{Nodes: g.Nodes, Edges: g.Edges}
	if out.Nodes == nil {
		out.Nodes = []domain.GraphNode{}
	}
	if out.Edges == nil {
		out.Edges = []domain.GraphEdge{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
