package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"lanwatch/internal/domain"
)

// YAMLCodec exports graphs as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of the output
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

type yamlGraph struct {
	Nodes []yamlNode `yaml:"nodes"`
	Edges []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

type yamlEdge struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Export writes g as YAML
func (c *YAMLCodec) Export(g *domain.Graph, w io.Writer) error {
	yg := yamlGraph{
		Nodes: make([]yamlNode, 0, len(g.Nodes)),
		Edges: make([]yamlEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		yg.Nodes = append(yg.Nodes, yamlNode{ID: n.ID, Label: n.Label})
	}
	for _, e := range g.Edges {
		yg.Edges = append(yg.Edges, yamlEdge{Source: e.Source, Target: e.Target})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
