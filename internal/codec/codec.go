// Package codec renders topology graphs in exchange formats.
package codec

import (
	"fmt"
	"io"
	"strings"

	"lanwatch/internal/domain"
)

// Exporter writes a graph in one format
type Exporter interface {
	Export(g *domain.Graph, w io.Writer) error
	Format() string
	ContentType() string
}

// ForFormat returns the exporter for a format name; empty means json
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
