// Package metrics publishes per-cycle measurements to an external sink.
package metrics

import (
	"context"
	"time"

	"lanwatch/internal/domain"
)

// Measurement names
const (
	MeasurementBandwidth = "bandwidth"
	MeasurementTopology  = "topology"
)

// Point is one measurement. A zero Time means "now" at publish.
type Point struct {
	Measurement string                 `json:"measurement"`
	Tags        map[string]string      `json:"tags,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
	Time        time.Time              `json:"time"`
}

// Sink receives the points produced by a cycle
type Sink interface {
	Publish(ctx context.Context, points []Point) error
}

// BandwidthPoints returns one bandwidth point per record
func BandwidthPoints(records []domain.Record) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		points = append(points, Point{
			Measurement: MeasurementBandwidth,
			Tags: map[string]string{
				"mac":       r.MAC,
				"interface": string(r.InterfaceKind),
			},
			Fields: map[string]interface{}{
				"rx_bytes": r.RxBytes,
				"tx_bytes": r.TxBytes,
			},
		})
	}
	return points
}

// TopologyPoint carries a serialized graph
func TopologyPoint(graphJSON []byte) Point {
	return Point{
		Measurement: MeasurementTopology,
		Fields: map[string]interface{}{
			"graph": string(graphJSON),
		},
	}
}

func stamp(points []Point, now time.Time) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		if p.Time.IsZero() {
			p.Time = now
		}
		out[i] = p
	}
	return out
}
