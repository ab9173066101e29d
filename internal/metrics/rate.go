package metrics

import (
	"sync"
	"time"

	"lanwatch/internal/domain"
)

type counterSample struct {
	rx, tx int64
	at     time.Time
}

// RateTracker turns cumulative byte counters into bits per second by
// remembering the previous sample of each device interface. It is safe for
// concurrent cycles.
type RateTracker struct {
	mu   sync.Mutex
	last map[string]counterSample
}

// NewRateTracker creates an empty tracker
func NewRateTracker() *RateTracker {
	return &RateTracker{last: make(map[string]counterSample)}
}

// BandwidthPoints returns the bandwidth points for records sampled at `at`,
// adding rx_bps and tx_bps where a previous sample allows it. A counter that
// went backwards (wrap or device reset) yields no rate for that direction.
func (t *RateTracker) BandwidthPoints(records []domain.Record, at time.Time) []Point {
	points := BandwidthPoints(records)

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, r := range records {
		key := r.MAC + "/" + string(r.InterfaceKind)
		cur := counterSample{rx: r.RxBytes, tx: r.TxBytes, at: at}
		prev, seen := t.last[key]
		points[i].Time = at

		if seen && !at.After(prev.at) {
			// a concurrent cycle already stored a newer sample
			continue
		}
		t.last[key] = cur
		if !seen {
			continue
		}

		secs := at.Sub(prev.at).Seconds()
		if cur.rx >= prev.rx {
			points[i].Fields["rx_bps"] = float64(cur.rx-prev.rx) * 8 / secs
		}
		if cur.tx >= prev.tx {
			points[i].Fields["tx_bps"] = float64(cur.tx-prev.tx) * 8 / secs
		}
	}
	return points
}
