// Package normalize canonicalizes raw device records from any source adapter
// into the shape the device registry stores.
package normalize

import (
	"strings"

	"lanwatch/internal/domain"
)

// Records returns the normalized form of records. Records without a hardware
// address are dropped. The input slice is not modified, and normalizing an
// already normalized slice returns an equal slice.
func Records(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		n, ok := Record(r)
		if !ok {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Record normalizes a single record. It reports false when the record has no
// usable hardware address.
func Record(r domain.Record) (domain.Record, bool) {
	mac := domain.CanonicalMAC(r.MAC)
	if mac == "" {
		return domain.Record{}, false
	}

	kind := domain.InterfaceKind(strings.ToLower(strings.TrimSpace(string(r.InterfaceKind))))
	if kind == "" {
		kind = domain.InterfaceUnknown
	}

	return domain.Record{
		MAC:           mac,
		Hostname:      strings.TrimSpace(r.Hostname),
		APMAC:         domain.CanonicalMAC(r.APMAC),
		SwitchMAC:     domain.CanonicalMAC(r.SwitchMAC),
		IP:            strings.TrimSpace(r.IP),
		RxBytes:       counter(r.RxBytes),
		TxBytes:       counter(r.TxBytes),
		InterfaceKind: kind,
	}, true
}

func counter(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
