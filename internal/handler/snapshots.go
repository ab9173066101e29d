package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"lanwatch/internal/codec"
	"lanwatch/internal/domain"
)

const (
	defaultSnapshotLimit = 10
	maxSnapshotLimit     = 500
)

// SnapshotHandler serves the snapshot history
type SnapshotHandler struct {
	responder
	snapshots SnapshotReader
}

// NewSnapshotHandler creates a snapshot handler
func NewSnapshotHandler(snapshots SnapshotReader, logger zerolog.Logger) *SnapshotHandler {
	return &SnapshotHandler{responder: responder{logger: logger}, snapshots: snapshots}
}

// ListSnapshots returns summaries of the newest snapshots
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxSnapshotLimit)
	}

	snaps, err := h.snapshots.Latest(r.Context(), limit)
	if err != nil {
		h.writeStoreError(w, "snapshots", err)
		return
	}

	summaries := make([]domain.SnapshotSummary, 0, len(snaps))
	for i := range snaps {
		s, err := snaps[i].Summary()
		if err != nil {
			h.writeStoreError(w, "snapshots", err)
			return
		}
		summaries = append(summaries, s)
	}
	h.writeJSON(w, summaries, http.StatusOK)
}

// LatestSnapshot returns the newest snapshot with its graph
func (h *SnapshotHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.snapshots.Latest(r.Context(), 1)
	if err != nil {
		h.writeStoreError(w, "snapshot", err)
		return
	}
	if len(snaps) == 0 {
		h.writeError(w, "Not found", "no snapshots recorded yet", http.StatusNotFound)
		return
	}
	h.writeJSON(w, snaps[0], http.StatusOK)
}

// SnapshotAt returns the first snapshot taken at or after ?ts=
func (h *SnapshotHandler) SnapshotAt(w http.ResponseWriter, r *http.Request) {
	ts, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("ts"))
	if err != nil {
		h.writeError(w, "Invalid timestamp", "ts must be RFC3339", http.StatusBadRequest)
		return
	}

	snap, err := h.snapshots.At(r.Context(), ts)
	if err != nil {
		h.writeStoreError(w, "snapshot", err)
		return
	}
	h.writeJSON(w, snap, http.StatusOK)
}

// GetSnapshot returns one snapshot with its graph
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, snap, http.StatusOK)
}

// ExportSnapshot renders a snapshot graph with the requested codec
func (h *SnapshotHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	exporter, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Invalid format", err.Error(), http.StatusBadRequest)
		return
	}

	snap, ok := h.lookup(w, r)
	if !ok {
		return
	}
	graph, err := snap.Graph()
	if err != nil {
		h.writeStoreError(w, "snapshot", err)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition",
		"attachment; filename=snapshot-"+strconv.FormatInt(snap.ID, 10)+"."+exporter.Format())
	if err := exporter.Export(graph, w); err != nil {
		// headers are already sent
		h.logger.Error().Err(err).Int64("snapshot_id", snap.ID).Msg("Failed to export snapshot")
	}
}

func (h *SnapshotHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Snapshot, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		h.writeError(w, "Invalid snapshot ID", "id must be a positive integer", http.StatusBadRequest)
		return nil, false
	}

	snap, err := h.snapshots.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "snapshot", err)
		return nil, false
	}
	return snap, true
}
