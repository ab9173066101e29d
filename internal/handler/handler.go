package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

// DeviceService is the registry as seen by the API
type DeviceService interface {
	List(ctx context.Context) ([]domain.Device, error)
	Get(ctx context.Context, mac string) (*domain.Device, error)
	Delete(ctx context.Context, mac string) error
}

// LabelService manages operator labels
type LabelService interface {
	List(ctx context.Context) ([]domain.Label, error)
	Set(ctx context.Context, l domain.Label) (*domain.Label, error)
	Delete(ctx context.Context, mac string) error
}

// SnapshotReader reads the snapshot history
type SnapshotReader interface {
	Get(ctx context.Context, id int64) (*domain.Snapshot, error)
	Latest(ctx context.Context, n int) ([]domain.Snapshot, error)
	At(ctx context.Context, ts time.Time) (*domain.Snapshot, error)
}

// RefreshTrigger starts an on-demand poll cycle
type RefreshTrigger interface {
	Trigger()
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type responder struct {
	logger zerolog.Logger
}

func (h responder) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON")
	}
}

func (h responder) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

// writeStoreError maps repository errors to status codes
func (h responder) writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, "Not found", what+" not found", http.StatusNotFound)
		return
	}
	h.logger.Error().Err(err).Str("resource", what).Msg("Request failed")
	h.writeError(w, "Failed to load "+what, err.Error(), http.StatusInternalServerError)
}
