package handler

import (
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"lanwatch/internal/domain"
	"lanwatch/internal/service"
)

//go:embed labels.html
var labelsPage []byte

// DeviceHandler serves the registry, labels and the refresh trigger
type DeviceHandler struct {
	responder
	devices DeviceService
	labels  LabelService
	refresh RefreshTrigger
}

// NewDeviceHandler creates a device handler
func NewDeviceHandler(devices DeviceService, labels LabelService, refresh RefreshTrigger, logger zerolog.Logger) *DeviceHandler {
	return &DeviceHandler{
		responder: responder{logger: logger},
		devices:   devices,
		labels:    labels,
		refresh:   refresh,
	}
}

// RefreshNow starts a cycle in the background and returns immediately
func (h *DeviceHandler) RefreshNow(w http.ResponseWriter, r *http.Request) {
	if h.refresh == nil {
		h.writeError(w, "Polling not configured", "No scheduler is running", http.StatusServiceUnavailable)
		return
	}
	h.refresh.Trigger()
	h.writeJSON(w, map[string]string{"status": "refresh_triggered"}, http.StatusAccepted)
}

// ListDevices returns every registered device with its label
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		h.writeStoreError(w, "devices", err)
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	h.writeJSON(w, devices, http.StatusOK)
}

// GetDevice returns one device
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.devices.Get(r.Context(), r.PathValue("mac"))
	if err != nil {
		h.writeStoreError(w, "device", err)
		return
	}
	h.writeJSON(w, device, http.StatusOK)
}

// DeleteDevice removes a device and its label
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	mac := domain.CanonicalMAC(r.PathValue("mac"))
	if err := h.devices.Delete(r.Context(), mac); err != nil {
		h.writeStoreError(w, "device", err)
		return
	}
	h.writeJSON(w, map[string]string{"deleted": mac}, http.StatusOK)
}

// ListLabels returns every label
func (h *DeviceHandler) ListLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.labels.List(r.Context())
	if err != nil {
		h.writeStoreError(w, "labels", err)
		return
	}
	if labels == nil {
		labels = []domain.Label{}
	}
	h.writeJSON(w, labels, http.StatusOK)
}

// SetLabel creates or replaces the label of a known device
func (h *DeviceHandler) SetLabel(w http.ResponseWriter, r *http.Request) {
	var req domain.Label
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	label, err := h.labels.Set(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidLabel) {
			h.writeError(w, "Invalid label", err.Error(), http.StatusBadRequest)
			return
		}
		h.writeStoreError(w, "device", err)
		return
	}
	h.writeJSON(w, label, http.StatusOK)
}

// DeleteLabel removes a label
func (h *DeviceHandler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	mac := domain.CanonicalMAC(r.PathValue("mac"))
	if err := h.labels.Delete(r.Context(), mac); err != nil {
		h.writeStoreError(w, "label", err)
		return
	}
	h.writeJSON(w, map[string]string{"deleted": mac}, http.StatusOK)
}

// LabelsUI serves a small page for editing labels
func (h *DeviceHandler) LabelsUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(labelsPage)
}
