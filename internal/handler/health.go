package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"lanwatch/internal/poller"
)

// HealthHandler reports liveness and the last cycle
type HealthHandler struct {
	responder
	poller *poller.Poller
}

// NewHealthHandler creates a health handler; p may be nil
func NewHealthHandler(p *poller.Poller, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{responder: responder{logger: logger}, poller: p}
}

type healthResponse struct {
	Status    string              `json:"status"`
	LastCycle *poller.CycleReport `json:"last_cycle,omitempty"`
}

// Healthz always answers 200 while the process serves requests
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.poller != nil {
		resp.LastCycle = h.poller.LastReport()
	}
	h.writeJSON(w, resp, http.StatusOK)
}
