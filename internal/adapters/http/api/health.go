package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/imobrank/pkg/logger"
)

const healthTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	store Pinger
	log   logger.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, log: log}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz. It answers 503 when the store cannot
// be reached.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.log.Warn(r.Context(), "health check failed", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
