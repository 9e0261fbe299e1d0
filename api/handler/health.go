package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/Pilar-d/pendientes/api/transport"
	"github.com/Pilar-d/pendientes/internal/infrastructure/monitor"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, deps Deps) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(deps),
		monitor:     mon,
	}
}

// Check reports the last dependency probe results.
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"last_check": status.LastCheck,
		"services":   status.Services,
	}

	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
