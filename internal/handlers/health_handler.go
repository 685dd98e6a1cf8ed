package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/lumenresearch/newsroom/internal/logging"
)

const healthTimeout = 2 * time.Second

// Pinger is a backing service that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// HealthHandler reports the process and its optional backing services.
type HealthHandler struct {
	services map[string]Pinger
	logger   logging.Logger
}

// NewHealthHandler builds the handler. Nil pingers are skipped, so
// disabled services are simply not reported.
func NewHealthHandler(services map[string]Pinger, logger logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	checks := make(map[string]Pinger, len(services))
	for name, p := range services {
		if p != nil {
			checks[name] = p
		}
	}
	return &HealthHandler{services: checks, logger: logger}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	code := http.StatusOK

	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if resp.Services == nil {
			resp.Services = make(map[string]string, len(names))
		}
		if err := h.services[name].Ping(ctx); err != nil {
			h.logger.Warn("health check failed", "service", name, "err", err)
			resp.Services[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Services[name] = "ok"
	}

	respondJSON(w, code, resp)
}
