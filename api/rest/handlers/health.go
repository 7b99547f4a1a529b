package handlers

import (
	"net/http"

	"fitting-console/core/monitoring"
)

// HealthHandler serves liveness and metrics
type HealthHandler struct {
	exporter *monitoring.MetricsExporter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(exporter *monitoring.MetricsExporter) *HealthHandler {
	return &HealthHandler{exporter: exporter}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Metrics handles GET /metrics
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.exporter.GetPrometheusMetrics()))
}
