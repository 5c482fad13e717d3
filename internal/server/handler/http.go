// Package handler provides HTTP request handling for the MCP server.
package handler

import (
	"net/http"

	"github.com/brizzai/popup-login/internal/auth/middleware"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	gatherer prometheus.Gatherer
}

// NewHandler creates a new HTTP handler. A nil gatherer disables /metrics.
func NewHandler(gatherer prometheus.Gatherer) *Handler {
	return &Handler{gatherer: gatherer}
}

// CreateHTTPHandler mounts the MCP transport at / next to the health and
// metrics endpoints.
func (h *Handler) CreateHTTPHandler(mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if h.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
		logger.Info("Serving metrics at /metrics")
	}

	mux.Handle("/", mcpHandler)
	return middleware.Logging(mux)
}
