package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes returns a ServeMux with the health check, the WebSocket
// endpoint and, when gatherer is non-nil, the Prometheus endpoint.
func SetupRoutes(hub *Hub, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler(hub))
	mux.HandleFunc("/ws", WebSocketHandler(hub))
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}
