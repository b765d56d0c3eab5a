package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the monitor over HTTP for operators: health, status,
// per-service reports, alert administration, and Prometheus metrics.
type Server struct {
	monitor *Monitor
	server  *http.Server
}

// NewServer creates the monitoring HTTP server.
func NewServer(monitor *Monitor, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /services/{name}", s.handleService)
	mux.HandleFunc("GET /alerts", s.handleAlerts)
	mux.HandleFunc("GET /alerts/history", s.handleHistory)
	mux.HandleFunc("POST /alerts/{id}/ack", s.handleAck)
	mux.HandleFunc("POST /alerts/{id}/resolve", s.handleResolve)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.monitor.Status()
	state := StatusHealthy
	switch {
	case status.ErrorRate >= maxAcceptableErrorRate:
		state = StatusCritical
	case status.ActiveAlerts > 0 || status.Availability < 95:
		state = StatusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	if state == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": string(state)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.monitor.Status())
}

func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.monitor.ServiceHealth(r.PathValue("name")))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.monitor.Alerts().ActiveAlerts())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, s.monitor.Alerts().History(limit))
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.monitor.Alerts().Acknowledge(r.Context(), id) {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"acknowledged": true, "id": id})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.monitor.Alerts().Resolve(r.Context(), id) {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"resolved": true, "id": id})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
