// Package server exposes the dispatch service's HTTP surface: a manual
// tick trigger, a liveness probe, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harwick/chime/internal/middleware"
)

// TickRunner runs one dispatch pass. *dispatch.Engine implements it.
type TickRunner interface {
	Tick(ctx context.Context) error
}

type Server struct {
	engine TickRunner
	logger *slog.Logger
}

func New(engine TickRunner, logger *slog.Logger) *Server {
	return &Server{engine: engine, logger: logger}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /__cron", s.cronHandler)
	mux.HandleFunc("GET /__health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

// cronHandler triggers one tick synchronously. Overlap with the scheduled
// tick is safe; the send ledger arbitrates every occurrence.
func (s *Server) cronHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := s.engine.Tick(r.Context()); err != nil {
		s.logger.Error("manual tick failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
