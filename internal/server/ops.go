package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetgrid/backend/internal/pool"
)

// OpsServer is the operational HTTP listener: health, metrics and a JSON
// snapshot of the worker pool.
type OpsServer struct {
	pool *pool.Pool
	srv  *http.Server
}

func NewOpsServer(p *pool.Pool) *OpsServer {
	return &OpsServer{pool: p}
}

// Start serves on port. It blocks until the listener closes.
func (s *OpsServer) Start(port int) error {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/pool/stats", s.handlePoolStats).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *OpsServer) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

func (s *OpsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *OpsServer) handlePoolStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"state":  s.pool.State().String(),
		"policy": s.pool.Policy().String(),
		"stats":  s.pool.Statistics(),
	})
}
