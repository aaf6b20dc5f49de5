// Package fileserver exposes downloaded media over HTTP so Discord can fetch
// attachment URLs, plus a health endpoint for the bridge counters.
package fileserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tgcord/internal/bridge"
)

// Server serves the media directory and /healthz.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// New creates a file server for the given address and media directory.
func New(addr, mediaDir string, health *bridge.Health, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "fileserver")

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(mediaDir)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(health.Snapshot()); err != nil {
			log.Error("encode health response", "error", err)
		}
	})

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		log: log,
	}
}

// Start serves until Shutdown is called. A clean shutdown is not an error.
func (s *Server) Start() error {
	s.log.Info("file server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
