package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/vicroadsq/internal/scheduler"
	"github.com/example/vicroadsq/internal/sightings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type StatusSource interface {
	Snapshot() scheduler.Snapshot
}

type SightingLister interface {
	ListRecent(ctx context.Context, limit int) ([]sightings.Sighting, error)
}

// Server is the read-only status surface of a running poller.
type Server struct {
	Status    StatusSource
	Sightings SightingLister
	Gatherer  prometheus.Gatherer
	Log       zerolog.Logger
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	g := s.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/sightings", s.handleSightings)

	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.Status == nil {
		http.Error(w, "not running", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.Status.Snapshot())
}

func (s *Server) handleSightings(w http.ResponseWriter, r *http.Request) {
	if s.Sightings == nil {
		http.Error(w, "sighting history needs database_url", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.Sightings.ListRecent(r.Context(), limit)
	if err != nil {
		s.Log.Error().Err(err).Msg("list sightings")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, list)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Warn().Err(err).Msg("write response")
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("status server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
