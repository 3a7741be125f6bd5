// Package api serves the prediction snapshot, accuracy stats and pipeline
// metadata over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/cache"
	"github.com/yourusername/match-predictor/internal/config"
	"github.com/yourusername/match-predictor/internal/health"
	"github.com/yourusername/match-predictor/internal/metrics"
	"github.com/yourusername/match-predictor/internal/storage"
)

// Options holds the dependencies of the API server
type Options struct {
	Config      config.APIConfig
	MetricsPath string
	Files       storage.PredictionFiles
	StatsPath   string
	LastUpdate  cache.LastUpdateStore
	Health      *health.Checker
	Logger      *logrus.Logger
}

// Server handles read API requests
type Server struct {
	cfg        config.APIConfig
	snapshots  *SnapshotCache
	lastUpdate cache.LastUpdateStore
	health     *health.Checker
	logger     *logrus.Entry
	router     *mux.Router
	server     *http.Server
}

// NewServer creates a new API server instance
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	checker := opts.Health
	if checker == nil {
		checker = health.NewChecker("match-predictor", "")
	}

	s := &Server{
		cfg:        opts.Config,
		snapshots:  NewSnapshotCache(opts.Files, opts.StatsPath, time.Duration(opts.Config.CacheTTLSeconds)*time.Second),
		lastUpdate: opts.LastUpdate,
		health:     checker,
		logger:     log.WithField("component", "api"),
	}
	s.router = s.routes(opts.MetricsPath)
	return s
}

func (s *Server) routes(metricsPath string) *mux.Router {
	r := mux.NewRouter()
	r.Use(mux.CORSMethodMiddleware(r), instrumentMiddleware(s.logger), corsMiddleware(s.cfg.AllowedOrigins))

	r.HandleFunc("/health", s.health.HandleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/ready", s.health.HandleReady).Methods(http.MethodGet, http.MethodOptions)
	if metricsPath != "" {
		r.Handle(metricsPath, metrics.Handler()).Methods(http.MethodGet, http.MethodOptions)
	}

	data := r.NewRoute().Subrouter()
	data.Use(authMiddleware(s.cfg.EndpointKey))
	data.HandleFunc("/predictions", s.handleGetPredictions).Methods(http.MethodGet, http.MethodOptions)
	data.HandleFunc("/predictions/{id}", s.handleGetPrediction).Methods(http.MethodGet, http.MethodOptions)
	data.HandleFunc("/stats", s.handleGetStats).Methods(http.MethodGet, http.MethodOptions)
	data.HandleFunc("/meta/last-update", s.handleGetLastUpdate).Methods(http.MethodGet, http.MethodOptions)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})
	return r
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Snapshots exposes the snapshot cache
func (s *Server) Snapshots() *SnapshotCache {
	return s.snapshots
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if s.cfg.EndpointKey == "" {
		s.logger.Warn("API endpoint key is empty, data routes are unauthenticated")
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.ListenAddress).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.health.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.health.SetReady(false)
	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func respondWithJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Detail: message})
}
