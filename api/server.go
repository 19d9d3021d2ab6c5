// Package api provides the HTTP API consumed by the chart UI.
//
// It exposes one fetch-then-process endpoint plus small read-only endpoints
// for the available source kinds and the chart configuration. Each request
// runs its own pipeline cycle; overlapping requests are independent and a
// newer request does not cancel an older one.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rsviz/rsviz/internal/analytics"
	"github.com/rsviz/rsviz/internal/config"
	"github.com/rsviz/rsviz/internal/source"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	adapter *source.Adapter
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) *Server {
	srv := &Server{
		cfg:     cfg,
		adapter: source.NewAdapter(cfg.Sources),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/analyze", s.handleAnalyze)
		r.Get("/sources", s.handleSources)
		r.Get("/config/chart", s.handleChartConfig)
	})

	return r
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// handleHealth returns liveness status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"status": "ok"},
	})
}

// handleAnalyze runs one fetch-then-process cycle.
//
// GET /api/v1/analyze?source=synthetic&assets=BTC,ETH&days=90
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	kind := source.ParseKind(r.URL.Query().Get("source"))

	var assets []string
	for _, sym := range strings.Split(r.URL.Query().Get("assets"), ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			assets = append(assets, sym)
		}
	}

	days := 90
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}

	raw, err := s.adapter.Fetch(r.Context(), kind, assets, days)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	processed, err := analytics.Process(raw, assetsUpper(assets))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: processed})
}

// handleSources lists the available source kinds.
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: source.Kinds()})
}

// handleChartConfig serves the renderer configuration.
func (s *Server) handleChartConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.cfg.Chart})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var unsupported *source.ErrUnsupportedSource
	var insufficient *source.ErrInsufficientAssets
	var provider *source.ErrProvider
	switch {
	case errors.As(err, &unsupported), errors.As(err, &insufficient):
		return http.StatusBadRequest
	case errors.As(err, &provider):
		return http.StatusBadGateway
	case errors.Is(err, analytics.ErrEmptyResult):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func assetsUpper(assets []string) []string {
	out := make([]string, len(assets))
	for i, sym := range assets {
		out[i] = strings.ToUpper(sym)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
