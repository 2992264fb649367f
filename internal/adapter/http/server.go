package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-location-service/internal/coordinator"
	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/geolocation"
	"github.com/couchcryptid/weather-location-service/internal/search"
)

const maxBodyBytes = 4 << 10

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// LocationService is the coordinator surface exposed over HTTP.
type LocationService interface {
	Snapshot() coordinator.Snapshot
	ToggleUnit(ctx context.Context) (domain.Unit, error)
}

// SearchService is the search box surface exposed over HTTP.
type SearchService interface {
	QueryChanged(text string)
	Enter(ctx context.Context) error
	Choose(ctx context.Context, index int) error
	SubmitRaw(ctx context.Context, text string) error
	Dismiss()
	Focus()
	Clear()
	State() search.State
}

// GeolocationService runs and reports geolocation attempts.
type GeolocationService interface {
	Resolve(ctx context.Context) (geolocation.Result, error)
	Status() geolocation.Status
}

// API groups the services behind /api/v1.
type API struct {
	Location    LocationService
	Search      SearchService
	Geolocation GeolocationService
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes.
func NewServer(addr string, ready ReadinessChecker, api API, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Commands wait on geocoding and weather calls, so writes get more room than reads.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger.With("component", "http"),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("POST /api/v1/search/query", s.handleQuery)
	mux.HandleFunc("POST /api/v1/search/enter", s.handleEnter)
	mux.HandleFunc("POST /api/v1/search/choose", s.handleChoose)
	mux.HandleFunc("POST /api/v1/search/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/v1/search/dismiss", s.handleDismiss)
	mux.HandleFunc("POST /api/v1/search/focus", s.handleFocus)
	mux.HandleFunc("POST /api/v1/search/clear", s.handleClear)
	mux.HandleFunc("POST /api/v1/unit/toggle", s.handleToggleUnit)
	mux.HandleFunc("POST /api/v1/geolocation/retry", s.handleRetry)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// stateResponse is the full dashboard view.
type stateResponse struct {
	Location    coordinator.Snapshot `json:"location"`
	Search      search.State         `json:"search"`
	Geolocation geolocation.Status   `json:"geolocation"`
}

func (s *Server) state() stateResponse {
	return stateResponse{
		Location:    s.api.Location.Snapshot(),
		Search:      s.api.Search.State(),
		Geolocation: s.api.Geolocation.Status(),
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

type textRequest struct {
	Text string `json:"text"`
}

type chooseRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.api.Search.QueryChanged(req.Text)
	writeJSON(w, http.StatusAccepted, s.api.Search.State())
}

func (s *Server) handleEnter(w http.ResponseWriter, r *http.Request) {
	s.command(w, s.api.Search.Enter(detach(r)))
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	s.command(w, s.api.Search.Choose(detach(r), *req.Index))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.command(w, s.api.Search.SubmitRaw(detach(r), req.Text))
}

func (s *Server) handleDismiss(w http.ResponseWriter, _ *http.Request) {
	s.api.Search.Dismiss()
	writeJSON(w, http.StatusOK, s.api.Search.State())
}

func (s *Server) handleFocus(w http.ResponseWriter, _ *http.Request) {
	s.api.Search.Focus()
	writeJSON(w, http.StatusOK, s.api.Search.State())
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.api.Search.Clear()
	writeJSON(w, http.StatusOK, s.api.Search.State())
}

func (s *Server) handleToggleUnit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.api.Location.ToggleUnit(detach(r)); err != nil {
		// The toggle itself always applies; only persisting it failed.
		s.logger.Warn("unit toggle not persisted", "error", err)
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if _, err := s.api.Geolocation.Resolve(detach(r)); err != nil {
		if errors.Is(err, geolocation.ErrResolutionInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

// command maps the result of a search command to a response.
func (s *Server) command(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.state())
	case errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrNoSuggestion):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("search command failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// detach keeps request values but outlives a client disconnect, so a
// committed location still reaches the coordinator.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
