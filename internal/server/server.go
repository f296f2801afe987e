package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	appLogger "github.com/roamwise/go-trip-planner/app/logger"
	"github.com/roamwise/go-trip-planner/internal/assistant"
)

// QueryRequest is the JSON body of POST /api/v1/query.
type QueryRequest struct {
	Query string `json:"query"`
	Agent string `json:"agent,omitempty"`
	Debug bool   `json:"debug,omitempty"`
}

// QueryResponse wraps an assistant result; the observation is only
// included when the caller asked for debug output.
type QueryResponse struct {
	QueryID string `json:"query_id"`
	assistant.Result
}

// Server exposes the assistant pipeline over HTTP. Queries stay
// independent and stateless; the server holds no per-client state.
type Server struct {
	assistant *assistant.Assistant
	logger    *slog.Logger
}

func New(a *assistant.Assistant, logger *slog.Logger) *Server {
	return &Server{assistant: a, logger: logger}
}

// Routes builds the chi handler tree. metricsHandler is the Prometheus
// scrape endpoint from the tracer setup; nil skips mounting it.
func (s *Server) Routes(metricsHandler http.Handler) http.Handler {
	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	r.Post("/api/v1/query", s.handleQuery)
	return r
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		ErrorResponse(w, r, http.StatusBadRequest, "query is required")
		return
	}
	agent := req.Agent
	if agent == "" {
		agent = assistant.AgentAuto
	}
	switch agent {
	case assistant.AgentAuto, assistant.AgentWeather, assistant.AgentPOI, assistant.AgentPlan:
	default:
		ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("unknown agent %q", agent))
		return
	}

	result := s.assistant.Handle(r.Context(), req.Query, agent)
	if !req.Debug {
		result.Observation = nil
	}

	WriteJSONResponse(w, r, http.StatusOK, QueryResponse{
		QueryID: uuid.NewString(),
		Result:  result,
	})
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutdown signal received, starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
