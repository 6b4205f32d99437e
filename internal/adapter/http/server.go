package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunTrigger starts a pipeline run on demand.
type RunTrigger interface {
	Trigger(ctx context.Context) (pipeline.Result, error)
}

// Server exposes health, readiness, metrics, and manual run endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type runResponse struct {
	Status  string   `json:"status"`
	RunID   string   `json:"run_id,omitempty"`
	Fetched int      `json:"fetched"`
	Matched int      `json:"matched"`
	Lines   []string `json:"lines"`
	Error   string   `json:"error,omitempty"`
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /runs routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, trigger RunTrigger, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Manual runs include lookups and notification delivery.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /runs", s.handleRun(trigger))

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

func (s *Server) handleRun(trigger RunTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := trigger.Trigger(r.Context())
		body := runResponse{
			Status:  "ok",
			RunID:   res.RunID,
			Fetched: res.Fetched,
			Matched: res.Matched,
			Lines:   res.Batch.Lines,
		}
		if body.Lines == nil {
			body.Lines = []string{}
		}

		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			body.Status = "busy"
			body.Error = err.Error()
			sharedobs.WriteJSON(w, http.StatusConflict, body)
		case err != nil:
			s.logger.Error("manual run failed", "run_id", res.RunID, "error", err)
			body.Status = "failed"
			body.Error = err.Error()
			sharedobs.WriteJSON(w, http.StatusInternalServerError, body)
		default:
			sharedobs.WriteJSON(w, http.StatusOK, body)
		}
	}
}
