// Package api exposes the solver and the stress engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/engine"
	"github.com/sells-group/credit-stress/internal/model"
	"github.com/sells-group/credit-stress/internal/scenario"
)

const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Engine     *engine.Engine
	Scenarios  scenario.Set
	Severities []int
	Logger     *zap.Logger
}

// Server holds the handlers' shared, read-only state.
type Server struct {
	engine     *engine.Engine
	scenarios  scenario.Set
	severities []int
	log        *zap.Logger
}

// NewServer creates a Server. A zero scenario set or severity list falls
// back to the built-in defaults.
func NewServer(opts Options) *Server {
	s := &Server{
		engine:     opts.Engine,
		scenarios:  opts.Scenarios,
		severities: opts.Severities,
		log:        opts.Logger,
	}
	if s.engine == nil {
		s.engine = engine.New(engine.Options{})
	}
	if s.scenarios.Len() == 0 {
		s.scenarios = scenario.Default()
	}
	if len(s.severities) == 0 {
		s.severities = scenario.DefaultSeverities()
	}
	if s.log == nil {
		s.log = zap.L()
	}
	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/scenarios", s.handleScenarios)
		r.Get("/lookup", s.handleLookup)
		r.Post("/solve", s.handleSolve)
		r.Post("/stress", s.handleStress)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNonConvergence):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Error("api: request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
