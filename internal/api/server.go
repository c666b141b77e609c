package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xtding233/dicepool-sim/internal/config"
	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
	"github.com/xtding233/dicepool-sim/internal/store"
	"github.com/xtding233/dicepool-sim/internal/sweep"
)

// RunStore is the read side of the result store.
type RunStore interface {
	GetRun(ctx context.Context, id string) (*store.Run, error)
	ListResults(ctx context.Context, runID string) ([]store.StoredResult, error)
	Distribution(ctx context.Context, resultID int64) (sim.Distribution, error)
}

// ScenarioLister is implemented by resolvers backed by scenario files.
type ScenarioLister interface {
	Scenarios() ([]string, error)
}

// Options configures a Server. Zero values are usable.
type Options struct {
	Resolver  config.Resolver // nil: built-in defaults only
	Store     RunStore        // nil: run endpoints answer 404
	Logger    *slog.Logger
	MaxTrials int // <= 0: unlimited
	// MaxOutcome bounds the values accepted by /distribution.
	// <= 0 means DefaultMaxOutcome.
	MaxOutcome int
}

// DefaultMaxOutcome is far above any sum a dice hand produces.
const DefaultMaxOutcome = 10000

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server handles HTTP requests
type Server struct {
	resolver  config.Resolver
	store     RunStore
	logger    *slog.Logger
	maxTrials  int
	maxOutcome int
	startTime  time.Time
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	s := &Server{
		resolver:   opts.Resolver,
		store:      opts.Store,
		logger:     opts.Logger,
		maxTrials:  opts.MaxTrials,
		maxOutcome: opts.MaxOutcome,
		startTime:  time.Now(),
	}
	if s.maxOutcome <= 0 {
		s.maxOutcome = DefaultMaxOutcome
	}
	if s.resolver == nil {
		s.resolver = config.Defaults{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Routes sets up the HTTP routes with middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/colors", s.handleColors)
		r.Get("/scenarios", s.handleScenarios)
		r.Get("/combinations", s.handleCombinations)
		r.Post("/hands", s.handleHand)
		r.Post("/simulate", s.handleSimulate)
		r.Post("/distribution", s.handleDistribution)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/results", s.handleRunResults)
		r.Get("/results/{id}/distribution", s.handleResultDistribution)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("http.encode", "err", err)
	}
}

type errorResp struct {
	Err string `json:"err"`
}

// writeError maps engine errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("http.internal", "err", err)
	}
	s.writeJSON(w, status, errorResp{Err: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, dice.ErrInvalidColor),
		errors.Is(err, dice.ErrUnsupportedPolicy),
		errors.Is(err, sim.ErrEmptySample),
		errors.Is(err, sim.ErrNegativeOutcome),
		errors.Is(err, sweep.ErrInvalidParams),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
