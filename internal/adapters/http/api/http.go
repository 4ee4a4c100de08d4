// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/tournify/internal/app"
	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/verify"
	"github.com/okian/tournify/pkg/logger"
	"github.com/okian/tournify/pkg/metrics"
)

// Route paths.
const (
	PathValidate    = "/matches/validate-match-history"
	PathLeaderboard = "/matches/leaderboard"
	PathClaims      = "/matches/"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ValidateMatch(ctx context.Context, req service.Request) (verify.Result, error)
	GetLeaderboard(ctx context.Context, req service.Request) (service.Leaderboard, error)
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimit sets the inbound per-IP limit per minute. 0 disables it.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute >= 0 {
			s.rateLimit = perMinute
		}
	}
}

// WithCORS allows browser calls from origins. Patterns like
// "http://localhost:*" are accepted. An empty list disables CORS handling.
func WithCORS(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRoutes lets callers mount extra routes, such as API docs, on the router.
func WithRoutes(register func(chi.Router)) Option {
	return func(s *Server) {
		if register != nil {
			s.extra = append(s.extra, register)
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	validateHandler    *ValidateHandler
	leaderboardHandler *LeaderboardHandler
	claimsHandler      *ClaimsHandler

	rateLimit   int
	corsOrigins []string
	logger      logger.Logger
	extra       []func(chi.Router)
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		validateHandler:    NewValidateHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		claimsHandler:      NewClaimsHandler(),
		rateLimit:          120,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Routes builds the router with every API route attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(s.logger))
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", HeaderRequestID},
			ExposedHeaders: []string{HeaderRequestID},
			MaxAge:         300,
		}))
	}

	r.Get("/", MetricsMiddleware(s.healthHandler.HandleRoot, "root"))
	r.Get("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Group(func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(RateLimitMiddleware(s.rateLimit))
		}
		r.Post(PathClaims, MetricsMiddleware(s.claimsHandler.HandlePostClaim, "claims"))
		r.Post(PathValidate, MetricsMiddleware(s.validateHandler.HandleValidate, "validate"))
		r.Post(PathLeaderboard, MetricsMiddleware(s.leaderboardHandler.HandleLeaderboard, "leaderboard"))
	})

	for _, register := range s.extra {
		register(r)
	}
	return r
}

type errorResponse struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Validation *validationResponse `json:"validation,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps service errors onto status codes.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		body := newValidationResponse(verr.Result)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:       "validation_failed",
			Message:    "match validation failed: " + verr.Result.Reason,
			Validation: &body,
		})
	case errors.Is(err, model.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, model.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, "provider_unavailable", Wrap(op, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "provider_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
