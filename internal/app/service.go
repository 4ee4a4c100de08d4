// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/tournify/internal/adapters/provider/cache"
	"github.com/okian/tournify/internal/adapters/provider/httpclient"
	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/provider"
	"github.com/okian/tournify/internal/domain/ranking"
	"github.com/okian/tournify/internal/domain/reconcile"
	"github.com/okian/tournify/internal/domain/verify"
	"github.com/okian/tournify/pkg/logger"
	"github.com/okian/tournify/pkg/metrics"
)

var tracer = otel.Tracer("github.com/okian/tournify/internal/app")

// Request is a match claim to validate.
type Request struct {
	MatchID model.MatchID
	Roster  []model.PlayerID
	// ExpectedStartTime and ExpectedMap are optional for ValidateMatch and
	// required for GetLeaderboard.
	ExpectedStartTime *time.Time
	ExpectedMap       string
}

// Leaderboard is a verified match with its ranked roster.
type Leaderboard struct {
	Validation verify.Result
	Details    model.MatchDetails
	Entries    []model.LeaderboardEntry
}

// Service validates match claims and builds leaderboards.
type Service struct {
	mu sync.RWMutex

	// Core components
	provider   provider.Provider
	reconciler *reconcile.Reconciler
	verifier   *verify.Verifier
	cache      *cache.Cache

	// Configuration
	providerURL     string
	providerAPIKey  string
	providerTimeout time.Duration
	providerRetries int
	providerRate    float64
	providerBurst   int
	threshold       float64
	lookback        time.Duration
	tolerance       time.Duration
	maxConcurrency  int
	maxRosterSize   int
	cacheSize       int

	// State
	started bool

	// Counters
	validations  atomic.Int64
	confirmed    atomic.Int64
	hostErrors   atomic.Int64
	rejected     atomic.Int64
	leaderboards atomic.Int64
	failures     atomic.Int64

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		providerURL:     "http://localhost:8001",
		providerTimeout: reconcile.DefaultFetchTimeout,
		providerRetries: 2,
		providerRate:    20,
		providerBurst:   10,
		threshold:       reconcile.DefaultThreshold,
		lookback:        reconcile.DefaultLookback,
		tolerance:       verify.DefaultStartTimeTolerance,
		maxConcurrency:  reconcile.DefaultMaxConcurrency,
		maxRosterSize:   reconcile.DefaultMaxRosterSize,
		cacheSize:       1024,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start wires the provider chain and the domain components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting match validation service...")

	p := s.provider
	fetchBudget := s.providerTimeout
	if p == nil {
		fetchBudget = httpclient.RetryBudget(s.providerTimeout, s.providerRetries)
		p = httpclient.New(s.providerURL,
			httpclient.WithAPIKey(s.providerAPIKey),
			httpclient.WithTimeout(s.providerTimeout),
			httpclient.WithMaxRetries(s.providerRetries),
			httpclient.WithRateLimit(s.providerRate, s.providerBurst),
			httpclient.WithLogger(s.logger.Named("provider")),
		)
		s.logger.Info(ctx, "using HTTP match data provider", logger.String("url", s.providerURL))
	}
	if s.cacheSize > 0 {
		s.cache = cache.New(p, cache.WithMaxSize(s.cacheSize), cache.WithFetchTimeout(fetchBudget))
		p = s.cache
	}

	s.reconciler = reconcile.New(p,
		reconcile.WithThreshold(s.threshold),
		reconcile.WithLookback(s.lookback),
		reconcile.WithFetchTimeout(fetchBudget),
		reconcile.WithMaxConcurrency(s.maxConcurrency),
		reconcile.WithMaxRosterSize(s.maxRosterSize),
		reconcile.WithLogger(s.logger.Named("reconcile")),
	)
	s.verifier = verify.New(p,
		verify.WithStartTimeTolerance(s.tolerance),
		verify.WithLogger(s.logger.Named("verify")),
	)

	s.started = true
	s.logger.Info(ctx, "match validation service started",
		logger.Float64("threshold", s.threshold),
		logger.Duration("lookback", s.lookback),
		logger.Duration("startTimeTolerance", s.tolerance),
		logger.Int("maxConcurrentFetches", s.maxConcurrency),
		logger.Int("detailsCacheSize", s.cacheSize),
	)
	return nil
}

// Stop releases the domain components. Requests in flight finish on their own.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.reconciler = nil
	s.verifier = nil
	s.cache = nil
	s.started = false
	s.logger.Info(context.Background(), "match validation service stopped")
}

func (s *Service) components() (*reconcile.Reconciler, *verify.Verifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.reconciler, s.verifier, nil
}

// ValidateMatch reconciles the claim against roster histories and, when a
// match is resolved, checks its details against the given expectations.
// A negative outcome is returned as data with Passed=false.
func (s *Service) ValidateMatch(ctx context.Context, req Request) (verify.Result, error) {
	res, _, err := s.validate(ctx, "Service.ValidateMatch", req)
	return res, err
}

// GetLeaderboard validates the claim and ranks the roster from the verified
// details. Both expectations are required. A failed validation returns a
// *ValidationError.
func (s *Service) GetLeaderboard(ctx context.Context, req Request) (Leaderboard, error) {
	if req.ExpectedStartTime == nil || strings.TrimSpace(req.ExpectedMap) == "" {
		return Leaderboard{}, fmt.Errorf("%w: expected start time and map are required for a leaderboard", model.ErrInvalidInput)
	}

	res, details, err := s.validate(ctx, "Service.GetLeaderboard", req)
	if err != nil {
		return Leaderboard{}, err
	}
	if !res.Passed || details == nil {
		return Leaderboard{Validation: res}, &ValidationError{Result: res}
	}

	entries := ranking.Rank(*details, res.Roster)
	s.leaderboards.Add(1)
	metrics.RecordLeaderboardGenerated()
	s.logger.Info(ctx, "leaderboard generated",
		logger.String("match_id", string(details.MatchID)),
		logger.Int("entries", len(entries)),
	)
	return Leaderboard{Validation: res, Details: *details, Entries: entries}, nil
}

func (s *Service) validate(ctx context.Context, spanName string, req Request) (verify.Result, *model.MatchDetails, error) {
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()

	reconciler, verifier, err := s.components()
	if err != nil {
		return verify.Result{}, nil, err
	}

	start := time.Now()
	s.validations.Add(1)

	rec, err := reconciler.Reconcile(ctx, req.MatchID, req.Roster)
	if err != nil {
		return verify.Result{}, nil, s.fail(ctx, span, start, "reconcile", err)
	}
	metrics.RecordMatchedFraction(rec.MatchedFraction)

	res, details, err := verifier.Verify(ctx, rec, verify.Expectations{
		StartTime: req.ExpectedStartTime,
		Map:       req.ExpectedMap,
	})
	if err != nil {
		return verify.Result{}, nil, s.fail(ctx, span, start, "verify", err)
	}

	outcome := metrics.OutcomeFailed
	switch {
	case res.Passed && res.HostErrorDetected:
		outcome = metrics.OutcomeHostError
		s.hostErrors.Add(1)
	case res.Passed:
		outcome = metrics.OutcomeConfirmed
		s.confirmed.Add(1)
	default:
		s.rejected.Add(1)
	}
	metrics.RecordValidation(outcome, float64(time.Since(start).Milliseconds()))

	span.SetAttributes(
		attribute.String("validation.outcome", outcome),
		attribute.String("match.resolved", string(res.ResolvedMatchID)),
	)
	s.logger.Info(ctx, "match validated",
		logger.String("match_id", string(res.OriginalMatchID)),
		logger.String("resolved_match_id", string(res.ResolvedMatchID)),
		logger.String("outcome", outcome),
		logger.Float64("matched_fraction", res.MatchedFraction),
		logger.String("time_check", res.TimeCheck.String()),
		logger.String("map_check", res.MapCheck.String()),
	)
	return res, details, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, start time.Time, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.RecordValidation(metrics.OutcomeError, float64(time.Since(start).Milliseconds()))
	if errors.Is(err, model.ErrInvalidInput) {
		s.logger.Debug(ctx, "rejected invalid claim", logger.String("stage", stage), logger.Error(err))
		return err
	}
	s.failures.Add(1)
	s.logger.Warn(ctx, "validation aborted", logger.String("stage", stage), logger.Error(err))
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"threshold":        s.threshold,
		"lookbackHours":    s.lookback.Hours(),
		"validations":      s.validations.Load(),
		"confirmed":        s.confirmed.Load(),
		"hostErrors":       s.hostErrors.Load(),
		"rejected":         s.rejected.Load(),
		"leaderboards":     s.leaderboards.Load(),
		"providerFailures": s.failures.Load(),
		"detailsCacheSize": s.cacheSize,
	}
	if s.cache != nil {
		stats["detailsCacheEntries"] = s.cache.Len()
	}
	return stats
}
