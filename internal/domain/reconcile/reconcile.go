// Package reconcile resolves a claimed match id against the roster's match histories.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/provider"
	"github.com/okian/tournify/pkg/logger"
	"github.com/okian/tournify/pkg/metrics"
)

var tracer = otel.Tracer("github.com/okian/tournify/internal/domain/reconcile")

// Failure reasons recorded for history fetches counted as absent.
const (
	reasonNotFound    = "not_found"
	reasonTimeout     = "timeout"
	reasonUnavailable = "unavailable"
	reasonOther       = "error"
)

// Result is the outcome of one reconciliation. Player lists follow roster order.
type Result struct {
	OriginalMatchID model.MatchID
	// ResolvedMatchID is empty when no candidate reached the threshold.
	ResolvedMatchID model.MatchID
	Roster          []model.PlayerID
	// PlayersWithMatch and PlayersWithoutMatch are relative to OriginalMatchID.
	PlayersWithMatch    []model.PlayerID
	PlayersWithoutMatch []model.PlayerID
	MatchedFraction     float64
	ResolvedFraction    float64
	AlternativeMatchID  model.MatchID
	Passed              bool
	HostErrorDetected   bool
	// FailedFetches lists players whose history could not be fetched; they count as absent.
	FailedFetches []model.PlayerID
	Threshold     float64
	Reason        string
}

// Resolved reports whether some candidate reached the threshold.
func (r Result) Resolved() bool {
	return r.ResolvedMatchID != ""
}

// Reconciler cross-references roster histories. It holds no per-request state
// and is safe for concurrent use.
type Reconciler struct {
	provider       provider.Provider
	threshold      float64
	lookback       time.Duration
	fetchTimeout   time.Duration
	maxConcurrency int
	maxRosterSize  int
	log            logger.Logger
}

// New creates a Reconciler over p.
func New(p provider.Provider, opts ...Option) *Reconciler {
	r := &Reconciler{
		provider:       p,
		threshold:      DefaultThreshold,
		lookback:       DefaultLookback,
		fetchTimeout:   DefaultFetchTimeout,
		maxConcurrency: DefaultMaxConcurrency,
		maxRosterSize:  DefaultMaxRosterSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("reconcile")
	}
	return r
}

// Threshold returns the configured confirmation threshold.
func (r *Reconciler) Threshold() float64 { return r.threshold }

// Lookback returns the configured history window.
func (r *Reconciler) Lookback() time.Duration { return r.lookback }

type fetchFailure struct {
	reason string
	err    error
}

// Reconcile resolves claimed against the histories of roster.
// Input errors wrap model.ErrInvalidInput; a provider that failed for every
// player yields model.ErrProviderUnavailable. A negative outcome is not an error.
func (r *Reconciler) Reconcile(ctx context.Context, claimed model.MatchID, roster []model.PlayerID) (Result, error) {
	ctx, span := tracer.Start(ctx, "Reconciler.Reconcile")
	defer span.End()

	claimed, err := model.NormalizeMatchID(claimed)
	if err != nil {
		return Result{}, err
	}
	roster, err = model.NormalizeRoster(roster, r.maxRosterSize)
	if err != nil {
		return Result{}, err
	}
	span.SetAttributes(
		attribute.String("match.claimed", string(claimed)),
		attribute.Int("roster.size", len(roster)),
	)

	histories, failures := r.fetchHistories(ctx, roster)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("reconcile %s: %w", claimed, err)
	}
	if len(failures) == len(roster) && allUnavailable(failures) {
		return Result{}, fmt.Errorf("reconcile %s: history unavailable for all %d players: %w",
			claimed, len(roster), model.ErrProviderUnavailable)
	}

	res := evaluate(claimed, roster, histories, r.threshold)
	for _, p := range roster {
		if f, ok := failures[p]; ok {
			res.FailedFetches = append(res.FailedFetches, p)
			metrics.RecordHistoryFetchFailure(f.reason)
		}
	}
	if n := len(res.FailedFetches); n > 0 {
		res.Reason += fmt.Sprintf(" (%d of %d histories unavailable, counted as absent)", n, len(roster))
	}

	span.SetAttributes(
		attribute.Bool("reconcile.passed", res.Passed),
		attribute.Bool("reconcile.host_error", res.HostErrorDetected),
		attribute.Float64("reconcile.matched_fraction", res.MatchedFraction),
	)
	r.log.Debug(ctx, "reconciled match",
		logger.String("claimed", string(claimed)),
		logger.String("resolved", string(res.ResolvedMatchID)),
		logger.Float64("matched_fraction", res.MatchedFraction),
		logger.Bool("host_error", res.HostErrorDetected),
		logger.Int("failed_fetches", len(res.FailedFetches)),
	)
	return res, nil
}

// fetchHistories fans out one fetch per player. A failed fetch never cancels
// the others; it is recorded and the player is left without history.
func (r *Reconciler) fetchHistories(ctx context.Context, roster []model.PlayerID) (map[model.PlayerID]map[model.MatchID]struct{}, map[model.PlayerID]fetchFailure) {
	var (
		mu        sync.Mutex
		histories = make(map[model.PlayerID]map[model.MatchID]struct{}, len(roster))
		failures  = make(map[model.PlayerID]fetchFailure)
		g         errgroup.Group
	)
	g.SetLimit(r.maxConcurrency)

	for _, p := range roster {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
			defer cancel()

			ids, err := r.provider.PlayerMatchHistory(fctx, p, r.lookback)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f := fetchFailure{reason: classify(err), err: err}
				failures[p] = f
				r.log.Warn(ctx, "player history fetch failed, counting as absent",
					logger.String("player_id", string(p)),
					logger.String("reason", f.reason),
					logger.Error(err),
				)
				return nil
			}
			set := make(map[model.MatchID]struct{}, len(ids))
			for _, id := range ids {
				set[id] = struct{}{}
			}
			histories[p] = set
			return nil
		})
	}
	_ = g.Wait()
	return histories, failures
}

func classify(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return reasonNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, model.ErrProviderUnavailable):
		return reasonUnavailable
	default:
		return reasonOther
	}
}

// allUnavailable reports whether every failure points at the source itself
// rather than at a single player.
func allUnavailable(failures map[model.PlayerID]fetchFailure) bool {
	for _, f := range failures {
		if f.reason != reasonUnavailable && f.reason != reasonTimeout {
			return false
		}
	}
	return len(failures) > 0
}

// evaluate is the pure part of reconciliation. Each candidate's count is
// divided by the roster size and compared to the threshold with >=, so a
// fraction equal to the threshold passes.
func evaluate(claimed model.MatchID, roster []model.PlayerID, histories map[model.PlayerID]map[model.MatchID]struct{}, threshold float64) Result {
	n := len(roster)
	res := Result{
		OriginalMatchID: claimed,
		Roster:          roster,
		Threshold:       threshold,
	}

	counts := make(map[model.MatchID]int)
	for _, p := range roster {
		h := histories[p]
		if _, ok := h[claimed]; ok {
			res.PlayersWithMatch = append(res.PlayersWithMatch, p)
		} else {
			res.PlayersWithoutMatch = append(res.PlayersWithoutMatch, p)
		}
		for id := range h {
			counts[id]++
		}
	}

	reaches := func(k int) bool { return fraction(k, n) >= threshold }

	k := len(res.PlayersWithMatch)
	res.MatchedFraction = fraction(k, n)
	if reaches(k) {
		res.Passed = true
		res.ResolvedMatchID = claimed
		res.ResolvedFraction = res.MatchedFraction
		res.Reason = fmt.Sprintf("%d of %d players have match %s in their history", k, n, claimed)
		return res
	}

	best, bestCount := bestCandidate(counts)
	if best != "" && reaches(bestCount) {
		res.Passed = true
		res.HostErrorDetected = true
		res.ResolvedMatchID = best
		res.AlternativeMatchID = best
		res.ResolvedFraction = fraction(bestCount, n)
		res.Reason = fmt.Sprintf("host error: claimed match %s found for %d of %d players; %d of %d share match %s",
			claimed, k, n, bestCount, n, best)
		return res
	}

	res.Reason = fmt.Sprintf("match %s found for %d of %d players and no alternative reaches %.0f%%",
		claimed, k, n, threshold*100)
	return res
}

// bestCandidate picks the most shared match id, smallest id first on ties.
func bestCandidate(counts map[model.MatchID]int) (model.MatchID, int) {
	ids := make([]model.MatchID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) == 0 {
		return "", 0
	}
	return ids[0], counts[ids[0]]
}

func fraction(k, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(k) / float64(n)
}
