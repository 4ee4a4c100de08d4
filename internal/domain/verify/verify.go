// Package verify checks resolved matches against the caller's expectations.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/provider"
	"github.com/okian/tournify/internal/domain/reconcile"
	"github.com/okian/tournify/pkg/logger"
	"github.com/okian/tournify/pkg/metrics"
)

var tracer = otel.Tracer("github.com/okian/tournify/internal/domain/verify")

// DefaultStartTimeTolerance is the allowed start time drift.
const DefaultStartTimeTolerance = 5 * time.Minute

// Expectations describe what the caller believes about the match. A nil
// StartTime or empty Map leaves that check NotChecked.
type Expectations struct {
	StartTime *time.Time
	Map       string
}

// Result extends a reconciliation with the detail checks.
type Result struct {
	reconcile.Result

	DetailsVerified bool
	TimeCheck       model.CheckStatus
	MapCheck        model.CheckStatus
	// ReconciliationPassed keeps the history outcome; Passed covers both stages.
	ReconciliationPassed bool
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithStartTimeTolerance sets the inclusive start time tolerance.
func WithStartTimeTolerance(d time.Duration) Option {
	return func(v *Verifier) {
		if d >= 0 {
			v.tolerance = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.log = l
		}
	}
}

// Verifier fetches details for a resolved match and checks them.
type Verifier struct {
	provider  provider.Provider
	tolerance time.Duration
	log       logger.Logger
}

// New creates a Verifier over p.
func New(p provider.Provider, opts ...Option) *Verifier {
	v := &Verifier{provider: p, tolerance: DefaultStartTimeTolerance}
	for _, opt := range opts {
		opt(v)
	}
	if v.log == nil {
		v.log = logger.Get().Named("verify")
	}
	return v
}

// Tolerance returns the configured start time tolerance.
func (v *Verifier) Tolerance() time.Duration { return v.tolerance }

// Verify checks the details of rec's resolved match against exp. When rec is
// unresolved no fetch happens and both checks stay NotChecked. The fetched
// details are returned so callers can rank without a second fetch. Missing
// details wrap model.ErrNotFound.
func (v *Verifier) Verify(ctx context.Context, rec reconcile.Result, exp Expectations) (Result, *model.MatchDetails, error) {
	ctx, span := tracer.Start(ctx, "Verifier.Verify")
	defer span.End()

	res := Result{Result: rec, ReconciliationPassed: rec.Passed}
	if !rec.Resolved() {
		res.Passed = false
		return res, nil, nil
	}
	span.SetAttributes(attribute.String("match.resolved", string(rec.ResolvedMatchID)))

	details, err := v.provider.MatchDetails(ctx, rec.ResolvedMatchID)
	if err != nil {
		return Result{}, nil, fmt.Errorf("verify %s: %w", rec.ResolvedMatchID, err)
	}

	res.TimeCheck = CheckStartTime(details.StartTime, exp.StartTime, v.tolerance)
	res.MapCheck = CheckMap(details.Map, exp.Map)
	metrics.RecordDetailCheck("time", res.TimeCheck.String())
	metrics.RecordDetailCheck("map", res.MapCheck.String())

	res.DetailsVerified = res.TimeCheck != model.CheckFailed && res.MapCheck != model.CheckFailed
	res.Passed = rec.Passed && res.DetailsVerified

	if !res.DetailsVerified {
		var failed []string
		if res.TimeCheck == model.CheckFailed {
			failed = append(failed, fmt.Sprintf("start time %s is more than %s from expected",
				details.StartTime.UTC().Format(time.RFC3339), v.tolerance))
		}
		if res.MapCheck == model.CheckFailed {
			failed = append(failed, fmt.Sprintf("map %q does not match expected %q", details.Map, exp.Map))
		}
		res.Reason = rec.Reason + "; details mismatch: " + strings.Join(failed, ", ")
	}

	span.SetAttributes(attribute.Bool("verify.details_verified", res.DetailsVerified))
	v.log.Debug(ctx, "verified match details",
		logger.String("match_id", string(details.MatchID)),
		logger.String("time_check", res.TimeCheck.String()),
		logger.String("map_check", res.MapCheck.String()),
	)
	return res, &details, nil
}

// CheckStartTime passes when actual is within tolerance of expected, both
// sides inclusive. Instants are compared in UTC.
func CheckStartTime(actual time.Time, expected *time.Time, tolerance time.Duration) model.CheckStatus {
	if expected == nil {
		return model.CheckNotChecked
	}
	delta := actual.UTC().Sub(expected.UTC())
	if delta < 0 {
		delta = -delta
	}
	return model.CheckOf(delta <= tolerance)
}

// CheckMap compares map names ignoring case and surrounding space.
func CheckMap(actual, expected string) model.CheckStatus {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return model.CheckNotChecked
	}
	return model.CheckOf(strings.EqualFold(strings.TrimSpace(actual), expected))
}
