// Package httpclient implements the match data provider over HTTP.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/provider"
	"github.com/okian/tournify/pkg/logger"
	"github.com/okian/tournify/pkg/metrics"
)

var tracer = otel.Tracer("github.com/okian/tournify/internal/adapters/provider/httpclient")

// Provider API paths.
const (
	PathMatch   = "/matches/"
	PathHistory = "/matches/player-history"
)

const (
	opHistory = "history"
	opDetails = "details"

	maxErrorBody = 4 << 10
)

// Client calls the provider API. Safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	limiter        *rate.Limiter
	http           *http.Client
	log            logger.Logger
}

var _ provider.Provider = (*Client)(nil)

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		timeout:        defaultTimeout,
		maxRetries:     defaultMaxRetries,
		initialBackoff: defaultBackoff,
		limiter:        rate.NewLimiter(defaultRate, defaultBurst),
		http:           &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("provider.http")
	}
	return c
}

// PlayerMatchHistory implements provider.Provider. The window is sent in whole
// days, rounded up.
func (c *Client) PlayerMatchHistory(ctx context.Context, p model.PlayerID, window time.Duration) ([]model.MatchID, error) {
	ctx, span := tracer.Start(ctx, "httpclient.PlayerMatchHistory")
	defer span.End()
	span.SetAttributes(attribute.String("player.id", string(p)))

	req := HistoryRequest{PlayerID: string(p), WindowDays: int(math.Ceil(window.Hours() / 24))}
	var resp HistoryResponse
	if err := c.call(ctx, opHistory, PathHistory, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("player history %s: %w", p, err)
	}

	ids := make([]model.MatchID, 0, len(resp.RecentMatches))
	for _, m := range resp.RecentMatches {
		ids = append(ids, model.MatchID(m))
	}
	return ids, nil
}

// MatchDetails implements provider.Provider.
func (c *Client) MatchDetails(ctx context.Context, id model.MatchID) (model.MatchDetails, error) {
	ctx, span := tracer.Start(ctx, "httpclient.MatchDetails")
	defer span.End()
	span.SetAttributes(attribute.String("match.id", string(id)))

	var resp MatchResponse
	if err := c.call(ctx, opDetails, PathMatch, MatchRequest{MatchID: string(id)}, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.MatchDetails{}, fmt.Errorf("match details %s: %w", id, err)
	}

	start, err := model.ParseTime(resp.MatchStartTime)
	if err != nil {
		return model.MatchDetails{}, fmt.Errorf("match details %s: bad start time: %w", id, model.ErrProviderUnavailable)
	}
	d := model.MatchDetails{
		MatchID:   model.MatchID(resp.MatchID),
		StartTime: start,
		Map:       resp.Map,
		Players:   make([]model.PerformanceRecord, 0, len(resp.Players)),
	}
	if d.MatchID == "" {
		d.MatchID = id
	}
	for _, p := range resp.Players {
		d.Players = append(d.Players, model.PerformanceRecord{
			PlayerID:           model.PlayerID(p.PlayerID),
			Kills:              p.Kills,
			AverageCombatScore: p.AverageCombatScore,
		})
	}
	return d, nil
}

// call POSTs body to path and decodes the JSON reply into out, retrying
// transient failures with exponential backoff.
func (c *Client) call(ctx context.Context, op, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	attempt := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		return c.do(ctx, path, payload, out)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	err = backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		metrics.RecordProviderRetry(op)
		c.log.Debug(ctx, "retrying provider call",
			logger.String("op", op),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	})

	metrics.RecordProviderRequest(op, resultLabel(err), float64(time.Since(start).Milliseconds()))
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%w: %w", err, ctx.Err())
	}
	return err
}

// do performs one attempt. Non-retryable outcomes are wrapped in backoff.Permanent.
func (c *Client) do(ctx context.Context, path string, payload []byte, out interface{}) error {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("%w: %w", model.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %s", model.ErrNotFound, readDetail(resp.Body)))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", model.ErrProviderUnavailable, resp.StatusCode, readDetail(resp.Body))
	case resp.StatusCode >= http.StatusBadRequest:
		return backoff.Permanent(fmt.Errorf("provider rejected request: status %d: %s", resp.StatusCode, readDetail(resp.Body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: decode response: %w", model.ErrProviderUnavailable, err))
	}
	return nil
}

func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e ErrorResponse
	if json.Unmarshal(raw, &e) == nil && e.Detail != "" {
		return e.Detail
	}
	return strings.TrimSpace(string(raw))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, model.ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
