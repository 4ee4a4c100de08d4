// Package memory implements an in-process match data provider with failure
// and latency injection. It backs tests and local demos.
package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tournify/internal/domain/model"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLatencyRange sets the simulated latency range of every call.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Store) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithClock overrides the clock used for window filtering.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a Provider backed by maps. Safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	details       map[model.MatchID]model.MatchDetails
	histories     map[model.PlayerID][]model.MatchID
	historyErrors map[model.PlayerID]error
	detailsErrors map[model.MatchID]error
	blockPlayers  map[model.PlayerID]struct{}
	unavailable   bool
	calls         map[string]int

	minLatency time.Duration
	maxLatency time.Duration
	rng        *rand.Rand
	now        func() time.Time
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		details:       make(map[model.MatchID]model.MatchDetails),
		histories:     make(map[model.PlayerID][]model.MatchID),
		historyErrors: make(map[model.PlayerID]error),
		detailsErrors: make(map[model.MatchID]error),
		blockPlayers:  make(map[model.PlayerID]struct{}),
		calls:         make(map[string]int),
		rng:           rand.New(rand.NewSource(42)), //nolint:gosec // deterministic latency for reproducible tests
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMatchID returns a fresh random match id.
func NewMatchID() model.MatchID {
	return model.MatchID(uuid.NewString())
}

// PutDetails stores d under its MatchID.
func (s *Store) PutDetails(d model.MatchDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[d.MatchID] = d
}

// SetHistory replaces a player's history.
func (s *Store) SetHistory(p model.PlayerID, matches ...model.MatchID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[p] = append([]model.MatchID(nil), matches...)
}

// AddToHistory appends match to the history of every player in players.
func (s *Store) AddToHistory(match model.MatchID, players ...model.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		s.histories[p] = append(s.histories[p], match)
	}
}

// FailHistory makes history fetches for p return err.
func (s *Store) FailHistory(p model.PlayerID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyErrors[p] = err
}

// FailDetails makes details fetches for m return err.
func (s *Store) FailDetails(m model.MatchID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailsErrors[m] = err
}

// BlockHistory makes history fetches for p hang until the context ends.
func (s *Store) BlockHistory(p model.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockPlayers[p] = struct{}{}
}

// SetUnavailable makes every call fail with model.ErrProviderUnavailable.
func (s *Store) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

// Calls returns how many times op ("history" or "details") was invoked.
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// PlayerMatchHistory returns the stored history. Matches whose details are
// known and started before the window are left out. Unknown players have an
// empty history.
func (s *Store) PlayerMatchHistory(ctx context.Context, p model.PlayerID, window time.Duration) ([]model.MatchID, error) {
	s.mu.Lock()
	s.calls["history"]++
	_, blocked := s.blockPlayers[p]
	latency := s.latencyLocked()
	s.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, fmt.Errorf("history %s: %w", p, ctx.Err())
	}
	if err := sleep(ctx, latency); err != nil {
		return nil, fmt.Errorf("history %s: %w", p, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable {
		return nil, fmt.Errorf("history %s: %w", p, model.ErrProviderUnavailable)
	}
	if err := s.historyErrors[p]; err != nil {
		return nil, fmt.Errorf("history %s: %w", p, err)
	}

	cutoff := s.now().Add(-window)
	out := make([]model.MatchID, 0, len(s.histories[p]))
	for _, m := range s.histories[p] {
		if d, ok := s.details[m]; ok && window > 0 && d.StartTime.Before(cutoff) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// MatchDetails returns a copy of the stored details.
func (s *Store) MatchDetails(ctx context.Context, m model.MatchID) (model.MatchDetails, error) {
	s.mu.Lock()
	s.calls["details"]++
	latency := s.latencyLocked()
	s.mu.Unlock()

	if err := sleep(ctx, latency); err != nil {
		return model.MatchDetails{}, fmt.Errorf("details %s: %w", m, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable {
		return model.MatchDetails{}, fmt.Errorf("details %s: %w", m, model.ErrProviderUnavailable)
	}
	if err := s.detailsErrors[m]; err != nil {
		return model.MatchDetails{}, fmt.Errorf("details %s: %w", m, err)
	}
	d, ok := s.details[m]
	if !ok {
		return model.MatchDetails{}, fmt.Errorf("details %s: %w", m, model.ErrNotFound)
	}
	d.Players = append([]model.PerformanceRecord(nil), d.Players...)
	return d, nil
}

// latencyLocked must be called with s.mu held for writing.
func (s *Store) latencyLocked() time.Duration {
	if s.maxLatency <= 0 {
		return 0
	}
	if s.maxLatency == s.minLatency {
		return s.minLatency
	}
	return s.minLatency + time.Duration(s.rng.Int63n(int64(s.maxLatency-s.minLatency)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
