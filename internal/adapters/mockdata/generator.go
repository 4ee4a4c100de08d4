// Package mockdata generates deterministic Valorant-style match data for the
// mock provider. The same seed and id always produce the same record.
package mockdata

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/tournify/internal/domain/model"
)

// Maps lists the maps a generated match can be played on.
var Maps = []string{
	"Ascent", "Bind", "Haven", "Split", "Icebox",
	"Breeze", "Fracture", "Pearl", "Lotus", "Sunset",
}

// Generation constants.
const (
	defaultPlayers       = 10
	uniqueHistoryMatches = 4
	maxKills             = 25
	baseACS              = 150.0
	acsPerKill           = 8.0
	acsVariation         = 0.15
	minACS               = 150.0
	maxACS               = 350.0
	startWindow          = 30 * 24 * time.Hour
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed sets the base seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = uint64(seed) }
}

// WithSharedMatch sets the match id every player's history contains.
func WithSharedMatch(id model.MatchID) Option {
	return func(g *Generator) {
		if id != "" {
			g.shared = id
		}
	}
}

// WithSharedMatchDetails pins the map and start time of the shared match.
// A zero start or empty map leaves that field generated.
func WithSharedMatchDetails(mapName string, start time.Time) Option {
	return func(g *Generator) {
		g.sharedMap = mapName
		g.sharedStart = start
	}
}

// WithClock overrides the reference time start times are generated from.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// Generator derives match details and histories from ids.
type Generator struct {
	seed        uint64
	shared      model.MatchID
	sharedMap   string
	sharedStart time.Time
	now         func() time.Time
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		seed:   42,
		shared: "test_match_123",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SharedMatch returns the id all generated histories contain.
func (g *Generator) SharedMatch() model.MatchID { return g.shared }

func (g *Generator) faker(id string) *gofakeit.Faker {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return gofakeit.New(g.seed ^ h.Sum64())
}

// Details generates the record for id: ten players named player_<id>_<n>,
// kills 0-25, and a combat score that follows kills with some noise.
func (g *Generator) Details(id model.MatchID) model.MatchDetails {
	f := g.faker("details:" + string(id))

	// Minute offsets keep the start time inside the last 30 days.
	offset := time.Duration(f.Number(0, int(startWindow/time.Minute)-1)) * time.Minute
	start := g.now().UTC().Truncate(time.Second).Add(-offset)
	mapName := f.RandomString(Maps)

	if id == g.shared {
		if !g.sharedStart.IsZero() {
			start = g.sharedStart.UTC()
		}
		if g.sharedMap != "" {
			mapName = g.sharedMap
		}
	}

	players := make([]model.PerformanceRecord, defaultPlayers)
	for i := range players {
		kills := f.Number(0, maxKills)
		acs := (baseACS + float64(kills)*acsPerKill) * (1 + f.Float64Range(-acsVariation, acsVariation))
		acs = math.Round(acs*100) / 100
		acs = math.Max(minACS, math.Min(maxACS, acs))
		players[i] = model.PerformanceRecord{
			PlayerID:           model.PlayerID(fmt.Sprintf("player_%s_%d", id, i+1)),
			Kills:              kills,
			AverageCombatScore: acs,
		}
	}

	return model.MatchDetails{
		MatchID:   id,
		StartTime: start,
		Map:       mapName,
		Players:   players,
	}
}

// History returns four matches unique to the player's number plus the shared
// match. Unique matches whose generated start time falls outside window are
// dropped; the shared match is always kept. window <= 0 disables filtering.
func (g *Generator) History(p model.PlayerID, window time.Duration) []model.MatchID {
	n := playerNumber(p)
	ids := make([]model.MatchID, 0, uniqueHistoryMatches+1)
	for i := 1; i <= uniqueHistoryMatches; i++ {
		ids = append(ids, model.MatchID(fmt.Sprintf("player_%s_match_%d", n, i)))
	}
	ids = append(ids, g.shared)

	if window <= 0 {
		return ids
	}
	cutoff := g.now().Add(-window)
	out := ids[:0]
	for _, id := range ids {
		if id != g.shared && g.Details(id).StartTime.Before(cutoff) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// playerNumber extracts the trailing number of ids like player_<match>_<n>.
// Anything shorter maps to "1".
func playerNumber(p model.PlayerID) string {
	parts := strings.Split(string(p), "_")
	if !strings.HasPrefix(string(p), "player_") || len(parts) < 4 {
		return "1"
	}
	return parts[len(parts)-1]
}
