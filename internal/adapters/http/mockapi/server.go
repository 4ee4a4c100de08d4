// Package mockapi serves generated match data over the provider HTTP contract.
package mockapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/tournify/internal/adapters/mockdata"
	"github.com/okian/tournify/internal/adapters/provider/httpclient"
	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLatencyRange delays every data response by a random duration in [min, max].
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Server) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server exposes a mockdata.Generator.
type Server struct {
	gen        *mockdata.Generator
	minLatency time.Duration
	maxLatency time.Duration
	log        logger.Logger

	mu     sync.Mutex
	jitter *gofakeit.Faker
}

// New creates a Server over gen.
func New(gen *mockdata.Generator, opts ...Option) *Server {
	s := &Server{gen: gen, jitter: gofakeit.New(0)}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("mockapi")
	}
	return s
}

// Routes returns the chi router for the mock provider.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.latency)
		r.Post(httpclient.PathMatch, s.handleMatch)
		r.Post(httpclient.PathHistory, s.handleHistory)
	})
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Mock match data provider is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req httpclient.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := strings.TrimSpace(req.MatchID)
	if id == "" {
		writeDetail(w, http.StatusBadRequest, "match_id must not be empty")
		return
	}

	d := s.gen.Details(model.MatchID(id))
	resp := httpclient.MatchResponse{
		MatchID:        string(d.MatchID),
		MatchStartTime: d.StartTime.Format(time.RFC3339),
		Map:            d.Map,
		Players:        make([]httpclient.PlayerStats, 0, len(d.Players)),
	}
	for _, p := range d.Players {
		resp.Players = append(resp.Players, httpclient.PlayerStats{
			PlayerID:           string(p.PlayerID),
			Kills:              p.Kills,
			AverageCombatScore: p.AverageCombatScore,
		})
	}
	s.log.Debug(r.Context(), "served match details", logger.String("match_id", id), logger.String("map", d.Map))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req httpclient.HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := strings.TrimSpace(req.PlayerID)
	if id == "" {
		writeDetail(w, http.StatusBadRequest, "player_id must not be empty")
		return
	}
	if req.WindowDays < 0 {
		writeDetail(w, http.StatusBadRequest, "window_days must not be negative")
		return
	}

	window := time.Duration(req.WindowDays) * 24 * time.Hour
	ids := s.gen.History(model.PlayerID(id), window)
	resp := httpclient.HistoryResponse{PlayerID: id, RecentMatches: make([]string, 0, len(ids))}
	for _, m := range ids {
		resp.RecentMatches = append(resp.RecentMatches, string(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// latency simulates a slow upstream.
func (s *Server) latency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d := s.nextDelay(); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-r.Context().Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) nextDelay() time.Duration {
	if s.maxLatency <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.jitter.Number(int(s.minLatency), int(s.maxLatency)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, httpclient.ErrorResponse{Detail: detail})
}
