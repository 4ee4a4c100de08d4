package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/tournify/internal/adapters/http/api"
	"github.com/okian/tournify/internal/adapters/provider/memory"
	service "github.com/okian/tournify/internal/app"
	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/verify"
	"github.com/okian/tournify/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// Mock implementations for testing
type mockDependencies struct {
	validateErr    error
	leaderboardErr error
	lastRequest    service.Request
}

func (m *mockDependencies) ValidateMatch(_ context.Context, req service.Request) (verify.Result, error) {
	m.lastRequest = req
	if m.validateErr != nil {
		return verify.Result{}, m.validateErr
	}
	var res verify.Result
	res.OriginalMatchID = req.MatchID
	res.ResolvedMatchID = req.MatchID
	res.MatchedFraction = 1
	res.Passed = true
	res.PlayersWithMatch = req.Roster
	return res, nil
}

func (m *mockDependencies) GetLeaderboard(_ context.Context, req service.Request) (service.Leaderboard, error) {
	m.lastRequest = req
	if m.leaderboardErr != nil {
		return service.Leaderboard{}, m.leaderboardErr
	}
	return service.Leaderboard{
		Details: model.MatchDetails{MatchID: req.MatchID, Map: "Ascent", StartTime: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)},
		Entries: []model.LeaderboardEntry{{Rank: 1, PlayerID: req.Roster[0], Kills: 10, AverageCombatScore: 230}},
	}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

const validBody = `{"match_id":"m1","player_ids":["p1","p2"],"expected_start_time":"2024-01-15T14:30:00","expected_map":"Ascent"}`

func TestServer_Routes(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{}
		stats := &mockStatsProvider{stats: map[string]interface{}{"validations": 3}}
		h := api.NewServer(deps, stats, api.WithRateLimit(0)).Routes()

		Convey("Then the root endpoint answers", func() {
			w := do(h, "GET", "/", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["message"], ShouldContainSubstring, "running")
		})

		Convey("And health reports healthy with a timestamp", func() {
			w := do(h, "GET", "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["status"], ShouldEqual, "healthy")
			_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
			So(err, ShouldBeNil)
		})

		Convey("And stats are served from the provider", func() {
			w := do(h, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["validations"], ShouldEqual, 3.0)
		})

		Convey("And metrics are exposed", func() {
			do(h, "GET", "/health", "")
			w := do(h, "GET", "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "tournify_")
		})

		Convey("And every response carries a request id", func() {
			req := httptest.NewRequest("GET", "/health", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")

			w = do(h, "GET", "/health", "")
			So(w.Header().Get(api.HeaderRequestID), ShouldNotBeEmpty)
		})

		Convey("And unknown routes are 404", func() {
			So(do(h, "GET", "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods are rejected", func() {
			So(do(h, "GET", api.PathValidate, "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_Validate(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{}
		h := api.NewServer(deps, &mockStatsProvider{}, api.WithRateLimit(0)).Routes()

		Convey("When posting a valid request", func() {
			w := do(h, "POST", api.PathValidate, validBody)

			Convey("Then the request is converted and the result returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["match_id"], ShouldEqual, "m1")
				So(body["validation_passed"], ShouldBeTrue)
				So(body["percentage_with_match"], ShouldEqual, 100.0)
				So(body["time_check"], ShouldEqual, "not_checked")
				So(deps.lastRequest.ExpectedStartTime.Equal(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)), ShouldBeTrue)
				So(deps.lastRequest.ExpectedMap, ShouldEqual, "Ascent")
			})
		})

		Convey("When the body is malformed or incomplete", func() {
			bodies := []string{
				`{"match_id":`,
				`{"player_ids":["p1"]}`,
				`{"match_id":"m1","player_ids":[]}`,
				`{"match_id":"m1","player_ids":["p1"],"expected_start_time":"yesterday"}`,
			}

			Convey("Then each is rejected before reaching the service", func() {
				for _, body := range bodies {
					w := do(h, "POST", api.PathValidate, body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decode(w)["code"], ShouldEqual, "bad_request")
				}
				So(deps.lastRequest.MatchID, ShouldEqual, model.MatchID(""))
			})
		})

		Convey("When the service fails", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{fmt.Errorf("roster: %w", model.ErrInvalidInput), http.StatusBadRequest, "bad_request"},
				{fmt.Errorf("details: %w", model.ErrNotFound), http.StatusNotFound, "not_found"},
				{fmt.Errorf("histories: %w", model.ErrProviderUnavailable), http.StatusServiceUnavailable, "provider_unavailable"},
				{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
			}

			Convey("Then each error maps to its status", func() {
				for _, c := range cases {
					deps.validateErr = c.err
					w := do(h, "POST", api.PathValidate, validBody)
					So(w.Code, ShouldEqual, c.status)
					So(decode(w)["code"], ShouldEqual, c.code)
				}
			})
		})
	})
}

func TestServer_Leaderboard(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{}
		h := api.NewServer(deps, &mockStatsProvider{}, api.WithRateLimit(0)).Routes()

		Convey("When the leaderboard is generated", func() {
			w := do(h, "POST", api.PathLeaderboard, validBody)

			Convey("Then it returns the match and ranked entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["match_id"], ShouldEqual, "m1")
				So(body["map"], ShouldEqual, "Ascent")
				So(body["total_players"], ShouldEqual, 1.0)
				So(body["match_start_time"], ShouldEqual, "2024-01-15T14:30:00Z")
				entries := body["leaderboard"].([]interface{})
				So(entries[0].(map[string]interface{})["player_id"], ShouldEqual, "p1")
				So(entries[0].(map[string]interface{})["rank"], ShouldEqual, 1.0)
			})
		})

		Convey("When validation fails", func() {
			var res verify.Result
			res.OriginalMatchID = "m1"
			res.Reason = "details mismatch: map"
			res.MapCheck = model.CheckFailed
			deps.leaderboardErr = &service.ValidationError{Result: res}

			w := do(h, "POST", api.PathLeaderboard, validBody)

			Convey("Then it is a 400 carrying the validation result", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decode(w)
				So(body["code"], ShouldEqual, "validation_failed")
				So(body["validation"].(map[string]interface{})["map_check"], ShouldEqual, "failed")
			})
		})
	})
}

func TestServer_Claims(t *testing.T) {
	Convey("Given a new API server", t, func() {
		h := api.NewServer(&mockDependencies{}, &mockStatsProvider{}, api.WithRateLimit(0)).Routes()

		Convey("When a complete claim is posted", func() {
			w := do(h, "POST", api.PathClaims, `{"player_ids":["p1"],"match_start_time":"2024-01-15T14:30:00Z","match_map":"Bind","expected_match_id":"m1"}`)

			Convey("Then it is accepted with a generated id", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				body := decode(w)
				So(body["status"], ShouldEqual, "created")
				So(body["expected_match_id"], ShouldEqual, "m1")
				So(len(body["match_id"].(string)), ShouldEqual, 36)
			})
		})

		Convey("When the claim has no map", func() {
			w := do(h, "POST", api.PathClaims, `{"player_ids":["p1"],"match_start_time":"2024-01-15T14:30:00Z","expected_match_id":"m1"}`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestServer_RateLimit(t *testing.T) {
	Convey("Given a server limited to two requests per minute", t, func() {
		h := api.NewServer(&mockDependencies{}, &mockStatsProvider{}, api.WithRateLimit(2)).Routes()

		Convey("When a client sends three", func() {
			codes := make([]int, 3)
			for i := range codes {
				codes[i] = do(h, "POST", api.PathValidate, validBody).Code
			}

			Convey("Then the third is throttled", func() {
				So(codes[0], ShouldEqual, http.StatusOK)
				So(codes[1], ShouldEqual, http.StatusOK)
				So(codes[2], ShouldEqual, http.StatusTooManyRequests)
			})

			Convey("And health checks are not limited", func() {
				So(do(h, "GET", "/health", "").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestServer_EndToEnd(t *testing.T) {
	Convey("Given the API over a real service and an in-memory provider", t, func() {
		kickoff := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		store := memory.New(memory.WithClock(func() time.Time { return kickoff.Add(time.Hour) }))
		store.PutDetails(model.MatchDetails{
			MatchID:   "m1",
			StartTime: kickoff,
			Map:       "Ascent",
			Players: []model.PerformanceRecord{
				{PlayerID: "p1", Kills: 5, AverageCombatScore: 190},
				{PlayerID: "p2", Kills: 12, AverageCombatScore: 250},
				{PlayerID: "intruder", Kills: 30, AverageCombatScore: 340},
			},
		})
		store.AddToHistory("m1", "p1", "p2")

		svc := service.New(service.WithProvider(store))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		h := api.NewServer(svc, svc, api.WithRateLimit(0)).Routes()

		Convey("When the wrong id is claimed", func() {
			w := do(h, "POST", api.PathLeaderboard, `{"match_id":"typo","player_ids":["p1","p2"],"expected_start_time":"2024-01-15T14:33:00Z","expected_map":"ascent"}`)

			Convey("Then the real match is ranked without outsiders", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["match_id"], ShouldEqual, "m1")
				So(body["validation"].(map[string]interface{})["host_error"], ShouldBeTrue)
				entries := body["leaderboard"].([]interface{})
				So(len(entries), ShouldEqual, 2)
				So(entries[0].(map[string]interface{})["player_id"], ShouldEqual, "p2")
			})
		})

		Convey("When the roster did not play together", func() {
			w := do(h, "POST", api.PathValidate, `{"match_id":"m1","player_ids":["p1","p3","p4"]}`)

			Convey("Then validation fails as data", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["validation_passed"], ShouldBeFalse)
				So(body["players_without_match"], ShouldResemble, []interface{}{"p3", "p4"})
			})
		})
	})
}

func TestServer_CORS(t *testing.T) {
	Convey("Given a server that allows one origin", t, func() {
		h := api.NewServer(&mockDependencies{}, &mockStatsProvider{},
			api.WithRateLimit(0),
			api.WithCORS([]string{"https://tournify.example"}),
		).Routes()

		Convey("When a browser sends a preflight from that origin", func() {
			req := httptest.NewRequest(http.MethodOptions, api.PathValidate, http.NoBody)
			req.Header.Set("Origin", "https://tournify.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the origin is allowed", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://tournify.example")
			})
		})

		Convey("When the origin is unknown", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			req.Header.Set("Origin", "https://elsewhere.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then no allow header is sent", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})
	})
}
