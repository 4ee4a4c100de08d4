package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/tournify/internal/adapters/provider/httpclient"
	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newClient(url string, opts ...httpclient.Option) *httpclient.Client {
	base := []httpclient.Option{
		httpclient.WithInitialBackoff(time.Millisecond),
		httpclient.WithRateLimit(0, 0),
	}
	return httpclient.New(url, append(base, opts...)...)
}

func TestClient_History(t *testing.T) {
	Convey("Given a provider that returns a history", t, func() {
		var got httpclient.HistoryRequest
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(httpclient.HistoryResponse{
				PlayerID:      got.PlayerID,
				RecentMatches: []string{"m1", "m2"},
			})
		}))
		defer srv.Close()

		c := newClient(srv.URL, httpclient.WithAPIKey("key-123"))
		ids, err := c.PlayerMatchHistory(context.Background(), "p1", 36*time.Hour)

		Convey("Then the ids are returned and the request is well formed", func() {
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []model.MatchID{"m1", "m2"})
			So(got.PlayerID, ShouldEqual, "p1")
			So(got.WindowDays, ShouldEqual, 2)
			So(auth, ShouldEqual, "key-123")
		})
	})
}

func TestClient_Details(t *testing.T) {
	Convey("Given a provider that returns match details", t, func() {
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_ = json.NewEncoder(w).Encode(httpclient.MatchResponse{
				MatchID:        "m1",
				MatchStartTime: "2024-01-15T14:30:00.123456",
				Map:            "Ascent",
				Players: []httpclient.PlayerStats{
					{PlayerID: "p1", Kills: 12, AverageCombatScore: 240.5},
				},
			})
		}))
		defer srv.Close()

		d, err := newClient(srv.URL).MatchDetails(context.Background(), "m1")

		Convey("Then the zone-less start time is read as UTC", func() {
			So(err, ShouldBeNil)
			So(path, ShouldEqual, httpclient.PathMatch)
			So(d.Map, ShouldEqual, "Ascent")
			So(d.StartTime.Location(), ShouldEqual, time.UTC)
			So(d.StartTime.Hour(), ShouldEqual, 14)
			So(d.Players, ShouldResemble, []model.PerformanceRecord{{PlayerID: "p1", Kills: 12, AverageCombatScore: 240.5}})
		})
	})
}

func TestClient_Errors(t *testing.T) {
	Convey("Given a provider that answers 404", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(httpclient.ErrorResponse{Detail: "Match not found"})
		}))
		defer srv.Close()

		_, err := newClient(srv.URL, httpclient.WithMaxRetries(3)).MatchDetails(context.Background(), "m1")

		Convey("Then not found is returned without retrying", func() {
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Match not found")
			So(calls.Load(), ShouldEqual, 1)
		})
	})

	Convey("Given a provider that fails once then recovers", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(httpclient.HistoryResponse{RecentMatches: []string{"m1"}})
		}))
		defer srv.Close()

		ids, err := newClient(srv.URL).PlayerMatchHistory(context.Background(), "p1", time.Hour)

		Convey("Then the retry succeeds", func() {
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []model.MatchID{"m1"})
			So(calls.Load(), ShouldEqual, 2)
		})
	})

	Convey("Given a provider that always fails", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newClient(srv.URL, httpclient.WithMaxRetries(2)).PlayerMatchHistory(context.Background(), "p1", time.Hour)

		Convey("Then retries are bounded and the error is unavailable", func() {
			So(errors.Is(err, model.ErrProviderUnavailable), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, 3)
		})
	})

	Convey("Given a provider that cannot be reached", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newClient(url, httpclient.WithMaxRetries(0)).MatchDetails(context.Background(), "m1")

		Convey("Then the error is unavailable", func() {
			So(errors.Is(err, model.ErrProviderUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a provider slower than the attempt timeout", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		c := newClient(srv.URL, httpclient.WithTimeout(20*time.Millisecond), httpclient.WithMaxRetries(0))
		_, err := c.MatchDetails(context.Background(), "m1")

		Convey("Then the attempt is abandoned as unavailable", func() {
			So(errors.Is(err, model.ErrProviderUnavailable), ShouldBeTrue)
		})
	})
}

func TestRetryBudget(t *testing.T) {
	Convey("Given a per-attempt timeout", t, func() {
		timeout := 100 * time.Millisecond

		Convey("When retries are disabled", func() {
			Convey("Then the budget is one attempt", func() {
				So(httpclient.RetryBudget(timeout, 0), ShouldEqual, timeout)
			})
		})

		Convey("When two retries are allowed", func() {
			Convey("Then the budget covers three attempts and both waits", func() {
				So(httpclient.RetryBudget(timeout, 2), ShouldEqual, 675*time.Millisecond)
			})
		})
	})
}
