package mockdata_test

import (
	"testing"
	"time"

	"github.com/okian/tournify/internal/adapters/mockdata"
	"github.com/okian/tournify/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	Convey("Given a seeded generator", t, func() {
		g := mockdata.New(mockdata.WithSeed(7), mockdata.WithClock(clock))

		Convey("When generating details for a match", func() {
			d := g.Details("abc")

			Convey("Then it has ten well-formed players", func() {
				So(d.MatchID, ShouldEqual, model.MatchID("abc"))
				So(len(d.Players), ShouldEqual, 10)
				So(d.Players[0].PlayerID, ShouldEqual, model.PlayerID("player_abc_1"))
				So(d.Players[9].PlayerID, ShouldEqual, model.PlayerID("player_abc_10"))
				for _, p := range d.Players {
					So(p.Kills, ShouldBeBetweenOrEqual, 0, 25)
					So(p.AverageCombatScore, ShouldBeBetweenOrEqual, 150.0, 350.0)
				}
				So(mockdata.Maps, ShouldContain, d.Map)
				So(d.StartTime.After(now.Add(-30*24*time.Hour)), ShouldBeTrue)
				So(d.StartTime.After(now), ShouldBeFalse)
			})

			Convey("Then generation is deterministic", func() {
				So(g.Details("abc"), ShouldResemble, d)
				other := mockdata.New(mockdata.WithSeed(7), mockdata.WithClock(clock))
				So(other.Details("abc"), ShouldResemble, d)
			})
		})

		Convey("When generating histories", func() {
			h := g.History("player_test_match_123_3", 0)

			Convey("Then four unique matches precede the shared one", func() {
				So(h, ShouldResemble, []model.MatchID{
					"player_3_match_1", "player_3_match_2", "player_3_match_3", "player_3_match_4", "test_match_123",
				})
			})

			Convey("Then short ids fall back to player number 1", func() {
				So(g.History("bob", 0)[0], ShouldEqual, model.MatchID("player_1_match_1"))
			})

			Convey("Then a narrow window drops older matches", func() {
				narrow := g.History("player_test_match_123_3", time.Nanosecond)
				So(len(narrow), ShouldBeLessThanOrEqualTo, 5)
				full := g.History("player_test_match_123_3", 31*24*time.Hour)
				So(len(full), ShouldEqual, 5)
			})
		})

		Convey("When the shared match details are pinned", func() {
			start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
			pinned := mockdata.New(mockdata.WithClock(clock), mockdata.WithSharedMatchDetails("Ascent", start))
			d := pinned.Details(pinned.SharedMatch())

			Convey("Then the shared match uses them", func() {
				So(d.Map, ShouldEqual, "Ascent")
				So(d.StartTime.Equal(start), ShouldBeTrue)
			})
		})
	})
}
