package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/tournify/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ProviderURL, convey.ShouldEqual, "http://localhost:8001")
			convey.So(cfg.MatchThreshold, convey.ShouldEqual, 0.70)
			convey.So(cfg.Lookback(), convey.ShouldEqual, 30*24*time.Hour)
			convey.So(cfg.StartTimeTolerance(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.ProviderTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.MockSharedMatchID, convey.ShouldEqual, "test_match_123")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cases := map[string]func(*config.Config){
			"zero threshold":      func(c *config.Config) { c.MatchThreshold = 0 },
			"threshold above one": func(c *config.Config) { c.MatchThreshold = 1.01 },
			"zero lookback":       func(c *config.Config) { c.LookbackDays = 0 },
			"negative tolerance":  func(c *config.Config) { c.StartTimeToleranceSec = -1 },
			"zero roster size":    func(c *config.Config) { c.MaxRosterSize = 0 },
			"empty provider url":  func(c *config.Config) { c.ProviderURL = "" },
			"inverted latency":    func(c *config.Config) { c.MockLatencyMinMS = 10; c.MockLatencyMaxMS = 5 },
		}

		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				cfg := config.New()
				mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When threshold is exactly one", func() {
			cfg := config.New()
			cfg.MatchThreshold = 1

			convey.Convey("Then it is accepted", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
