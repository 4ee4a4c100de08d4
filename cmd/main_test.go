package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/tournify/internal/config"
	"github.com/okian/tournify/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("TOURNIFY_ADDR", ":8080")
			_ = os.Setenv("TOURNIFY_MATCH_THRESHOLD", "0.8")
			defer func() {
				_ = os.Unsetenv("TOURNIFY_ADDR")
				_ = os.Unsetenv("TOURNIFY_MATCH_THRESHOLD")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MatchThreshold, convey.ShouldEqual, 0.8)
			})
		})

		convey.Convey("When wiring the service and HTTP server from defaults", func() {
			cfg := config.New()
			svc := newService(cfg, logger.Get())
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			srv := newHTTPServer(context.Background(), cfg, svc, logger.Get())

			convey.Convey("Then the server carries the configured address and timeouts", func() {
				convey.So(srv.Addr, convey.ShouldEqual, ":9080")
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			})

			convey.Convey("And the API and docs routes are mounted", func() {
				for _, path := range []string{"/health", "/stats", "/metrics", "/openapi.yaml", "/api-docs"} {
					w := httptest.NewRecorder()
					srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("And the service reflects the configuration", func() {
				stats := svc.GetStats()
				convey.So(stats["threshold"], convey.ShouldEqual, 0.70)
				convey.So(stats["started"], convey.ShouldEqual, true)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns without panicking", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx, 10*time.Millisecond) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating system metrics directly", func() {
			convey.Convey("Then it should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}
