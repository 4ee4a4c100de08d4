// Command mock-provider serves deterministic match data for local runs and
// smoke tests of the validation API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tournify/internal/adapters/http/mockapi"
	"github.com/okian/tournify/internal/adapters/mockdata"
	"github.com/okian/tournify/internal/config"
	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("mock-provider")
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	// Validate has already parsed it once.
	sharedStart, _ := cfg.MockSharedStart()
	gen := mockdata.New(
		mockdata.WithSeed(cfg.MockSeed),
		mockdata.WithSharedMatch(model.MatchID(cfg.MockSharedMatchID)),
		mockdata.WithSharedMatchDetails(cfg.MockSharedMap, sharedStart),
	)
	minLatency, maxLatency := cfg.MockLatency()
	server := mockapi.New(gen,
		mockapi.WithLatencyRange(minLatency, maxLatency),
		mockapi.WithLogger(log),
	)

	srv := &http.Server{
		Addr:              cfg.MockAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "starting mock provider",
			logger.String("addr", cfg.MockAddr),
			logger.String("shared_match_id", cfg.MockSharedMatchID),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "mock provider failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "mock provider shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "mock provider stopped")
}
