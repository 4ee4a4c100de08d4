// Command matchcheck validates match claims against a running API and
// prints the result or the leaderboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tournify/internal/matchcheck"
)

const defaultTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &matchcheck.Config{}

	root := &cobra.Command{
		Use:           "matchcheck",
		Short:         "Validate match claims against the Tournify API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the API")
	root.PersistentFlags().StringVar(&cfg.MatchID, "match", "", "claimed match id")
	root.PersistentFlags().StringArrayVar(&cfg.PlayerIDs, "player", nil, "roster player id (repeatable)")
	root.PersistentFlags().StringVar(&cfg.StartTime, "start", "", "expected start time, RFC3339 (no zone means UTC)")
	root.PersistentFlags().StringVar(&cfg.Map, "map", "", "expected map")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	root.PersistentFlags().StringVarP(&cfg.Format, "output", "o", matchcheck.FormatTable, "output format: table, json or yaml")

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that the roster played the claimed match",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return matchcheck.RunValidate(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "leaderboard",
		Short: "Validate the claim and print the ranked roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return matchcheck.RunLeaderboard(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	})
	return root
}
