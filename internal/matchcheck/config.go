// Package matchcheck is a client for the match validation API used by the
// matchcheck command to validate claims and print leaderboards.
package matchcheck

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrInvalidConfig is returned for unusable command settings.
var ErrInvalidConfig = errors.New("invalid matchcheck config")

// Config holds the settings of one matchcheck run.
type Config struct {
	BaseURL   string        // Base URL of the API
	MatchID   string        // Claimed match id
	PlayerIDs []string      // Roster
	StartTime string        // Expected start time, RFC3339
	Map       string        // Expected map
	Timeout   time.Duration // HTTP request timeout
	Format    string        // table, json or yaml
}

// Validate checks the settings shared by every subcommand.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: url is required", ErrInvalidConfig)
	case strings.TrimSpace(c.MatchID) == "":
		return fmt.Errorf("%w: match is required", ErrInvalidConfig)
	case len(c.PlayerIDs) == 0:
		return fmt.Errorf("%w: at least one player is required", ErrInvalidConfig)
	}
	switch c.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.Format)
	}
	return nil
}

// Request is the body sent to the validation and leaderboard endpoints.
type Request struct {
	MatchID           string   `json:"match_id"`
	PlayerIDs         []string `json:"player_ids"`
	ExpectedStartTime string   `json:"expected_start_time,omitempty"`
	ExpectedMap       string   `json:"expected_map,omitempty"`
}

// Validation is the validation result returned by the API.
type Validation struct {
	MatchID             string   `json:"match_id" yaml:"match_id"`
	ResolvedMatchID     string   `json:"resolved_match_id,omitempty" yaml:"resolved_match_id,omitempty"`
	AlternativeMatchID  string   `json:"alternative_match_id,omitempty" yaml:"alternative_match_id,omitempty"`
	PercentageWithMatch float64  `json:"percentage_with_match" yaml:"percentage_with_match"`
	ValidationPassed    bool     `json:"validation_passed" yaml:"validation_passed"`
	HostError           bool     `json:"host_error" yaml:"host_error"`
	PlayersWithMatch    []string `json:"players_with_match" yaml:"players_with_match"`
	PlayersWithoutMatch []string `json:"players_without_match" yaml:"players_without_match"`
	FailedFetches       []string `json:"failed_fetches,omitempty" yaml:"failed_fetches,omitempty"`
	TimeCheck           string   `json:"time_check" yaml:"time_check"`
	MapCheck            string   `json:"map_check" yaml:"map_check"`
	Message             string   `json:"message" yaml:"message"`
}

// Entry is one leaderboard row.
type Entry struct {
	Rank               int     `json:"rank" yaml:"rank"`
	PlayerID           string  `json:"player_id" yaml:"player_id"`
	Kills              int     `json:"kills" yaml:"kills"`
	AverageCombatScore float64 `json:"average_combat_score" yaml:"average_combat_score"`
}

// Leaderboard is the leaderboard returned by the API.
type Leaderboard struct {
	MatchID        string     `json:"match_id" yaml:"match_id"`
	Map            string     `json:"map" yaml:"map"`
	MatchStartTime time.Time  `json:"match_start_time" yaml:"match_start_time"`
	TotalPlayers   int        `json:"total_players" yaml:"total_players"`
	Message        string     `json:"message" yaml:"message"`
	Validation     Validation `json:"validation" yaml:"validation"`
	Leaderboard    []Entry    `json:"leaderboard" yaml:"leaderboard"`
}
