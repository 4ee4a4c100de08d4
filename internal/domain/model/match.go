// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// PlayerID identifies a participant in the external data source.
type PlayerID string

// MatchID identifies a match instance in the external data source.
type MatchID string

// MatchHistory is the set of matches the provider reports for one player
// within a look-back window.
type MatchHistory struct {
	PlayerID PlayerID
	Matches  []MatchID
}

// Contains reports whether id is part of the history.
func (h MatchHistory) Contains(id MatchID) bool {
	for _, m := range h.Matches {
		if m == id {
			return true
		}
	}
	return false
}

// MatchDetails is the authoritative record of a match. Immutable once fetched.
type MatchDetails struct {
	MatchID   MatchID
	StartTime time.Time
	Map       string
	Players   []PerformanceRecord
}

// PerformanceRecord holds one player's stats in a match.
type PerformanceRecord struct {
	PlayerID           PlayerID
	Kills              int
	AverageCombatScore float64
}

// LeaderboardEntry is one ranked row. Rank is 1-based with no gaps.
type LeaderboardEntry struct {
	Rank               int      `json:"rank"`
	PlayerID           PlayerID `json:"player_id"`
	Kills              int      `json:"kills"`
	AverageCombatScore float64  `json:"average_combat_score"`
}

// NormalizeRoster trims ids, rejects blanks and drops duplicates keeping the
// first occurrence. maxSize <= 0 means unbounded.
func NormalizeRoster(roster []PlayerID, maxSize int) ([]PlayerID, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: roster must not be empty", ErrInvalidInput)
	}
	seen := make(map[PlayerID]struct{}, len(roster))
	out := make([]PlayerID, 0, len(roster))
	for i, p := range roster {
		id := PlayerID(strings.TrimSpace(string(p)))
		if id == "" {
			return nil, fmt.Errorf("%w: player id at position %d is blank", ErrInvalidInput, i)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if maxSize > 0 && len(out) > maxSize {
		return nil, fmt.Errorf("%w: roster has %d players, limit is %d", ErrInvalidInput, len(out), maxSize)
	}
	return out, nil
}

// NormalizeMatchID trims id and rejects blanks.
func NormalizeMatchID(id MatchID) (MatchID, error) {
	trimmed := MatchID(strings.TrimSpace(string(id)))
	if trimmed == "" {
		return "", fmt.Errorf("%w: match id must not be empty", ErrInvalidInput)
	}
	return trimmed, nil
}

// ParseTime accepts RFC 3339 or a zone-less "2006-01-02T15:04:05" read as
// UTC. The result is always in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q is not RFC 3339", ErrInvalidInput, s)
	}
	return t, nil
}
