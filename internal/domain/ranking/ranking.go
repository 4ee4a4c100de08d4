// Package ranking orders a match's roster players into a leaderboard.
package ranking

import (
	"sort"

	"github.com/okian/tournify/internal/domain/model"
)

// Rank builds the leaderboard of roster players found in details, ordered by
// kills then average combat score, both descending. Equal pairs keep roster
// order. Ranks run 1..N with no gaps or shared values. Players outside the
// roster are dropped; roster players without a record are omitted.
func Rank(details model.MatchDetails, roster []model.PlayerID) []model.LeaderboardEntry {
	byPlayer := make(map[model.PlayerID]model.PerformanceRecord, len(details.Players))
	for _, rec := range details.Players {
		if _, ok := byPlayer[rec.PlayerID]; !ok {
			byPlayer[rec.PlayerID] = rec
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(roster))
	seen := make(map[model.PlayerID]struct{}, len(roster))
	for _, p := range roster {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		rec, ok := byPlayer[p]
		if !ok {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			PlayerID:           rec.PlayerID,
			Kills:              rec.Kills,
			AverageCombatScore: rec.AverageCombatScore,
		})
	}

	sortEntries(entries)
	assignRanks(entries)
	return entries
}

// sortEntries stable-sorts by kills desc, then ACS desc.
func sortEntries(entries []model.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Kills != entries[j].Kills {
			return entries[i].Kills > entries[j].Kills
		}
		return entries[i].AverageCombatScore > entries[j].AverageCombatScore
	})
}

// assignRanks numbers entries by position.
func assignRanks(entries []model.LeaderboardEntry) {
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
