package httpclient

// Wire types of the match data provider API, shared with the mock server.

// MatchRequest is the body of POST /matches/.
type MatchRequest struct {
	MatchID string `json:"match_id"`
}

// PlayerStats is one player's line in a match.
type PlayerStats struct {
	PlayerID           string  `json:"player_id"`
	Kills              int     `json:"kills"`
	AverageCombatScore float64 `json:"average_combat_score"`
}

// MatchResponse is the body returned by POST /matches/.
type MatchResponse struct {
	MatchID        string        `json:"match_id"`
	MatchStartTime string        `json:"match_start_time"`
	Map            string        `json:"map"`
	Players        []PlayerStats `json:"players"`
}

// HistoryRequest is the body of POST /matches/player-history.
type HistoryRequest struct {
	PlayerID   string `json:"player_id"`
	WindowDays int    `json:"window_days,omitempty"`
}

// HistoryResponse is the body returned by POST /matches/player-history.
type HistoryResponse struct {
	PlayerID      string   `json:"player_id"`
	RecentMatches []string `json:"recent_matches"`
}

// ErrorResponse is returned with non-2xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
