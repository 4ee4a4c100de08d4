package api

import (
	"errors"
	"strings"
	"time"

	service "github.com/okian/tournify/internal/app"
	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/verify"
)

// matchRequest mirrors the OpenAPI schema shared by the validation and
// leaderboard endpoints.
type matchRequest struct {
	MatchID           string   `json:"match_id"`
	PlayerIDs         []string `json:"player_ids"`
	ExpectedStartTime string   `json:"expected_start_time,omitempty"`
	ExpectedMap       string   `json:"expected_map,omitempty"`
}

// toRequest checks the body shape and converts it. Roster normalization
// stays in the domain.
func (m matchRequest) toRequest() (service.Request, error) {
	if strings.TrimSpace(m.MatchID) == "" {
		return service.Request{}, errors.New("missing match_id")
	}
	if len(m.PlayerIDs) == 0 {
		return service.Request{}, errors.New("missing player_ids")
	}
	req := service.Request{
		MatchID:     model.MatchID(m.MatchID),
		Roster:      make([]model.PlayerID, len(m.PlayerIDs)),
		ExpectedMap: strings.TrimSpace(m.ExpectedMap),
	}
	for i, p := range m.PlayerIDs {
		req.Roster[i] = model.PlayerID(p)
	}
	if s := strings.TrimSpace(m.ExpectedStartTime); s != "" {
		t, err := model.ParseTime(s)
		if err != nil {
			return service.Request{}, err
		}
		req.ExpectedStartTime = &t
	}
	return req, nil
}

type validationResponse struct {
	MatchID              string   `json:"match_id"`
	ResolvedMatchID      string   `json:"resolved_match_id,omitempty"`
	AlternativeMatchID   string   `json:"alternative_match_id,omitempty"`
	MatchedFraction      float64  `json:"matched_fraction"`
	PercentageWithMatch  float64  `json:"percentage_with_match"`
	ResolvedFraction     float64  `json:"resolved_fraction"`
	Threshold            float64  `json:"threshold"`
	ValidationPassed     bool     `json:"validation_passed"`
	ReconciliationPassed bool     `json:"reconciliation_passed"`
	HostError            bool     `json:"host_error"`
	PlayersWithMatch     []string `json:"players_with_match"`
	PlayersWithoutMatch  []string `json:"players_without_match"`
	FailedFetches        []string `json:"failed_fetches,omitempty"`
	DetailsVerified      bool     `json:"details_verified"`
	TimeCheck            string   `json:"time_check"`
	MapCheck             string   `json:"map_check"`
	Message              string   `json:"message"`
}

func newValidationResponse(res verify.Result) validationResponse {
	return validationResponse{
		MatchID:              string(res.OriginalMatchID),
		ResolvedMatchID:      string(res.ResolvedMatchID),
		AlternativeMatchID:   string(res.AlternativeMatchID),
		MatchedFraction:      res.MatchedFraction,
		PercentageWithMatch:  res.MatchedFraction * 100,
		ResolvedFraction:     res.ResolvedFraction,
		Threshold:            res.Threshold,
		ValidationPassed:     res.Passed,
		ReconciliationPassed: res.ReconciliationPassed,
		HostError:            res.HostErrorDetected,
		PlayersWithMatch:     playerStrings(res.PlayersWithMatch),
		PlayersWithoutMatch:  playerStrings(res.PlayersWithoutMatch),
		FailedFetches:        playerStrings(res.FailedFetches),
		DetailsVerified:      res.DetailsVerified,
		TimeCheck:            res.TimeCheck.String(),
		MapCheck:             res.MapCheck.String(),
		Message:              res.Reason,
	}
}

type leaderboardResponse struct {
	MatchID        string                   `json:"match_id"`
	Map            string                   `json:"map"`
	MatchStartTime time.Time                `json:"match_start_time"`
	TotalPlayers   int                      `json:"total_players"`
	Message        string                   `json:"message"`
	Validation     validationResponse       `json:"validation"`
	Leaderboard    []model.LeaderboardEntry `json:"leaderboard"`
}

func newLeaderboardResponse(board service.Leaderboard) leaderboardResponse {
	entries := board.Entries
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	return leaderboardResponse{
		MatchID:        string(board.Details.MatchID),
		Map:            board.Details.Map,
		MatchStartTime: board.Details.StartTime.UTC(),
		TotalPlayers:   len(entries),
		Message:        "leaderboard generated for match " + string(board.Details.MatchID),
		Validation:     newValidationResponse(board.Validation),
		Leaderboard:    entries,
	}
}

// playerStrings never returns nil so lists encode as [].
func playerStrings(ids []model.PlayerID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
