package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tournify/internal/domain/model"
)

// claimRequest mirrors the OpenAPI schema for POST /matches/.
type claimRequest struct {
	PlayerIDs       []string `json:"player_ids"`
	MatchStartTime  string   `json:"match_start_time"`
	MatchMap        string   `json:"match_map"`
	ExpectedMatchID string   `json:"expected_match_id"`
}

func (c claimRequest) validate() (time.Time, error) {
	switch {
	case len(c.PlayerIDs) == 0:
		return time.Time{}, errors.New("player_ids must not be empty")
	case strings.TrimSpace(c.MatchMap) == "":
		return time.Time{}, errors.New("match_map must not be empty")
	case strings.TrimSpace(c.ExpectedMatchID) == "":
		return time.Time{}, errors.New("missing expected_match_id")
	}
	return model.ParseTime(c.MatchStartTime)
}

type claimResponse struct {
	MatchID         string    `json:"match_id"`
	ExpectedMatchID string    `json:"expected_match_id"`
	PlayerIDs       []string  `json:"player_ids"`
	MatchStartTime  time.Time `json:"match_start_time"`
	MatchMap        string    `json:"match_map"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
}

// ClaimsHandler accepts match claims. Claims are not stored; the response
// assigns the claim an id and echoes it back.
type ClaimsHandler struct {
	newID func() string
}

// NewClaimsHandler creates a new claims handler.
func NewClaimsHandler() *ClaimsHandler {
	return &ClaimsHandler{newID: func() string { return uuid.NewString() }}
}

// HandlePostClaim handles POST /matches/ requests.
func (h *ClaimsHandler) HandlePostClaim(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_claim"
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	start, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id := h.newID()
	writeJSON(w, http.StatusCreated, claimResponse{
		MatchID:         id,
		ExpectedMatchID: req.ExpectedMatchID,
		PlayerIDs:       req.PlayerIDs,
		MatchStartTime:  start.UTC(),
		MatchMap:        req.MatchMap,
		Status:          "created",
		Message:         fmt.Sprintf("match claim created with id %s", id),
	})
}
