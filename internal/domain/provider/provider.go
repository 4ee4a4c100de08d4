// Package provider defines the match data source the domain depends on.
package provider

import (
	"context"
	"time"

	"github.com/okian/tournify/internal/domain/model"
)

// Provider is the external match data source. Implementations wrap
// model.ErrNotFound or model.ErrProviderUnavailable in their errors.
type Provider interface {
	// PlayerMatchHistory lists the matches a player took part in within window.
	PlayerMatchHistory(ctx context.Context, player model.PlayerID, window time.Duration) ([]model.MatchID, error)

	// MatchDetails returns the authoritative record of a match.
	MatchDetails(ctx context.Context, match model.MatchID) (model.MatchDetails, error)
}
