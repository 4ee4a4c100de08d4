package matchcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrValidationFailed is returned when the API answered but the claim did not pass.
var ErrValidationFailed = errors.New("match validation failed")

func request(cfg *Config) Request {
	return Request{
		MatchID:           cfg.MatchID,
		PlayerIDs:         cfg.PlayerIDs,
		ExpectedStartTime: cfg.StartTime,
		ExpectedMap:       cfg.Map,
	}
}

// RunValidate validates the claim and renders the result. A claim that does
// not pass is rendered and then reported as ErrValidationFailed.
func RunValidate(ctx context.Context, cfg *Config, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	res, err := NewClient(cfg.BaseURL, cfg.Timeout).Validate(ctx, request(cfg))
	if err != nil {
		return err
	}
	if err := Render(w, cfg.Format, res); err != nil {
		return err
	}
	if !res.ValidationPassed {
		return fmt.Errorf("%w: %s", ErrValidationFailed, res.Message)
	}
	return nil
}

// RunLeaderboard fetches and renders the leaderboard. When the API refuses
// because validation failed, the validation is rendered instead.
func RunLeaderboard(ctx context.Context, cfg *Config, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.StartTime == "" || cfg.Map == "" {
		return fmt.Errorf("%w: leaderboard needs --start and --map", ErrInvalidConfig)
	}
	lb, err := NewClient(cfg.BaseURL, cfg.Timeout).Leaderboard(ctx, request(cfg))
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Validation != nil {
		if rerr := Render(w, cfg.Format, *apiErr.Validation); rerr != nil {
			return rerr
		}
		return fmt.Errorf("%w: %s", ErrValidationFailed, apiErr.Message)
	}
	if err != nil {
		return err
	}
	return Render(w, cfg.Format, lb)
}
