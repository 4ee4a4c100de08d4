package model

import "errors"

// Sentinel error kinds shared by the domain. Callers branch with errors.Is.
var (
	// ErrInvalidInput covers empty rosters and malformed identifiers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderUnavailable means the match data source could not be reached.
	ErrProviderUnavailable = errors.New("match data provider unavailable")
	// ErrNotFound means the provider has no record for the requested id.
	ErrNotFound = errors.New("not found")
	// ErrValidationFailed is returned where a failed validation must stop a flow.
	ErrValidationFailed = errors.New("match validation failed")
)
