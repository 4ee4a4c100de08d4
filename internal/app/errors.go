package service

import (
	"errors"
	"fmt"

	"github.com/okian/tournify/internal/domain/model"
	"github.com/okian/tournify/internal/domain/verify"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// ValidationError reports a validation that did not pass where the caller
// needed it to. It carries the full result and matches model.ErrValidationFailed.
type ValidationError struct {
	Result verify.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", model.ErrValidationFailed, e.Result.Reason)
}

// Unwrap lets errors.Is match model.ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return model.ErrValidationFailed
}
