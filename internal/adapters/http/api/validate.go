package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/tournify/internal/app"
	"github.com/okian/tournify/internal/domain/verify"
)

// ValidateDependencies defines the interface for match validation.
type ValidateDependencies interface {
	ValidateMatch(ctx context.Context, req service.Request) (verify.Result, error)
}

// ValidateHandler handles match validation requests.
type ValidateHandler struct {
	deps ValidateDependencies
}

// NewValidateHandler creates a new validation handler.
func NewValidateHandler(deps ValidateDependencies) *ValidateHandler {
	return &ValidateHandler{deps: deps}
}

// HandleValidate handles POST /matches/validate-match-history requests.
// A failed validation is a 200 with validation_passed=false.
func (h *ValidateHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_match"
	var body matchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.ValidateMatch(r.Context(), req)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newValidationResponse(res))
}
