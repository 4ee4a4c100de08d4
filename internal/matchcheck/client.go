package matchcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// API paths.
const (
	pathValidate    = "/matches/validate-match-history"
	pathLeaderboard = "/matches/leaderboard"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	// Validation is set when a leaderboard was refused because validation failed.
	Validation *Validation
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to the match validation API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Validate calls the validation endpoint.
func (c *Client) Validate(ctx context.Context, req Request) (Validation, error) {
	var out Validation
	err := c.post(ctx, pathValidate, req, &out)
	return out, err
}

// Leaderboard calls the leaderboard endpoint.
func (c *Client) Leaderboard(ctx context.Context, req Request) (Leaderboard, error) {
	var out Leaderboard
	err := c.post(ctx, pathLeaderboard, req, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Code       string      `json:"code"`
			Message    string      `json:"message"`
			Validation *Validation `json:"validation"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Code, apiErr.Message, apiErr.Validation = body.Code, body.Message, body.Validation
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
