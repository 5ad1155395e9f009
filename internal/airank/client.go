// Package airank provides the adapter for the external AI ranking service
// used to obtain per-task importance scores.
package airank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Score bounds accepted from the ranking service.
const (
	MinScore = 0
	MaxScore = 100
)

// DefaultTimeout bounds a single ranking call. The engine falls back to
// local-only scoring when the call does not complete in time.
const DefaultTimeout = 3 * time.Second

// maxResponseBytes caps how much of the service response is read.
const maxResponseBytes = 1 << 20 // 1 MiB

// Common errors for ranking calls.
var (
	ErrUnexpectedStatus = errors.New("ranking service returned non-success status")
	ErrInvalidResponse  = errors.New("ranking service returned an invalid response")
)

// TaskPayload is the minimal task projection sent to the ranking service.
// Full task objects are never forwarded.
type TaskPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"` // YYYY-MM-DD
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// Ranking is one scored task as returned by the ranking service.
type Ranking struct {
	ID      string `json:"id"`
	AIScore int    `json:"ai_score"`
	Reason  string `json:"reason,omitempty"`
}

// Ranker obtains importance scores for a batch of tasks.
// Implementations must return an error rather than partial or malformed
// results; the caller treats any error as a signal to use fallback scores.
type Ranker interface {
	Rank(ctx context.Context, tasks []TaskPayload) ([]Ranking, error)
}

// rankRequest is the wire format of a ranking request.
type rankRequest struct {
	Tasks []TaskPayload `json:"tasks"`
}

// rankResponse is the wire format of a ranking response.
type rankResponse struct {
	Success  bool       `json:"success"`
	Rankings []*Ranking `json:"rankings"`
}

// Client is an HTTP implementation of Ranker.
// The HTTP client is injected so tests can supply a stub service or a
// client with custom transport settings.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a ranking service client for the given endpoint.
// If httpClient is nil, a client with DefaultTimeout is used.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Rank sends all tasks in a single request and returns one ranking per
// submitted task id. The response is validated strictly: a non-success
// flag, a missing rankings array, an empty id, or an out-of-range score
// all fail the whole call.
func (c *Client) Rank(ctx context.Context, tasks []TaskPayload) ([]Ranking, error) {
	body, err := json.Marshal(rankRequest{Tasks: tasks})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ranking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ranking request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking response: %w", err)
	}

	var parsed rankResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return validateResponse(parsed)
}

// validateResponse enforces the strict response schema. Any violation is
// equivalent to a full failure; partially-valid responses are never trusted.
func validateResponse(parsed rankResponse) ([]Ranking, error) {
	if !parsed.Success {
		return nil, fmt.Errorf("%w: success flag not set", ErrInvalidResponse)
	}
	if parsed.Rankings == nil {
		return nil, fmt.Errorf("%w: missing rankings array", ErrInvalidResponse)
	}

	result := make([]Ranking, 0, len(parsed.Rankings))
	for i, r := range parsed.Rankings {
		if r == nil {
			return nil, fmt.Errorf("%w: null ranking at index %d", ErrInvalidResponse, i)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("%w: empty id at index %d", ErrInvalidResponse, i)
		}
		if r.AIScore < MinScore || r.AIScore > MaxScore {
			return nil, fmt.Errorf("%w: score %d out of range at index %d", ErrInvalidResponse, r.AIScore, i)
		}
		result = append(result, *r)
	}
	return result, nil
}
