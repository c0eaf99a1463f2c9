// Package planner is the HTTP client for the external AI itinerary service.
// The service is an opaque collaborator: we send a trip brief, it returns a
// day-by-day itinerary or an error we surface verbatim to the user.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"travel-planner/internal/config"
	"travel-planner/internal/models"
)

// ErrRejected marks a definitive refusal from the planner service (4xx).
// Retrying the same brief will not help; the job should fail terminally.
var ErrRejected = errors.New("planner rejected request")

// Itinerary is the planner service's response shape.
type Itinerary struct {
	PlanName string `json:"plan_name"`
	Days     []Day  `json:"days"`
}

// Day groups generated activities for one itinerary day.
type Day struct {
	DayNumber int    `json:"day_number"`
	Items     []Item `json:"items"`
}

// Item is one suggested attraction visit.
type Item struct {
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	Description  string `json:"description,omitempty"`
	OpeningHours string `json:"opening_hours,omitempty"`
	Cost         string `json:"cost,omitempty"`
}

// Client talks to the planner service with a request-rate ceiling so a burst
// of generation jobs cannot trip the upstream quota.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// New builds a client from config.
func New(cfg config.Config) *Client {
	rps := cfg.PlannerRPS
	if rps <= 0 {
		rps = 1
	}
	timeout := cfg.PlannerTimeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: cfg.PlannerBaseURL,
		apiKey:  cfg.PlannerAPIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// GenerateItinerary submits a brief and decodes the itinerary. It also
// returns the raw response body so callers can archive it. Network and 5xx
// failures come back as plain errors (retryable); a 4xx comes back wrapped
// in ErrRejected with the service's message.
func (c *Client) GenerateItinerary(ctx context.Context, brief models.TripBrief) (*Itinerary, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	body, err := json.Marshal(brief)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal brief: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/itineraries", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("planner request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read planner response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, raw, fmt.Errorf("%w: %s", ErrRejected, serviceMessage(raw, resp.StatusCode))
	default:
		return nil, raw, fmt.Errorf("planner returned status %d", resp.StatusCode)
	}

	var it Itinerary
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, raw, fmt.Errorf("decode itinerary: %w", err)
	}
	if len(it.Days) == 0 {
		return nil, raw, fmt.Errorf("%w: empty itinerary", ErrRejected)
	}
	return &it, raw, nil
}

// serviceMessage pulls a human-readable error out of an error response body,
// falling back to the status code.
func serviceMessage(raw []byte, status int) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return fmt.Sprintf("status %d", status)
}
