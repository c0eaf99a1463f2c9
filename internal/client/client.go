// Package client is a thin HTTP client for the planning API, used by the
// planctl CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"travel-planner/internal/models"
	"travel-planner/internal/poll"
)

// ErrNotFound is returned for 404 outcomes.
var ErrNotFound = errors.New("not found")

// Client calls the planning API with an optional bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, HTTP: &http.Client{}}
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	res, err := request[loginResponse](ctx, c, http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

// Register creates an account and returns an access token.
func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	res, err := request[loginResponse](ctx, c, http.MethodPost, "/api/auth/register", body)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

type generateResponse struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

// Generate submits a trip brief and returns the job ID to poll.
func (c *Client) Generate(ctx context.Context, brief models.TripBrief) (string, int, error) {
	body, err := json.Marshal(brief)
	if err != nil {
		return "", 0, err
	}
	res, err := request[generateResponse](ctx, c, http.MethodPost, "/api/plans/generate", body)
	if err != nil {
		return "", 0, err
	}
	return res.JobID, res.EstimatedSeconds, nil
}

// JobStatus performs one status query. Network failures and 503s come back
// wrapped in poll.ErrTransient so the polling loop keeps going.
func (c *Client) JobStatus(ctx context.Context, jobID string) (poll.Status, error) {
	res, err := request[poll.Status](ctx, c, http.MethodGet, "/api/plans/generate/"+jobID+"/status", nil)
	if err != nil {
		return poll.Status{}, err
	}
	return *res, nil
}

// StatusFunc adapts JobStatus to the poller's query signature.
func (c *Client) StatusFunc(jobID string) poll.StatusFunc {
	return func(ctx context.Context) (poll.Status, error) {
		return c.JobStatus(ctx, jobID)
	}
}

type apiError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func request[T any](ctx context.Context, c *Client, method, path string, body []byte) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", poll.ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", poll.ErrTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var t T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
		}
		return &t, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: status %d", poll.ErrTransient, resp.StatusCode)
	default:
		var e apiError
		if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
			return nil, fmt.Errorf("api error (%d): %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("api error: status %d", resp.StatusCode)
	}
}
