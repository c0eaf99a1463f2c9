package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"travel-planner/internal/models"
	"travel-planner/internal/ratelimit"
	"travel-planner/internal/store"
	"travel-planner/internal/telemetry"
)

type generateResponse struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

// handleGenerate validates a trip brief, creates a processing job, and hands
// it to the worker queue. The caller gets a job ID to poll.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var brief models.TripBrief
	if err := json.NewDecoder(r.Body).Decode(&brief); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if msg, field := validateBrief(&brief); msg != "" {
		writeFieldError(w, msg, field)
		return
	}

	userID := userIDFromContext(r.Context())
	if s.limiter != nil {
		allowed, tokens, err := s.limiter.Allow(r.Context(), "rl:generate:"+userID)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
			return
		}
		if !allowed {
			telemetry.RateLimitRejects.Inc()
			if wait := ratelimit.RetryAfter(tokens, s.cfg.RateLimitRefill); wait > 0 {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(wait/time.Second), 10))
			}
			writeError(w, http.StatusTooManyRequests, "too many generation requests, try again later")
			return
		}
	}

	job, err := s.store.CreateJob(r.Context(), userID, brief)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.queue.Enqueue(r.Context(), job.ID); err != nil {
		// The job row exists but nothing will process it; fail it now so the
		// poller sees a terminal state instead of an eternal processing.
		_ = s.store.FailJob(r.Context(), job.ID, "could not start generation")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}
	telemetry.GenerationRequests.Inc()

	writeJSON(w, http.StatusAccepted, generateResponse{
		JobID:            job.ID,
		Status:           job.Status,
		EstimatedSeconds: int(s.cfg.GenerationEstimate / time.Second),
	})
}

// jobStatusResponse field order is part of the wire contract.
type jobStatusResponse struct {
	JobID        string  `json:"job_id"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	PlanID       *string `json:"plan_id,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// handleJobStatus reports a generation job's lifecycle state. Pure read: the
// poller calls this until it sees completed or failed.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	telemetry.StatusPolls.Inc()

	id := chi.URLParam(r, "jobID")
	if id == "" {
		writeFieldError(w, "job id is missing", "job_id")
		return
	}
	if !validUUID(id) {
		writeFieldError(w, "job id is malformed: expected a UUID", "job_id")
		return
	}

	job, err := s.store.GetJob(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Absent and not-owned collapse to the same null-body 404.
			writeJSON(w, http.StatusNotFound, nil)
			return
		}
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobStatusResponse{
		JobID:        job.ID,
		Status:       job.Status,
		Progress:     job.Progress(s.now(), s.cfg.GenerationEstimate),
		PlanID:       job.PlanID,
		ErrorMessage: job.ErrorMessage,
	})
}

// validUUID accepts only the canonical 8-4-4-4-12 textual form with a
// version nibble of 1-5 and an RFC 4122 variant.
func validUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	if v := u.Version(); v < 1 || v > 5 {
		return false
	}
	return u.Variant() == uuid.RFC4122
}

// validateBrief returns a field-level validation message, or "" when valid.
func validateBrief(b *models.TripBrief) (msg, field string) {
	if b.Destination == "" {
		return "destination is required", "destination"
	}
	start, err := time.Parse("2006-01-02", b.StartDate)
	if err != nil {
		return "start_date must be formatted YYYY-MM-DD", "start_date"
	}
	end, err := time.Parse("2006-01-02", b.EndDate)
	if err != nil {
		return "end_date must be formatted YYYY-MM-DD", "end_date"
	}
	if end.Before(start) {
		return "end_date must not be before start_date", "end_date"
	}
	if b.Days() > 30 {
		return "trips longer than 30 days are not supported", "end_date"
	}
	if b.Adults < 1 {
		return "at least one adult is required", "adults"
	}
	if b.Children < 0 {
		return "children must not be negative", "children"
	}
	if b.BudgetAmount != nil {
		if *b.BudgetAmount <= 0 {
			return "budget_amount must be positive", "budget_amount"
		}
		if len(b.BudgetCurrency) != 3 {
			return "budget_currency must be a 3-letter code", "budget_currency"
		}
	}
	return "", ""
}
