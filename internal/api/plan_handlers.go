package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"travel-planner/internal/models"
	"travel-planner/internal/store"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		writeFieldError(w, "limit must be between 1 and 100", "limit")
		return
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		writeFieldError(w, "offset must not be negative", "offset")
		return
	}

	plans, err := s.store.ListPlans(r.Context(), userIDFromContext(r.Context()), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans, "limit": limit, "offset": offset})
}

type planDetailResponse struct {
	models.Plan
	Activities []models.Activity `json:"activities"`
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "planID")
	if !validUUID(id) {
		writeFieldError(w, "plan id is malformed: expected a UUID", "plan_id")
		return
	}

	plan, err := s.store.GetPlan(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	activities, err := s.store.GetActivities(r.Context(), plan.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planDetailResponse{Plan: plan, Activities: activities})
}

type planPatchRequest struct {
	Name           *string  `json:"name"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	TravelStyle    *string  `json:"travel_style"`
	BudgetAmount   *float64 `json:"budget_amount"`
	BudgetCurrency *string  `json:"budget_currency"`
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "planID")
	if !validUUID(id) {
		writeFieldError(w, "plan id is malformed: expected a UUID", "plan_id")
		return
	}

	var req planPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeFieldError(w, "name must not be empty", "name")
		return
	}
	for field, v := range map[string]*string{"start_date": req.StartDate, "end_date": req.EndDate} {
		if v == nil {
			continue
		}
		if _, err := time.Parse("2006-01-02", *v); err != nil {
			writeFieldError(w, field+" must be formatted YYYY-MM-DD", field)
			return
		}
	}
	if req.StartDate != nil && req.EndDate != nil && *req.EndDate < *req.StartDate {
		writeFieldError(w, "end_date must not be before start_date", "end_date")
		return
	}
	if req.BudgetAmount != nil && *req.BudgetAmount <= 0 {
		writeFieldError(w, "budget_amount must be positive", "budget_amount")
		return
	}
	if req.BudgetCurrency != nil && len(*req.BudgetCurrency) != 3 {
		writeFieldError(w, "budget_currency must be a 3-letter code", "budget_currency")
		return
	}

	// A single-bound date patch is validated against the stored plan, and the
	// resulting range must still cover every activity's day number.
	if req.StartDate != nil || req.EndDate != nil {
		current, err := s.store.GetPlan(r.Context(), id, userIDFromContext(r.Context()))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		field := "end_date"
		if req.EndDate == nil {
			field = "start_date"
		}
		start, end := current.StartDate, current.EndDate
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		if end < start {
			writeFieldError(w, "end_date must not be before start_date", field)
			return
		}
		days := (models.Plan{StartDate: start, EndDate: end}).Days()
		if days > 30 {
			writeFieldError(w, "trips longer than 30 days are not supported", field)
			return
		}
		activities, err := s.store.GetActivities(r.Context(), current.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		for _, a := range activities {
			if a.DayNumber > days {
				writeFieldError(w, "date range must cover existing activity days", field)
				return
			}
		}
	}

	plan, err := s.store.UpdatePlan(r.Context(), id, userIDFromContext(r.Context()), store.PlanPatch{
		Name:           req.Name,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TravelStyle:    req.TravelStyle,
		BudgetAmount:   req.BudgetAmount,
		BudgetCurrency: req.BudgetCurrency,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "planID")
	if !validUUID(id) {
		writeFieldError(w, "plan id is malformed: expected a UUID", "plan_id")
		return
	}
	if err := s.store.DeletePlan(r.Context(), id, userIDFromContext(r.Context())); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activityPatchRequest struct {
	CustomDescription *string `json:"custom_description"`
	OpeningHours      *string `json:"opening_hours"`
	Cost              *string `json:"cost"`
	// RawMessage so "accepted": null (clear the flag) is distinguishable
	// from the key being absent (leave it alone).
	Accepted json.RawMessage `json:"accepted"`
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")
	activityID := chi.URLParam(r, "activityID")
	if !validUUID(planID) {
		writeFieldError(w, "plan id is malformed: expected a UUID", "plan_id")
		return
	}
	if !validUUID(activityID) {
		writeFieldError(w, "activity id is malformed: expected a UUID", "activity_id")
		return
	}

	var req activityPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	patch := store.ActivityPatch{
		CustomDescription: req.CustomDescription,
		OpeningHours:      req.OpeningHours,
		Cost:              req.Cost,
	}
	if len(req.Accepted) > 0 {
		patch.AcceptedSet = true
		if string(req.Accepted) != "null" {
			var v bool
			if err := json.Unmarshal(req.Accepted, &v); err != nil {
				writeFieldError(w, "accepted must be true, false, or null", "accepted")
				return
			}
			patch.Accepted = &v
		}
	}

	activity, err := s.store.UpdateActivity(r.Context(), planID, activityID, userIDFromContext(r.Context()), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return i
}
