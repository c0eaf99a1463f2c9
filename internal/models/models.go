package models

import (
	"time"
)

// Generation job lifecycle states persisted in Postgres. A job starts in
// processing and is moved exactly once, by the worker, to completed or failed.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// TerminalStatus reports whether a status admits no further transitions.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// TripBrief is the user's request for an itinerary, stored as the job payload.
type TripBrief struct {
	Destination    string   `json:"destination"`
	StartDate      string   `json:"start_date"` // YYYY-MM-DD
	EndDate        string   `json:"end_date"`   // YYYY-MM-DD
	Adults         int      `json:"adults"`
	Children       int      `json:"children"`
	BudgetAmount   *float64 `json:"budget_amount,omitempty"`
	BudgetCurrency string   `json:"budget_currency,omitempty"`
	TravelStyle    string   `json:"travel_style,omitempty"`
	Interests      string   `json:"interests,omitempty"`
}

// GenerationJob tracks one plan-generation request.
type GenerationJob struct {
	ID           string    `json:"job_id"`
	UserID       string    `json:"-"`
	Brief        TripBrief `json:"brief"`
	Status       string    `json:"status"`
	PlanID       *string   `json:"plan_id,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Progress returns the coarse completion estimate for a job: 100 once
// completed, 0 once failed, and while processing a time-elapsed fraction of
// the configured estimate, capped below 100. The curve is cosmetic; clients
// must key off status, not progress, to detect the end of a job.
func (j GenerationJob) Progress(now time.Time, estimate time.Duration) int {
	switch j.Status {
	case StatusCompleted:
		return 100
	case StatusFailed:
		return 0
	}
	if estimate <= 0 {
		estimate = 40 * time.Second
	}
	elapsed := now.Sub(j.CreatedAt)
	if elapsed <= 0 {
		return 0
	}
	p := int(elapsed * 100 / estimate)
	if p > 99 {
		p = 99
	}
	return p
}

// Plan is a saved, user-owned itinerary.
type Plan struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	JobID          string    `json:"job_id"`
	Name           string    `json:"name"`
	Destination    string    `json:"destination"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Adults         int       `json:"adults"`
	Children       int       `json:"children"`
	BudgetAmount   *float64  `json:"budget_amount,omitempty"`
	BudgetCurrency string    `json:"budget_currency,omitempty"`
	TravelStyle    string    `json:"travel_style,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Days returns the number of itinerary days covered by the plan's date range,
// or 0 if either date fails to parse.
func (p Plan) Days() int {
	return rangeDays(p.StartDate, p.EndDate)
}

// Days returns the number of itinerary days the brief asks for.
func (b TripBrief) Days() int {
	return rangeDays(b.StartDate, b.EndDate)
}

func rangeDays(startDate, endDate string) int {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return 0
	}
	d := int(end.Sub(start).Hours()/24) + 1
	if d < 0 {
		return 0
	}
	return d
}

// Activity is one attraction visit within a plan day. The attraction fields
// come from generation; the override fields and the accepted flag are the
// user-editable surface.
type Activity struct {
	ID         string `json:"id"`
	PlanID     string `json:"-"`
	DayNumber  int    `json:"day_number"`
	OrderIndex int    `json:"order_index"`

	AttractionName        string `json:"attraction_name"`
	AttractionAddress     string `json:"attraction_address,omitempty"`
	AttractionDescription string `json:"attraction_description,omitempty"`

	CustomDescription *string `json:"custom_description,omitempty"`
	OpeningHours      *string `json:"opening_hours,omitempty"`
	Cost              *string `json:"cost,omitempty"`
	// nil means the user has not decided yet.
	Accepted *bool `json:"accepted,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// User is an account row. PasswordHash never leaves the store layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
