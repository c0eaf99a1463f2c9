package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"travel-planner/internal/models"
)

// NewActivity carries one generated itinerary entry for insertion.
type NewActivity struct {
	DayNumber             int
	OrderIndex            int
	AttractionName        string
	AttractionAddress     string
	AttractionDescription string
	OpeningHours          string
	Cost                  string
}

// CreateGeneratedPlan persists a freshly generated itinerary: the plan row,
// its activities, and the owning job's transition to completed happen in one
// transaction. The job transition is guarded on the processing state so a
// redelivered job cannot produce a second plan.
func (s *Store) CreateGeneratedPlan(ctx context.Context, job models.GenerationJob, name string, activities []NewActivity) (models.Plan, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Plan{}, classify("begin tx", err)
	}
	defer tx.Rollback(ctx) // safe no-op on commit

	planID := uuid.New().String()
	now := time.Now().UTC()
	b := job.Brief

	tag, err := tx.Exec(ctx, `
		UPDATE generation_jobs
		SET status = $2, plan_id = $3, error_message = NULL, updated_at = $4
		WHERE id = $1 AND status = $5
	`, job.ID, models.StatusCompleted, planID, now, models.StatusProcessing)
	if err != nil {
		return models.Plan{}, classify("complete job", err)
	}
	if tag.RowsAffected() == 0 {
		// Job already reached a terminal state; keep the existing outcome.
		return models.Plan{}, ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO plans (id, user_id, job_id, name, destination, start_date, end_date,
			adults, children, budget_amount, budget_currency, travel_style, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, planID, job.UserID, job.ID, name, b.Destination, b.StartDate, b.EndDate,
		b.Adults, b.Children, b.BudgetAmount, emptyToNil(b.BudgetCurrency), emptyToNil(b.TravelStyle), now)
	if err != nil {
		return models.Plan{}, classify("insert plan", err)
	}

	for _, a := range activities {
		_, err = tx.Exec(ctx, `
			INSERT INTO activities (id, plan_id, day_number, order_index,
				attraction_name, attraction_address, attraction_description,
				opening_hours, cost, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, uuid.New().String(), planID, a.DayNumber, a.OrderIndex,
			a.AttractionName, a.AttractionAddress, a.AttractionDescription,
			emptyToNil(a.OpeningHours), emptyToNil(a.Cost), now)
		if err != nil {
			return models.Plan{}, classify("insert activity", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Plan{}, classify("commit", err)
	}

	return models.Plan{
		ID:             planID,
		UserID:         job.UserID,
		JobID:          job.ID,
		Name:           name,
		Destination:    b.Destination,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		Adults:         b.Adults,
		Children:       b.Children,
		BudgetAmount:   b.BudgetAmount,
		BudgetCurrency: b.BudgetCurrency,
		TravelStyle:    b.TravelStyle,
		CreatedAt:      now,
	}, nil
}

const planColumns = `id, user_id, job_id, name, destination, start_date, end_date,
	adults, children, budget_amount, budget_currency, travel_style, created_at`

// ListPlans returns the owner's plans, newest first.
func (s *Store) ListPlans(ctx context.Context, userID string, limit, offset int) ([]models.Plan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+planColumns+` FROM plans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, classify("query plans", err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, classify("iterate plans", rows.Err())
}

// GetPlan fetches one plan scoped to its owner.
func (s *Store) GetPlan(ctx context.Context, id, userID string) (models.Plan, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+planColumns+` FROM plans WHERE id = $1 AND user_id = $2
	`, id, userID)
	return scanPlan(row)
}

// GetActivities returns a plan's activities in day and order-index order.
func (s *Store) GetActivities(ctx context.Context, planID string) ([]models.Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, plan_id, day_number, order_index,
			attraction_name, attraction_address, attraction_description,
			custom_description, opening_hours, cost, accepted, updated_at
		FROM activities
		WHERE plan_id = $1
		ORDER BY day_number, order_index
	`, planID)
	if err != nil {
		return nil, classify("query activities", err)
	}
	defer rows.Close()

	acts := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		acts = append(acts, a)
	}
	return acts, classify("iterate activities", rows.Err())
}

// PlanPatch holds optional plan updates; nil fields are left unchanged.
type PlanPatch struct {
	Name           *string
	StartDate      *string
	EndDate        *string
	TravelStyle    *string
	BudgetAmount   *float64
	BudgetCurrency *string
}

// UpdatePlan applies a patch to an owned plan and returns the updated row.
func (s *Store) UpdatePlan(ctx context.Context, id, userID string, patch PlanPatch) (models.Plan, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE plans SET
			name = COALESCE($3, name),
			start_date = COALESCE($4, start_date),
			end_date = COALESCE($5, end_date),
			travel_style = COALESCE($6, travel_style),
			budget_amount = COALESCE($7, budget_amount),
			budget_currency = COALESCE($8, budget_currency)
		WHERE id = $1 AND user_id = $2
		RETURNING `+planColumns+`
	`, id, userID, patch.Name, patch.StartDate, patch.EndDate,
		patch.TravelStyle, patch.BudgetAmount, patch.BudgetCurrency)
	return scanPlan(row)
}

// DeletePlan removes an owned plan, its activities (FK cascade), and the
// originating generation job in one transaction.
func (s *Store) DeletePlan(ctx context.Context, id, userID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classify("begin tx", err)
	}
	defer tx.Rollback(ctx)

	var jobID string
	err = tx.QueryRow(ctx, `
		DELETE FROM plans WHERE id = $1 AND user_id = $2 RETURNING job_id
	`, id, userID).Scan(&jobID)
	if err != nil {
		return classify("delete plan", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM generation_jobs WHERE id = $1`, jobID); err != nil {
		return classify("delete job", err)
	}
	return classify("commit", tx.Commit(ctx))
}

// ActivityPatch holds the user-editable activity fields. Accepted carries
// tri-state semantics: AcceptedSet distinguishes "clear the flag" (true with
// a nil Accepted) from "leave it alone" (false).
type ActivityPatch struct {
	CustomDescription *string
	OpeningHours      *string
	Cost              *string
	Accepted          *bool
	AcceptedSet       bool
}

// UpdateActivity applies a patch to one activity, scoped through its plan's
// owner, and returns the updated row.
func (s *Store) UpdateActivity(ctx context.Context, planID, activityID, userID string, patch ActivityPatch) (models.Activity, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE activities a SET
			custom_description = COALESCE($4, a.custom_description),
			opening_hours = COALESCE($5, a.opening_hours),
			cost = COALESCE($6, a.cost),
			accepted = CASE WHEN $7 THEN $8 ELSE a.accepted END,
			updated_at = NOW()
		FROM plans p
		WHERE a.id = $1 AND a.plan_id = $2 AND p.id = a.plan_id AND p.user_id = $3
		RETURNING a.id, a.plan_id, a.day_number, a.order_index,
			a.attraction_name, a.attraction_address, a.attraction_description,
			a.custom_description, a.opening_hours, a.cost, a.accepted, a.updated_at
	`, activityID, planID, userID,
		patch.CustomDescription, patch.OpeningHours, patch.Cost,
		patch.AcceptedSet, patch.Accepted)
	return scanActivity(row)
}

func scanPlan(row rowScanner) (models.Plan, error) {
	var p models.Plan
	var start, end pgtype.Date
	var budget pgtype.Float8
	var currency, style pgtype.Text

	err := row.Scan(&p.ID, &p.UserID, &p.JobID, &p.Name, &p.Destination, &start, &end,
		&p.Adults, &p.Children, &budget, &currency, &style, &p.CreatedAt)
	if err != nil {
		return models.Plan{}, classify("scan plan", err)
	}
	// DATE columns cannot be scanned into plain strings; the API speaks
	// YYYY-MM-DD, so format here.
	if start.Valid {
		p.StartDate = start.Time.Format("2006-01-02")
	}
	if end.Valid {
		p.EndDate = end.Time.Format("2006-01-02")
	}
	if budget.Valid {
		v := budget.Float64
		p.BudgetAmount = &v
	}
	if currency.Valid {
		p.BudgetCurrency = currency.String
	}
	if style.Valid {
		p.TravelStyle = style.String
	}
	return p, nil
}

func scanActivity(row rowScanner) (models.Activity, error) {
	var a models.Activity
	var addr, desc, custom, hours, cost pgtype.Text
	var accepted pgtype.Bool

	err := row.Scan(&a.ID, &a.PlanID, &a.DayNumber, &a.OrderIndex,
		&a.AttractionName, &addr, &desc, &custom, &hours, &cost, &accepted, &a.UpdatedAt)
	if err != nil {
		return models.Activity{}, classify("scan activity", err)
	}
	if addr.Valid {
		a.AttractionAddress = addr.String
	}
	if desc.Valid {
		a.AttractionDescription = desc.String
	}
	a.CustomDescription = textPtr(custom)
	a.OpeningHours = textPtr(hours)
	a.Cost = textPtr(cost)
	if accepted.Valid {
		v := accepted.Bool
		a.Accepted = &v
	}
	return a, nil
}

func emptyToNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
