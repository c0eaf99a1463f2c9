package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"travel-planner/internal/models"
)

// CreateJob inserts a generation job in the processing state.
func (s *Store) CreateJob(ctx context.Context, userID string, brief models.TripBrief) (models.GenerationJob, error) {
	briefJSON, err := json.Marshal(brief)
	if err != nil {
		return models.GenerationJob{}, fmt.Errorf("marshal brief: %w", err)
	}
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO generation_jobs (id, user_id, brief, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, id, userID, briefJSON, models.StatusProcessing, now)
	if err != nil {
		return models.GenerationJob{}, classify("insert job", err)
	}
	return models.GenerationJob{
		ID:        id,
		UserID:    userID,
		Brief:     brief,
		Status:    models.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

const jobColumns = `id, user_id, brief, status, plan_id, error_message, created_at, updated_at`

// GetJob fetches a job scoped to its owner. A job belonging to another user
// is indistinguishable from an absent one: both return ErrNotFound.
func (s *Store) GetJob(ctx context.Context, id, userID string) (models.GenerationJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM generation_jobs WHERE id = $1 AND user_id = $2
	`, id, userID)
	return scanJob(row)
}

// GetJobByID fetches a job without ownership scoping; worker use only.
func (s *Store) GetJobByID(ctx context.Context, id string) (models.GenerationJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM generation_jobs WHERE id = $1
	`, id)
	return scanJob(row)
}

// FailJob transitions a processing job to failed with a user-readable
// message. Terminal states are never overwritten.
func (s *Store) FailJob(ctx context.Context, id, message string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE generation_jobs
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, id, models.StatusFailed, message, models.StatusProcessing)
	return classify("fail job", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (models.GenerationJob, error) {
	var job models.GenerationJob
	var briefJSON []byte
	var planID, errMsg pgtype.Text

	err := row.Scan(&job.ID, &job.UserID, &briefJSON, &job.Status, &planID, &errMsg, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return models.GenerationJob{}, classify("scan job", err)
	}
	if err := json.Unmarshal(briefJSON, &job.Brief); err != nil {
		return models.GenerationJob{}, fmt.Errorf("unmarshal brief: %w", err)
	}
	job.PlanID = textPtr(planID)
	job.ErrorMessage = textPtr(errMsg)
	return job, nil
}

func textPtr(t pgtype.Text) *string {
	if t.Valid {
		return &t.String
	}
	return nil
}
