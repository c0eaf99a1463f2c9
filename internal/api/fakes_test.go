package api

import (
	"context"

	"travel-planner/internal/models"
	"travel-planner/internal/store"
)

// fakeStore satisfies Store with overridable behavior per method; unset
// methods report not found.
type fakeStore struct {
	createUser     func(ctx context.Context, email, hash string) (models.User, error)
	getUserByEmail func(ctx context.Context, email string) (models.User, error)

	createJob func(ctx context.Context, userID string, brief models.TripBrief) (models.GenerationJob, error)
	getJob    func(ctx context.Context, id, userID string) (models.GenerationJob, error)
	failJob   func(ctx context.Context, id, message string) error

	listPlans      func(ctx context.Context, userID string, limit, offset int) ([]models.Plan, error)
	getPlan        func(ctx context.Context, id, userID string) (models.Plan, error)
	getActivities  func(ctx context.Context, planID string) ([]models.Activity, error)
	updatePlan     func(ctx context.Context, id, userID string, patch store.PlanPatch) (models.Plan, error)
	deletePlan     func(ctx context.Context, id, userID string) error
	updateActivity func(ctx context.Context, planID, activityID, userID string, patch store.ActivityPatch) (models.Activity, error)
}

func (f *fakeStore) CreateUser(ctx context.Context, email, hash string) (models.User, error) {
	if f.createUser != nil {
		return f.createUser(ctx, email, hash)
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if f.getUserByEmail != nil {
		return f.getUserByEmail(ctx, email)
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) CreateJob(ctx context.Context, userID string, brief models.TripBrief) (models.GenerationJob, error) {
	if f.createJob != nil {
		return f.createJob(ctx, userID, brief)
	}
	return models.GenerationJob{}, store.ErrNotFound
}

func (f *fakeStore) GetJob(ctx context.Context, id, userID string) (models.GenerationJob, error) {
	if f.getJob != nil {
		return f.getJob(ctx, id, userID)
	}
	return models.GenerationJob{}, store.ErrNotFound
}

func (f *fakeStore) FailJob(ctx context.Context, id, message string) error {
	if f.failJob != nil {
		return f.failJob(ctx, id, message)
	}
	return nil
}

func (f *fakeStore) ListPlans(ctx context.Context, userID string, limit, offset int) ([]models.Plan, error) {
	if f.listPlans != nil {
		return f.listPlans(ctx, userID, limit, offset)
	}
	return []models.Plan{}, nil
}

func (f *fakeStore) GetPlan(ctx context.Context, id, userID string) (models.Plan, error) {
	if f.getPlan != nil {
		return f.getPlan(ctx, id, userID)
	}
	return models.Plan{}, store.ErrNotFound
}

func (f *fakeStore) GetActivities(ctx context.Context, planID string) ([]models.Activity, error) {
	if f.getActivities != nil {
		return f.getActivities(ctx, planID)
	}
	return []models.Activity{}, nil
}

func (f *fakeStore) UpdatePlan(ctx context.Context, id, userID string, patch store.PlanPatch) (models.Plan, error) {
	if f.updatePlan != nil {
		return f.updatePlan(ctx, id, userID, patch)
	}
	return models.Plan{}, store.ErrNotFound
}

func (f *fakeStore) DeletePlan(ctx context.Context, id, userID string) error {
	if f.deletePlan != nil {
		return f.deletePlan(ctx, id, userID)
	}
	return store.ErrNotFound
}

func (f *fakeStore) UpdateActivity(ctx context.Context, planID, activityID, userID string, patch store.ActivityPatch) (models.Activity, error) {
	if f.updateActivity != nil {
		return f.updateActivity(ctx, planID, activityID, userID, patch)
	}
	return models.Activity{}, store.ErrNotFound
}

type nopEnqueuer struct{}

func (nopEnqueuer) Enqueue(context.Context, string) error { return nil }

// recordingEnqueuer captures enqueued job IDs.
type recordingEnqueuer struct {
	ids []string
	err error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, jobID string) error {
	if r.err != nil {
		return r.err
	}
	r.ids = append(r.ids, jobID)
	return nil
}

// fixedLimiter always answers the same way.
type fixedLimiter struct {
	allowed bool
	tokens  float64
	err     error
}

func (l fixedLimiter) Allow(context.Context, string) (bool, float64, error) {
	return l.allowed, l.tokens, l.err
}
