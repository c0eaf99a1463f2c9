package worker

import (
	"context"
	"errors"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"travel-planner/internal/archive"
	"travel-planner/internal/config"
	"travel-planner/internal/models"
	"travel-planner/internal/planner"
	"travel-planner/internal/queue"
	"travel-planner/internal/store"
	"travel-planner/internal/telemetry"
)

// failureMessage is what users see when the planner stays unreachable after
// all retries. Definitive rejections carry the service's own message instead.
const failureMessage = "AI service temporarily unavailable"

// JobStore is the slice of the store the processor needs.
type JobStore interface {
	GetJobByID(ctx context.Context, id string) (models.GenerationJob, error)
	FailJob(ctx context.Context, id, message string) error
	CreateGeneratedPlan(ctx context.Context, job models.GenerationJob, name string, activities []store.NewActivity) (models.Plan, error)
}

// Generator produces an itinerary for a brief.
type Generator interface {
	GenerateItinerary(ctx context.Context, brief models.TripBrief) (*planner.Itinerary, []byte, error)
}

// Processor drives the generation worker loop: dequeue a job, call the
// planner, persist the resulting plan, and move the job to its terminal
// state. Every job leaves this loop completed or failed.
type Processor struct {
	cfg      config.Config
	queue    *queue.GenerationQueue
	store    JobStore
	planner  Generator
	archiver archive.Archiver
}

// NewProcessor wires the worker. archiver may be nil (archival disabled).
func NewProcessor(cfg config.Config, q *queue.GenerationQueue, st JobStore, gen Generator, arch archive.Archiver) *Processor {
	return &Processor{
		cfg:      cfg,
		queue:    q,
		store:    st,
		planner:  gen,
		archiver: arch,
	}
}

// Run starts the main worker loop until context cancellation.
func (p *Processor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if reclaimed, _ := p.queue.RequeueExpired(ctx, time.Now(), 100); len(reclaimed) > 0 {
			log.Printf("reclaimed %d expired generation leases", len(reclaimed))
		}

		jobID, err := p.queue.DequeueWithLease(ctx)
		if err != nil || jobID == "" {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.WorkerPollInterval):
			}
			continue
		}

		p.handle(ctx, jobID)
	}
}

func (p *Processor) handle(ctx context.Context, jobID string) {
	job, err := p.store.GetJobByID(ctx, jobID)
	if err != nil {
		// Row is gone (plan deleted mid-generation) or unreadable; either
		// way there is nothing to transition.
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("load job %s: %v", jobID, err)
		}
		_ = p.queue.Ack(ctx, jobID)
		return
	}
	if models.TerminalStatus(job.Status) {
		_ = p.queue.Ack(ctx, jobID)
		return
	}

	telemetry.JobsInFlight.Inc()
	defer telemetry.JobsInFlight.Dec()
	started := time.Now()

	it, raw, err := p.generateWithRetry(ctx, job)
	if err != nil {
		msg := failureMessage
		if errors.Is(err, planner.ErrRejected) {
			msg = rejectionMessage(err)
		}
		if ferr := p.store.FailJob(ctx, job.ID, msg); ferr != nil {
			// Leave the lease to expire so the transition is retried.
			log.Printf("mark job %s failed: %v", job.ID, ferr)
			return
		}
		p.archiveResult(ctx, job.ID, models.StatusFailed, raw)
		telemetry.GenerationFailed.Inc()
		telemetry.GenerationDuration.Observe(time.Since(started).Seconds())
		_ = p.queue.Ack(ctx, job.ID)
		log.Printf("job %s failed: %v", job.ID, err)
		return
	}

	name := it.PlanName
	if name == "" {
		name = "Trip to " + job.Brief.Destination
	}
	plan, err := p.store.CreateGeneratedPlan(ctx, job, name, itineraryActivities(it, job.Brief.Days()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Job reached a terminal state through another path.
			_ = p.queue.Ack(ctx, job.ID)
			return
		}
		log.Printf("persist plan for job %s: %v", job.ID, err)
		return
	}

	p.archiveResult(ctx, job.ID, models.StatusCompleted, raw)
	telemetry.GenerationCompleted.Inc()
	telemetry.GenerationDuration.Observe(time.Since(started).Seconds())
	_ = p.queue.Ack(ctx, job.ID)
	log.Printf("job %s completed, plan %s (%d days)", job.ID, plan.ID, plan.Days())
}

// generateWithRetry calls the planner, retrying transport-class failures
// with exponential backoff. Definitive rejections are returned immediately.
func (p *Processor) generateWithRetry(ctx context.Context, job models.GenerationJob) (*planner.Itinerary, []byte, error) {
	maxRetries := p.cfg.PlannerMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	var lastRaw []byte
	for attempt := 1; attempt <= maxRetries; attempt++ {
		it, raw, err := p.planner.GenerateItinerary(ctx, job.Brief)
		if err == nil {
			return it, raw, nil
		}
		lastErr = err
		if raw != nil {
			lastRaw = raw
		}
		if errors.Is(err, planner.ErrRejected) || ctx.Err() != nil {
			break
		}
		if attempt == maxRetries {
			break
		}

		wait := backoffWithJitter(p.cfg.BackoffInitial, p.cfg.BackoffMax, attempt)
		// Keep the lease ahead of the retry so the job is not redelivered
		// while we wait.
		_ = p.queue.ExtendLease(ctx, job.ID, wait+p.cfg.VisibilityTimeout)
		log.Printf("job %s attempt %d failed (%v), retrying in %s", job.ID, attempt, err, wait)
		select {
		case <-ctx.Done():
			return nil, lastRaw, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastRaw, lastErr
}

// itineraryActivities flattens the planner response into activity rows,
// dropping entries whose day falls outside the brief's date range.
func itineraryActivities(it *planner.Itinerary, maxDays int) []store.NewActivity {
	acts := make([]store.NewActivity, 0)
	for i, day := range it.Days {
		dayNumber := day.DayNumber
		if dayNumber == 0 {
			dayNumber = i + 1
		}
		if dayNumber < 1 || (maxDays > 0 && dayNumber > maxDays) {
			continue
		}
		for idx, item := range day.Items {
			if item.Name == "" {
				continue
			}
			acts = append(acts, store.NewActivity{
				DayNumber:             dayNumber,
				OrderIndex:            idx,
				AttractionName:        item.Name,
				AttractionAddress:     item.Address,
				AttractionDescription: item.Description,
				OpeningHours:          item.OpeningHours,
				Cost:                  item.Cost,
			})
		}
	}
	return acts
}

func rejectionMessage(err error) string {
	msg := err.Error()
	if cut := strings.TrimPrefix(msg, planner.ErrRejected.Error()+": "); cut != msg {
		return cut
	}
	return msg
}

func (p *Processor) archiveResult(ctx context.Context, jobID, outcome string, raw []byte) {
	if p.archiver == nil || len(raw) == 0 {
		return
	}
	if err := p.archiver.Store(ctx, jobID, outcome, raw); err != nil {
		log.Printf("archive job %s: %v", jobID, err)
	}
}

func backoffWithJitter(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if attempt <= 0 {
		return base
	}
	exp := float64(base) * math.Pow(2, float64(attempt-1))
	wait := time.Duration(exp)
	if wait > max {
		wait = max
	}
	jitter := time.Duration(rand.Int63n(int64(wait / 2)))
	return wait/2 + jitter
}
