// Package poll implements the client side of the generation status protocol:
// a fixed-interval, cancellable loop that queries a job's status until a
// terminal state, treating transient failures as retryable and giving up
// after a client-side timeout.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is one observation of a generation job.
type Status struct {
	JobID        string  `json:"job_id"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	PlanID       *string `json:"plan_id,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// StatusFunc performs a single status query. Implementations return
// ErrTransient-wrapped errors for failures worth retrying within the loop;
// any other error aborts the poll.
type StatusFunc func(ctx context.Context) (Status, error)

// ErrTransient marks a retryable query failure (network hiccup, 503).
var ErrTransient = errors.New("transient status query failure")

// ErrTimeout is returned when no terminal state was observed within the
// configured wait. The job may still complete server-side; the caller
// decides whether to resume polling or walk away.
var ErrTimeout = errors.New("generation did not finish in time")

// Poller re-queries a job status on a fixed interval.
type Poller struct {
	Interval time.Duration // default 5s
	Timeout  time.Duration // default 3m; 0 means wait forever
	// OnUpdate, when set, observes every successful non-terminal poll.
	OnUpdate func(Status)
}

// Wait polls until the job reaches completed or failed, the timeout lapses,
// or ctx is cancelled. The loop is driven by a ticker bound to ctx, so
// tearing down the caller always stops the polling.
func (p Poller) Wait(ctx context.Context, query StatusFunc) (Status, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Status
	for {
		st, err := query(ctx)
		switch {
		case err == nil:
			last = st
			if st.Status == "completed" || st.Status == "failed" {
				return st, nil
			}
			if p.OnUpdate != nil {
				p.OnUpdate(st)
			}
		case errors.Is(err, ErrTransient):
			// Keep polling; the next tick may succeed.
		default:
			return last, err
		}

		select {
		case <-ctx.Done():
			if p.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
