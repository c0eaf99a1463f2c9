package queue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"travel-planner/internal/config"
)

func testQueue(t *testing.T) (*GenerationQueue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := newWithClient(client, config.Config{
		GenerationQueue:   "queue:generation",
		VisibilityTimeout: time.Minute,
	})
	return q, mr
}

func TestEnqueueDequeueAck(t *testing.T) {
	ctx := context.Background()
	q, _ := testQueue(t)

	if err := q.Enqueue(ctx, "job-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, "job-2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	depth, err := q.Depth(ctx)
	if err != nil || depth != 2 {
		t.Fatalf("expected depth 2, got %d err=%v", depth, err)
	}

	id, err := q.DequeueWithLease(ctx)
	if err != nil || id != "job-1" {
		t.Fatalf("expected job-1, got %q err=%v", id, err)
	}

	// Leased but unacked jobs are invisible to other dequeuers.
	id2, err := q.DequeueWithLease(ctx)
	if err != nil || id2 != "job-2" {
		t.Fatalf("expected job-2, got %q err=%v", id2, err)
	}
	id3, err := q.DequeueWithLease(ctx)
	if err != nil || id3 != "" {
		t.Fatalf("expected empty queue, got %q err=%v", id3, err)
	}

	if err := q.Ack(ctx, "job-1"); err != nil {
		t.Fatalf("ack: %v", err)
	}

	// Acked job must not be reclaimed later.
	ids, err := q.RequeueExpired(ctx, time.Now().Add(2*time.Minute), 10)
	if err != nil {
		t.Fatalf("requeue expired: %v", err)
	}
	if len(ids) != 1 || ids[0] != "job-2" {
		t.Fatalf("expected only job-2 reclaimed, got %v", ids)
	}

	id4, err := q.DequeueWithLease(ctx)
	if err != nil || id4 != "job-2" {
		t.Fatalf("expected reclaimed job-2, got %q err=%v", id4, err)
	}
}

func TestRequeueExpiredHonorsDeadline(t *testing.T) {
	ctx := context.Background()
	q, _ := testQueue(t)

	if err := q.Enqueue(ctx, "job-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DequeueWithLease(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	// Lease still live: nothing to reclaim.
	ids, err := q.RequeueExpired(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("requeue expired: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no reclaimed jobs, got %v", ids)
	}
}

func TestExtendLease(t *testing.T) {
	ctx := context.Background()
	q, _ := testQueue(t)

	if err := q.Enqueue(ctx, "job-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.DequeueWithLease(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.ExtendLease(ctx, "job-1", 10*time.Minute); err != nil {
		t.Fatalf("extend: %v", err)
	}

	// The original deadline has passed but the extension holds the lease.
	ids, err := q.RequeueExpired(ctx, time.Now().Add(2*time.Minute), 10)
	if err != nil {
		t.Fatalf("requeue expired: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected extended lease to survive, got %v", ids)
	}
}
