package service

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(2, 16, testLogger())

	var ran int64
	for i := 0; i < 10; i++ {
		d.Enqueue("count", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}
	d.Close()

	if got := atomic.LoadInt64(&ran); got != 10 {
		t.Fatalf("ran %d jobs, want 10", got)
	}
}

func TestDispatcherSurvivesPanic(t *testing.T) {
	d := NewDispatcher(1, 16, testLogger())

	var ran int64
	d.Enqueue("boom", func(ctx context.Context) error {
		panic("worker must recover")
	})
	d.Enqueue("after", func(ctx context.Context) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})
	d.Close()

	if got := atomic.LoadInt64(&ran); got != 1 {
		t.Fatalf("job after panic did not run")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// Zero workers: nothing drains the queue, so overflow drops instead of
	// blocking the caller.
	d := NewDispatcher(0, 2, testLogger())

	var ran int64
	for i := 0; i < 5; i++ {
		d.Enqueue("overflow", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}

	// Start a worker now to drain what was actually queued.
	d.wg.Add(1)
	go d.worker()
	d.Close()

	if got := atomic.LoadInt64(&ran); got != 2 {
		t.Fatalf("ran %d jobs, want the 2 that fit the buffer", got)
	}
}
