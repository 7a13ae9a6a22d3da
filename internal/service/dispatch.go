package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// job is one queued side effect with a name for the logs.
type job struct {
	name string
	fn   func(ctx context.Context) error
}

// Dispatcher is the outbox for fire-and-forget side effects (feedback
// generation, report/badge hand-off). It decouples them from the write path
// that enqueued them: a committed answer or end transition is never rolled
// back by a side-effect failure, and the enqueueing caller never blocks. If
// the queue is full the job is dropped with an error log.
type Dispatcher struct {
	jobs    chan job
	timeout time.Duration
	wg      sync.WaitGroup
	log     zerolog.Logger
}

// NewDispatcher starts the worker pool immediately.
func NewDispatcher(workers, buffer int, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		jobs:    make(chan job, buffer),
		timeout: 30 * time.Second,
		log:     log.With().Str("component", "dispatch").Logger(),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue queues a side effect. Never blocks; a full queue drops the job.
func (d *Dispatcher) Enqueue(name string, fn func(ctx context.Context) error) {
	select {
	case d.jobs <- job{name: name, fn: fn}:
	default:
		d.log.Error().Str("job", name).Msg("outbox full, dropping job")
	}
}

// Close drains queued jobs and stops the workers.
func (d *Dispatcher) Close() {
	close(d.jobs)
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("job", j.name).Interface("panic", r).Msg("recovered job panic")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := j.fn(ctx); err != nil {
		d.log.Error().Err(err).Str("job", j.name).Msg("side effect failed")
	}
}
