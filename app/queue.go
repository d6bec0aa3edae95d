package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/confsync/ports"
)

// ErrQueueStopped is returned by Submit after Stop.
var ErrQueueStopped = errors.New("queue stopped")

// Job is a unit of work run on the queue goroutine.
type Job func(ctx context.Context) Result

type queued struct {
	ctx  context.Context
	job  Job
	done chan Result
}

// Queue runs jobs one at a time in submission order. All store writes go
// through it, so handlers never observe a half-applied batch.
type Queue struct {
	jobs    chan queued
	metrics ports.SyncMetrics
	logger  zerolog.Logger

	mu      sync.RWMutex
	started bool
	closed  bool

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewQueue creates a queue holding up to size pending jobs. metrics may
// be nil.
func NewQueue(size int, metrics ports.SyncMetrics, logger zerolog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{
		jobs:    make(chan queued, size),
		metrics: metrics,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Start launches the worker. Cancelling ctx stops the queue like Stop.
// Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go q.run()
	go func() {
		select {
		case <-ctx.Done():
			q.Stop()
		case <-q.stopped:
		}
	}()

	q.logger.Debug().Int("capacity", cap(q.jobs)).Msg("sync queue started")
}

func (q *Queue) run() {
	defer close(q.stopped)

	for item := range q.jobs {
		q.report()

		// An accepted job runs to completion even if its submitter left.
		res := item.job(context.WithoutCancel(item.ctx))
		item.done <- res
		close(item.done)
	}
}

// Submit enqueues job. The returned channel delivers its Result once.
// Submit blocks while the queue is full, until ctx is done.
func (q *Queue) Submit(ctx context.Context, job Job) (<-chan Result, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueStopped
	}

	item := queued{ctx: ctx, job: job, done: make(chan Result, 1)}
	select {
	case q.jobs <- item:
		q.report()
		return item.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits job and waits for its Result.
func (q *Queue) Do(ctx context.Context, job Job) (Result, error) {
	done, err := q.Submit(ctx, job)
	if err != nil {
		return Result{}, err
	}
	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop refuses new jobs, lets pending ones finish and waits for the
// worker to exit.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		started := q.started
		close(q.jobs)
		q.mu.Unlock()

		if !started {
			// Nothing will drain the channel, so run leftovers here.
			go q.run()
		}
	})
	<-q.stopped
	q.logger.Debug().Msg("sync queue stopped")
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}

func (q *Queue) report() {
	if q.metrics != nil {
		q.metrics.QueueDepth(len(q.jobs))
	}
}
