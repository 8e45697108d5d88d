// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// RUNNER
// =============================================================================

// DefaultConcurrency is the number of jobs run at once.
const DefaultConcurrency = 3

// Runner executes jobs from a queue with bounded concurrency.
type Runner struct {
	queue       *Queue
	wg          sync.WaitGroup
	stop        chan struct{}
	stopOnce    sync.Once
	stopped     atomic.Bool
	semaphore   chan struct{}
	taskTimeout time.Duration
}

// NewRunner creates a runner. taskTimeout of 0 means no per-job timeout.
func NewRunner(queue *Queue, maxConcurrent int, taskTimeout time.Duration) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConcurrency
	}
	return &Runner{
		queue:       queue,
		stop:        make(chan struct{}),
		semaphore:   make(chan struct{}, maxConcurrent),
		taskTimeout: taskTimeout,
	}
}

// Start begins processing queued jobs.
func (r *Runner) Start() {
	go r.processLoop()
}

// Stop cancels nothing but waits for running jobs to return. Callers that
// need a fast stop cancel the relevant groups first.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
	})
	r.wg.Wait()
}

// processLoop polls the queue and starts jobs while slots are free.
func (r *Runner) processLoop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.dispatch()
		}
	}
}

// dispatch starts as many queued jobs as there are free slots.
func (r *Runner) dispatch() {
	for !r.stopped.Load() {
		select {
		case r.semaphore <- struct{}{}:
		default:
			return
		}
		task := r.queue.claim()
		if task == nil {
			<-r.semaphore
			return
		}
		r.wg.Add(1)
		go r.execute(task)
	}
}

func (r *Runner) execute(task *Task) {
	defer r.wg.Done()
	defer func() { <-r.semaphore }()

	var ctx context.Context
	var cancel context.CancelFunc
	if r.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), r.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	task.setCancel(cancel)
	defer cancel()

	err := runSafely(ctx, task.run)
	switch {
	case err == nil:
		r.queue.finish(task, StatusComplete, nil)
	case errors.Is(ctx.Err(), context.Canceled):
		r.queue.finish(task, StatusCanceled, nil)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.queue.finish(task, StatusFailed, fmt.Errorf("task timeout after %v: %w", r.taskTimeout, err))
	default:
		r.queue.finish(task, StatusFailed, err)
	}
}

// runSafely converts a panic in a job body into an error.
func runSafely(ctx context.Context, fn Func) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(ctx)
}

// =============================================================================
// BATCH EXECUTION
// =============================================================================

// RunBatch runs jobs synchronously with at most width running at once and
// returns their errors in input order. Jobs not yet started when ctx is
// done report ctx.Err().
func RunBatch(ctx context.Context, width int, jobs []Func) []error {
	if width <= 0 {
		width = DefaultConcurrency
	}
	errs := make([]error, len(jobs))
	semaphore := make(chan struct{}, width)
	var wg sync.WaitGroup

	cancelRest := func(from int) []error {
		for j := from; j < len(jobs); j++ {
			errs[j] = ctx.Err()
		}
		wg.Wait()
		return errs
	}

	for i, job := range jobs {
		if ctx.Err() != nil {
			return cancelRest(i)
		}
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			return cancelRest(i)
		}
		wg.Add(1)
		go func(i int, job Func) {
			defer wg.Done()
			defer func() { <-semaphore }()
			errs[i] = runSafely(ctx, job)
		}(i, job)
	}

	wg.Wait()
	return errs
}
