// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// Status represents the current state of a job.
type Status string

const (
	StatusQueued   Status = "Queued"
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
	StatusCanceled Status = "Canceled"
)

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCanceled
}

// validTransition checks a status change. Queued -> Running -> terminal,
// and anything not yet terminal may be canceled.
func validTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusRunning || to == StatusCanceled
	case StatusRunning:
		return to.Terminal()
	default:
		return false
	}
}

// =============================================================================
// TASK
// =============================================================================

// Func is the body of a job. It must return promptly once ctx is done.
type Func func(ctx context.Context) error

// Task is one background job.
type Task struct {
	ID          string
	Description string
	// Group ties jobs to the chat turn that created them.
	Group     string
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	Error     string

	run    Func
	cancel context.CancelFunc
	mu     sync.RWMutex
}

// NewTask creates a queued job.
func NewTask(description, group string, fn Func) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Description: description,
		Group:       group,
		Status:      StatusQueued,
		run:         fn,
	}
}

// GetStatus returns the current status (thread-safe).
func (t *Task) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// GetError returns the failure message, if any.
func (t *Task) GetError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Error
}

// setStatus moves the task to a new status, stamping start and end times.
func (t *Task) setStatus(to Status, err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !validTransition(t.Status, to) {
		return fmt.Errorf("invalid status transition from %s to %s", t.Status, to)
	}
	t.Status = to
	switch {
	case to == StatusRunning:
		t.StartTime = time.Now()
	case to.Terminal():
		t.EndTime = time.Now()
	}
	if err != nil {
		t.Error = err.Error()
	}
	return nil
}

func (t *Task) setCancel(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Cancel stops a queued or running job. A running job's context is canceled
// and the runner records the final status when its body returns.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.Status {
	case StatusQueued:
		t.Status = StatusCanceled
		t.EndTime = time.Now()
		return true
	case StatusRunning:
		if t.cancel != nil {
			t.cancel()
		}
		return true
	default:
		return false
	}
}

// Duration returns how long the job has been running or took to finish.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// IsComplete returns true once the job finished, failed, or was canceled.
func (t *Task) IsComplete() bool {
	return t.GetStatus().Terminal()
}

// Summary returns a one-line description of the job.
func (t *Task) Summary() string {
	summary := fmt.Sprintf("[%s] %s - %s", t.ID[:8], t.Description, t.GetStatus())
	if d := t.Duration(); d > 0 {
		summary += fmt.Sprintf(" (%.1fs)", d.Seconds())
	}
	return summary
}

// Clone returns a read-only copy without the job body.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &Task{
		ID:          t.ID,
		Description: t.Description,
		Group:       t.Group,
		Status:      t.Status,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Error:       t.Error,
	}
}
