// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// QUEUE
// =============================================================================

// Notification reports a job reaching a terminal status.
type Notification struct {
	TaskID      string
	Description string
	Group       string
	Status      Status
	Error       string
	Duration    time.Duration
}

// Queue holds queued, running, and recently finished jobs.
type Queue struct {
	tasks      []*Task
	running    map[string]*Task
	maxHistory int
	mu         sync.RWMutex
	notifyChan chan Notification
	logger     *zap.Logger
}

// NewQueue creates a queue that keeps at most maxHistory finished jobs
// (0 = unlimited). A nil logger discards logs.
func NewQueue(maxHistory int, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		running:    make(map[string]*Task),
		maxHistory: maxHistory,
		notifyChan: make(chan Notification, 100),
		logger:     logger.Named("tasks"),
	}
}

// Add appends a queued job.
func (q *Queue) Add(task *Task) error {
	if task == nil || task.run == nil {
		return errors.New("task has no body")
	}
	if status := task.GetStatus(); status != StatusQueued {
		return fmt.Errorf("cannot queue task in status %s", status)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

// Get returns a copy of the job with the given ID, or nil.
func (q *Queue) Get(id string) *Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, task := range q.tasks {
		if task.ID == id {
			return task.Clone()
		}
	}
	return nil
}

// Cancel cancels one job by ID.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, task := range q.tasks {
		if task.ID == id {
			return q.cancelLocked(task)
		}
	}
	return false
}

// CancelGroup cancels every unfinished job in a group and returns how many
// were affected.
func (q *Queue) CancelGroup(group string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, task := range q.tasks {
		if task.Group == group && !task.IsComplete() && q.cancelLocked(task) {
			n++
		}
	}
	return n
}

func (q *Queue) cancelLocked(task *Task) bool {
	wasQueued := task.GetStatus() == StatusQueued
	if !task.Cancel() {
		return false
	}
	if wasQueued {
		q.notify(notificationFor(task))
	}
	return true
}

// claim marks the oldest queued job as running and returns it, or nil.
func (q *Queue) claim() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, task := range q.tasks {
		if task.GetStatus() != StatusQueued {
			continue
		}
		if err := task.setStatus(StatusRunning, nil); err != nil {
			continue
		}
		q.running[task.ID] = task
		return task
	}
	return nil
}

// finish records the terminal status of a running job.
func (q *Queue) finish(task *Task, to Status, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if serr := task.setStatus(to, err); serr != nil {
		q.logger.Warn("task status update rejected", zap.String("task", task.ID), zap.Error(serr))
	}
	delete(q.running, task.ID)
	q.notify(notificationFor(task))
	q.cleanupLocked()
}

// =============================================================================
// QUERIES
// =============================================================================

// All returns copies of every job.
func (q *Queue) All() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, len(q.tasks))
	for i, task := range q.tasks {
		result[i] = task.Clone()
	}
	return result
}

// Pending returns the number of queued or running jobs.
func (q *Queue) Pending() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	n := 0
	for _, task := range q.tasks {
		if !task.IsComplete() {
			n++
		}
	}
	return n
}

// RunningCount returns the number of running jobs.
func (q *Queue) RunningCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.running)
}

// Count returns the total number of jobs held.
func (q *Queue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications delivers a message each time a job finishes.
func (q *Queue) Notifications() <-chan Notification {
	return q.notifyChan
}

// notify sends without blocking (must be called with lock held).
func (q *Queue) notify(n Notification) {
	select {
	case q.notifyChan <- n:
	default:
		q.logger.Warn("notification channel full, dropping",
			zap.String("task", n.TaskID), zap.String("status", n.Status.String()))
	}
}

func notificationFor(task *Task) Notification {
	c := task.Clone()
	return Notification{
		TaskID:      c.ID,
		Description: c.Description,
		Group:       c.Group,
		Status:      c.Status,
		Error:       c.Error,
		Duration:    task.Duration(),
	}
}

// =============================================================================
// CLEANUP
// =============================================================================

// cleanupLocked drops the oldest finished jobs beyond maxHistory. Removal
// follows slice order, not completion time.
func (q *Queue) cleanupLocked() {
	if q.maxHistory <= 0 {
		return
	}

	finished := 0
	for _, task := range q.tasks {
		if task.IsComplete() {
			finished++
		}
	}
	toRemove := finished - q.maxHistory
	if toRemove <= 0 {
		return
	}

	kept := make([]*Task, 0, len(q.tasks)-toRemove)
	for _, task := range q.tasks {
		if task.IsComplete() && toRemove > 0 {
			toRemove--
			continue
		}
		kept = append(kept, task)
	}
	q.tasks = kept
}

// Clear removes all finished jobs.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := make([]*Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		if !task.IsComplete() {
			kept = append(kept, task)
		}
	}
	q.tasks = kept
}
