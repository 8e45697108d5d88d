// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs background jobs such as diagram heals without blocking
// the chat UI.
//
// # Key Types
//
//   - Task: one job with a status, a group, and a cancel function
//   - Queue: thread-safe job list with history and notifications
//   - Runner: drains a Queue with bounded concurrency
//
// # Usage
//
//	queue := tasks.NewQueue(50, logger)
//	runner := tasks.NewRunner(queue, 3, time.Minute)
//	runner.Start()
//	defer runner.Stop()
//
//	queue.Add(tasks.NewTask("heal diagram", turnID, func(ctx context.Context) error {
//	    _, err := healer.Render(ctx, inst)
//	    return err
//	}))
//
// Jobs that belong to a superseded turn are dropped with CancelGroup.
// RunBatch runs a fixed set of jobs synchronously at a bounded width.
package tasks
