// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"errors"

	"github.com/jeranaias/makermind-tui/internal/tasks"
)

// DefaultBatchWidth is how many diagrams render or heal at once.
const DefaultBatchWidth = 3

// BatchHealer renders every diagram of a response in bounded parallel.
type BatchHealer struct {
	healer *Healer
	width  int
}

// NewBatchHealer wraps a healer. width <= 0 uses DefaultBatchWidth.
func NewBatchHealer(h *Healer, width int) *BatchHealer {
	if width <= 0 {
		width = DefaultBatchWidth
	}
	return &BatchHealer{healer: h, width: width}
}

// RenderAll renders, and where needed heals, each instance. The returned
// states are in input order. The error is ctx.Err() if the batch was
// abandoned; per-diagram failures are reported in the states.
func (b *BatchHealer) RenderAll(ctx context.Context, instances []*Instance) ([]State, error) {
	jobs := make([]tasks.Func, len(instances))
	for i, inst := range instances {
		jobs[i] = func(ctx context.Context) error {
			_, err := b.healer.Render(ctx, inst)
			return err
		}
	}

	errs := tasks.RunBatch(ctx, b.width, jobs)
	states := make([]State, len(instances))
	for i, inst := range instances {
		states[i] = inst.State()
	}
	for _, err := range errs {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return states, ctx.Err()
		}
	}
	return states, nil
}

// Instances creates idle instances for a list of diagram sources.
func Instances(sources []string, generation uint64) []*Instance {
	out := make([]*Instance, len(sources))
	for i, src := range sources {
		out[i] = NewInstance(src, generation)
	}
	return out
}
