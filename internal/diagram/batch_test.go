// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchHealer_RenderAll(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{validSource}}
	h, _ := testHealer(fixer, DefaultOptions())
	batch := NewBatchHealer(h, 0)

	insts := Instances([]string{validSource, brokenSource, "pie title Load\n\"A\" : 40"}, 7)
	states, err := batch.RenderAll(context.Background(), insts)
	require.NoError(t, err)
	require.Len(t, states, 3)

	assert.True(t, states[0].Rendered)
	assert.Equal(t, StatusIdle, states[0].Status)
	assert.Equal(t, StatusHealed, states[1].Status)
	assert.True(t, states[2].Rendered)
	for _, s := range states {
		assert.Equal(t, uint64(7), s.Generation)
	}
	assert.Len(t, fixer.Calls(), 1)
}

func TestBatchHealer_BoundedWidth(t *testing.T) {
	var current, peak atomic.Int32
	renderer := RenderFunc(func(ctx context.Context, source string) (string, error) {
		n := current.Add(1)
		defer current.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return LintRenderer{}.Render(ctx, source)
	})
	h := NewHealer(renderer, &scriptedFixer{responses: []string{validSource}}, DefaultOptions(), nil)

	sources := make([]string, 8)
	for i := range sources {
		sources[i] = validSource
	}
	_, err := NewBatchHealer(h, DefaultBatchWidth).RenderAll(context.Background(), Instances(sources, 1))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(DefaultBatchWidth))
}

func TestBatchHealer_Canceled(t *testing.T) {
	h, _ := testHealer(&scriptedFixer{responses: []string{validSource}}, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	states, err := NewBatchHealer(h, 2).RenderAll(ctx, Instances([]string{validSource, brokenSource}, 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, states, 2)
}
