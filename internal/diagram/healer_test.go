// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	validSource  = "graph TD\nA --> B\nB --> C"
	brokenSource = "graph TD\nA --> B\nB -->"
)

// =============================================================================
// FAKES
// =============================================================================

type fixCall struct {
	source string
	errMsg string
}

// scriptedFixer returns responses in order, repeating the last one.
type scriptedFixer struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []fixCall
	block     chan struct{}
	entered   chan struct{}
}

func (f *scriptedFixer) FixDiagram(ctx context.Context, source, errMsg string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fixCall{source: source, errMsg: errMsg})
	n := len(f.calls) - 1
	f.mu.Unlock()

	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	var err error
	if len(f.errs) > 0 {
		err = f.errs[min(n, len(f.errs)-1)]
	}
	if err != nil {
		return "", err
	}
	return f.responses[min(n, len(f.responses)-1)], nil
}

func (f *scriptedFixer) Calls() []fixCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fixCall(nil), f.calls...)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCache() *memCache { return &memCache{entries: map[string]string{}} }

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, key, healed string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = healed
	return nil
}

func (c *memCache) Close() error { return nil }

// testHealer returns a healer whose sleeps are recorded instead of waited.
func testHealer(fixer Fixer, opts Options) (*Healer, *[]time.Duration) {
	h := NewHealer(LintRenderer{}, fixer, opts, nil)
	var mu sync.Mutex
	sleeps := []time.Duration{}
	h.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		sleeps = append(sleeps, d)
		mu.Unlock()
		return ctx.Err()
	}
	return h, &sleeps
}

// =============================================================================
// RENDER AND AUTO-HEAL
// =============================================================================

func TestHealer_ValidDiagramNeedsNoHeal(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{validSource}}
	h, sleeps := testHealer(fixer, DefaultOptions())

	state, err := h.Render(context.Background(), NewInstance(validSource, 1))
	require.NoError(t, err)

	assert.True(t, state.Rendered)
	assert.Equal(t, StatusIdle, state.Status)
	assert.Zero(t, state.Attempts)
	assert.Empty(t, fixer.Calls())
	assert.Empty(t, *sleeps)
}

func TestHealer_AutoHealSucceedsFirstAttempt(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{"graph TD\nA-->B\nB-->C"}}
	h, sleeps := testHealer(fixer, DefaultOptions())

	inst := NewInstance(brokenSource, 1)
	state, err := h.Render(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, StatusHealed, state.Status)
	assert.Equal(t, 1, state.Attempts)
	assert.True(t, state.Rendered)
	assert.Equal(t, validSource, state.Source, "healed source is normalized")
	assert.Equal(t, brokenSource, state.Original)
	assert.Empty(t, state.LastError)

	calls := fixer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, brokenSource, calls[0].source)
	assert.Contains(t, calls[0].errMsg, "arrow without target")
	assert.Equal(t, []time.Duration{DefaultInitialDelay}, *sleeps)
}

func TestHealer_ExhaustsAttempts(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{"graph TD\nA -->"}}
	h, sleeps := testHealer(fixer, DefaultOptions())

	inst := NewInstance(brokenSource, 1)
	state, err := h.Render(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, DefaultMaxAttempts, state.Attempts)
	assert.False(t, state.Rendered)
	assert.True(t, state.Failing())
	assert.Equal(t, brokenSource, state.DisplaySource(), "failed diagrams fall back to the source as written")
	assert.Len(t, fixer.Calls(), DefaultMaxAttempts)
	assert.Equal(t, []time.Duration{DefaultInitialDelay, DefaultRetryDelay, DefaultRetryDelay}, *sleeps)

	// Later attempts improve on the previous candidate.
	assert.Equal(t, "graph TD\nA -->", fixer.Calls()[1].source)

	_, err = h.Retry(context.Background(), inst)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Len(t, fixer.Calls(), DefaultMaxAttempts)
}

func TestHealer_AutoHealRunsOnce(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{validSource}}
	h, _ := testHealer(fixer, DefaultOptions())

	inst := NewInstance(brokenSource, 1)
	_, err := h.Render(context.Background(), inst)
	require.NoError(t, err)
	_, err = h.Render(context.Background(), inst)
	require.NoError(t, err)

	assert.Len(t, fixer.Calls(), 1)
}

func TestHealer_FixerErrorFailsThenManualRetryHeals(t *testing.T) {
	fixer := &scriptedFixer{
		responses: []string{"", validSource},
		errs:      []error{errors.New("upstream unavailable"), nil},
	}
	h, _ := testHealer(fixer, DefaultOptions())

	inst := NewInstance(brokenSource, 1)
	state, err := h.Render(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, 1, state.Attempts)
	assert.Equal(t, "upstream unavailable", state.LastError)

	state, err = h.Retry(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, StatusHealed, state.Status)
	assert.Equal(t, 2, state.Attempts)
}

func TestHealer_EmptyCorrectionFails(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{"   "}}
	h, _ := testHealer(fixer, DefaultOptions())

	state, err := h.Render(context.Background(), NewInstance(brokenSource, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, 1, state.Attempts)
}

func TestHealer_AutoHealDisabled(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{validSource}}
	opts := DefaultOptions()
	opts.AutoHeal = false
	h, _ := testHealer(fixer, opts)

	inst := NewInstance(brokenSource, 1)
	state, err := h.Render(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, state.Status)
	assert.True(t, state.Failing())
	assert.Empty(t, fixer.Calls())

	state, err = h.Retry(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, StatusHealed, state.Status)
	assert.Equal(t, 1, state.Attempts)
}

// =============================================================================
// MANUAL RETRY RULES
// =============================================================================

func TestHealer_RetryRejectsHealthyDiagram(t *testing.T) {
	h, _ := testHealer(&scriptedFixer{responses: []string{validSource}}, DefaultOptions())

	inst := NewInstance(validSource, 1)
	_, err := h.Retry(context.Background(), inst)
	assert.ErrorIs(t, err, ErrNotHealable, "never rendered")

	_, err = h.Render(context.Background(), inst)
	require.NoError(t, err)
	_, err = h.Retry(context.Background(), inst)
	assert.ErrorIs(t, err, ErrNotHealable, "rendered fine")
}

func TestHealer_RetryWhileHealing(t *testing.T) {
	fixer := &scriptedFixer{
		responses: []string{validSource},
		block:     make(chan struct{}),
		entered:   make(chan struct{}, 1),
	}
	h, _ := testHealer(fixer, DefaultOptions())
	inst := NewInstance(brokenSource, 1)

	done := make(chan State, 1)
	go func() {
		state, _ := h.Render(context.Background(), inst)
		done <- state
	}()

	select {
	case <-fixer.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("heal never reached the fixer")
	}
	assert.Equal(t, StatusHealing, inst.State().Status)

	_, err := h.Retry(context.Background(), inst)
	assert.ErrorIs(t, err, ErrHealInProgress)

	close(fixer.block)
	state := <-done
	assert.Equal(t, StatusHealed, state.Status)
	assert.Len(t, fixer.Calls(), 1)
}

func TestHealer_CanceledHealIsNotReported(t *testing.T) {
	fixer := &scriptedFixer{
		responses: []string{validSource},
		block:     make(chan struct{}),
		entered:   make(chan struct{}, 1),
	}
	h, _ := testHealer(fixer, DefaultOptions())

	var mu sync.Mutex
	var reported []State
	h.SetNotify(func(s State) {
		mu.Lock()
		reported = append(reported, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := h.Render(ctx, NewInstance(brokenSource, 1))
		errc <- err
	}()

	<-fixer.entered
	mu.Lock()
	before := len(reported)
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before, len(reported), "no state is published after cancellation")
	for _, s := range reported {
		assert.NotEqual(t, StatusHealed, s.Status)
	}
}

// =============================================================================
// NOTIFICATIONS, CACHE, AND RATE LIMIT
// =============================================================================

func TestHealer_NotifySequence(t *testing.T) {
	h, _ := testHealer(&scriptedFixer{responses: []string{validSource}}, DefaultOptions())

	var statuses []Status
	var attempts []int
	h.SetNotify(func(s State) {
		statuses = append(statuses, s.Status)
		attempts = append(attempts, s.Attempts)
	})

	_, err := h.Render(context.Background(), NewInstance(brokenSource, 1))
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusIdle, StatusHealing, StatusHealed}, statuses)
	assert.Equal(t, []int{0, 1, 1}, attempts)
}

func TestHealer_CacheHitSkipsFixer(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{"graph TD\nA -->"}}
	h, _ := testHealer(fixer, DefaultOptions())
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), CacheKey(brokenSource), validSource))
	h.SetCache(cache)

	state, err := h.Render(context.Background(), NewInstance(brokenSource, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusHealed, state.Status)
	assert.Empty(t, fixer.Calls())
}

func TestHealer_SuccessfulHealIsCached(t *testing.T) {
	h, _ := testHealer(&scriptedFixer{responses: []string{validSource}}, DefaultOptions())
	cache := newMemCache()
	h.SetCache(cache)

	_, err := h.Render(context.Background(), NewInstance(brokenSource, 1))
	require.NoError(t, err)

	healed, ok, err := cache.Get(context.Background(), CacheKey(brokenSource))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, validSource, healed)
}

func TestHealer_LimiterWaitFailure(t *testing.T) {
	fixer := &scriptedFixer{responses: []string{validSource}}
	h, _ := testHealer(fixer, DefaultOptions())
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow(), "drain the only token")
	h.SetLimiter(limiter)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	state, err := h.Render(ctx, NewInstance(brokenSource, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Contains(t, state.LastError, "rate limit")
	assert.Empty(t, fixer.Calls())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(StatusIdle, StatusHealing, false))
	assert.True(t, canTransition(StatusHealing, StatusHealed, false))
	assert.True(t, canTransition(StatusHealing, StatusFailed, false))
	assert.False(t, canTransition(StatusFailed, StatusHealing, false))
	assert.True(t, canTransition(StatusFailed, StatusHealing, true))
	assert.False(t, canTransition(StatusHealed, StatusHealing, true))
	assert.False(t, canTransition(StatusIdle, StatusHealed, false))
}
