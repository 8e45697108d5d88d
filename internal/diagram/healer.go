// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// HEAL STATUS
// =============================================================================

// Status is the healing state of one diagram instance.
type Status int

const (
	StatusIdle Status = iota
	StatusHealing
	StatusHealed
	StatusFailed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusHealing:
		return "healing"
	case StatusHealed:
		return "healed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// canTransition reports whether a status change is allowed. Leaving Failed
// is only possible through a manual retry.
func canTransition(from, to Status, manual bool) bool {
	switch from {
	case StatusIdle:
		return to == StatusHealing
	case StatusHealing:
		return to == StatusHealing || to == StatusHealed || to == StatusFailed
	case StatusFailed:
		return manual && to == StatusHealing
	default:
		return false
	}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrHealInProgress is returned when a heal is requested while one is running.
	ErrHealInProgress = errors.New("diagram heal already in progress")

	// ErrAttemptsExhausted is returned when no heal attempts remain.
	ErrAttemptsExhausted = errors.New("diagram heal attempts exhausted")

	// ErrNotHealable is returned for a diagram that rendered or never failed.
	ErrNotHealable = errors.New("diagram does not need healing")
)

// =============================================================================
// INSTANCE
// =============================================================================

// State is a snapshot of one diagram instance.
type State struct {
	ID string
	// Generation is the turn generation the diagram belongs to.
	Generation uint64
	// Original is the source exactly as it appeared in the response.
	Original string
	// Source is the last normalized candidate that was rendered.
	Source    string
	Attempts  int
	Status    Status
	LastError string
	// Output is the drawing, or the error image for a failing render.
	Output   string
	Rendered bool
}

// Failing reports whether the last render failed.
func (s State) Failing() bool {
	return !s.Rendered && s.LastError != ""
}

// DisplaySource is the text to show when no drawing is available: the
// healed source once healed, otherwise the source as originally written.
func (s State) DisplaySource() string {
	if s.Rendered {
		return s.Source
	}
	return s.Original
}

// Instance tracks the healing state of one diagram block. Its fields are
// only changed by a Healer.
type Instance struct {
	mu            sync.Mutex
	state         State
	autoTriggered bool
	inProgress    bool
}

// NewInstance creates an idle instance for a diagram source.
func NewInstance(source string, generation uint64) *Instance {
	return &Instance{state: State{
		ID:         uuid.New().String(),
		Generation: generation,
		Original:   source,
		Source:     source,
		Status:     StatusIdle,
	}}
}

// State returns a snapshot of the instance.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// transition changes the status (must be called with lock held).
func (i *Instance) transition(to Status, manual bool) error {
	if !canTransition(i.state.Status, to, manual) {
		return fmt.Errorf("invalid heal transition from %s to %s", i.state.Status, to)
	}
	i.state.Status = to
	return nil
}

// =============================================================================
// HEALER
// =============================================================================

const (
	// DefaultMaxAttempts bounds heal attempts per instance.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the backoff between failed attempts.
	DefaultRetryDelay = time.Second

	// DefaultInitialDelay defers the first automatic heal after a failed render.
	DefaultInitialDelay = 100 * time.Millisecond
)

// Fixer is the external capability that proposes corrected source.
type Fixer interface {
	FixDiagram(ctx context.Context, source, errMsg string) (string, error)
}

// Options configure a Healer.
type Options struct {
	AutoHeal     bool
	MaxAttempts  int
	RetryDelay   time.Duration
	InitialDelay time.Duration
}

// DefaultOptions returns auto-healing with three attempts.
func DefaultOptions() Options {
	return Options{
		AutoHeal:     true,
		MaxAttempts:  DefaultMaxAttempts,
		RetryDelay:   DefaultRetryDelay,
		InitialDelay: DefaultInitialDelay,
	}
}

// Healer drives diagram instances through rendering and healing.
// A Healer is safe for concurrent use on distinct instances; concurrent
// requests on the same instance are rejected with ErrHealInProgress.
type Healer struct {
	renderer Renderer
	fixer    Fixer
	cache    Cache
	limiter  *rate.Limiter
	opts     Options
	logger   *zap.Logger
	notify   func(State)
	sleep    func(ctx context.Context, d time.Duration) error

	autoHeal atomic.Bool
}

// NewHealer creates a healer. A nil logger discards logs.
func NewHealer(renderer Renderer, fixer Fixer, opts Options, logger *zap.Logger) *Healer {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Healer{
		renderer: renderer,
		fixer:    fixer,
		cache:    NopCache{},
		opts:     opts,
		logger:   logger.Named("healer"),
		sleep:    sleepContext,
	}
	h.autoHeal.Store(opts.AutoHeal)
	return h
}

// SetCache installs a heal cache.
func (h *Healer) SetCache(c Cache) {
	if c == nil {
		c = NopCache{}
	}
	h.cache = c
}

// SetLimiter rate limits calls to the fixer.
func (h *Healer) SetLimiter(l *rate.Limiter) { h.limiter = l }

// SetNotify registers a callback that receives a snapshot after every
// state change. It is called from the goroutine running the heal.
func (h *Healer) SetNotify(fn func(State)) { h.notify = fn }

// Options returns the healer's options.
func (h *Healer) Options() Options {
	opts := h.opts
	opts.AutoHeal = h.autoHeal.Load()
	return opts
}

// SetAutoHeal toggles automatic healing for instances rendered afterwards.
// It is safe to call while heals run.
func (h *Healer) SetAutoHeal(on bool) { h.autoHeal.Store(on) }

// Render performs the first render of an idle instance. On failure with
// auto-heal enabled, healing starts once per instance after the initial
// delay and Render returns when it settles.
func (h *Healer) Render(ctx context.Context, inst *Instance) (State, error) {
	snap := inst.State()
	if snap.Status != StatusIdle || snap.Rendered || snap.LastError != "" {
		return snap, nil
	}

	candidate := Normalize(snap.Source)
	res := Check(ctx, h.renderer, candidate)
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	inst.mu.Lock()
	inst.state.Source = candidate
	inst.state.Output = res.Output
	inst.state.Rendered = res.OK
	inst.state.LastError = res.Error
	trigger := !res.OK && h.autoHeal.Load() && !inst.autoTriggered
	if trigger {
		inst.autoTriggered = true
	}
	snap = inst.state
	inst.mu.Unlock()
	h.emit(snap)

	if !trigger {
		return snap, nil
	}
	h.logger.Debug("diagram render failed, scheduling heal",
		zap.String("diagram", snap.ID), zap.String("error", snap.LastError))
	if err := h.sleep(ctx, h.opts.InitialDelay); err != nil {
		return snap, err
	}
	return h.heal(ctx, inst, false)
}

// Retry starts a manual heal cycle on a failing instance while attempts
// remain.
func (h *Healer) Retry(ctx context.Context, inst *Instance) (State, error) {
	snap := inst.State()
	switch {
	case snap.Status == StatusHealing:
		return snap, ErrHealInProgress
	case snap.Rendered || !snap.Failing():
		return snap, ErrNotHealable
	case snap.Attempts >= h.opts.MaxAttempts:
		return snap, ErrAttemptsExhausted
	}
	return h.heal(ctx, inst, true)
}

// heal runs the bounded attempt loop. Each pass asks the fixer for a
// correction of the previous candidate, normalizes and renders it, and
// either finishes or backs off before the next pass.
func (h *Healer) heal(ctx context.Context, inst *Instance, manual bool) (State, error) {
	inst.mu.Lock()
	if inst.inProgress {
		snap := inst.state
		inst.mu.Unlock()
		return snap, ErrHealInProgress
	}
	if inst.state.Attempts >= h.opts.MaxAttempts {
		snap := inst.state
		inst.mu.Unlock()
		return snap, ErrAttemptsExhausted
	}
	if err := inst.transition(StatusHealing, manual); err != nil {
		snap := inst.state
		inst.mu.Unlock()
		return snap, err
	}
	inst.inProgress = true
	base, lastErr := inst.state.Source, inst.state.LastError
	key := CacheKey(inst.state.Original)
	id := inst.state.ID
	inst.mu.Unlock()

	defer func() {
		inst.mu.Lock()
		inst.inProgress = false
		inst.mu.Unlock()
	}()

	for {
		inst.mu.Lock()
		inst.state.Attempts++
		attempt := inst.state.Attempts
		snap := inst.state
		inst.mu.Unlock()
		h.emit(snap)

		log := h.logger.With(zap.String("diagram", id), zap.Int("attempt", attempt))
		log.Info("healing diagram", zap.String("error", lastErr))

		candidate, err := h.candidate(ctx, key, base, lastErr, attempt)
		if ctx.Err() != nil {
			return h.abandon(inst), ctx.Err()
		}
		if err != nil || strings.TrimSpace(candidate) == "" {
			reason := "heal returned no usable source"
			if err != nil {
				reason = err.Error()
			}
			log.Warn("heal produced no candidate", zap.String("reason", reason))
			return h.finish(inst, func(s *State) { s.LastError = reason }, StatusFailed), nil
		}

		candidate = Normalize(candidate)
		res := Check(ctx, h.renderer, candidate)
		if ctx.Err() != nil {
			return h.abandon(inst), ctx.Err()
		}

		if res.OK {
			if err := h.cache.Put(ctx, key, candidate); err != nil {
				log.Warn("failed to cache heal", zap.Error(err))
			}
			log.Info("diagram healed")
			return h.finish(inst, func(s *State) {
				s.Source, s.Output, s.Rendered, s.LastError = candidate, res.Output, true, ""
			}, StatusHealed), nil
		}

		base, lastErr = candidate, res.Error
		update := func(s *State) { s.Source, s.Output, s.LastError = candidate, res.Output, res.Error }
		if attempt >= h.opts.MaxAttempts {
			log.Warn("diagram heal attempts exhausted", zap.String("error", res.Error))
			return h.finish(inst, update, StatusFailed), nil
		}

		inst.mu.Lock()
		update(&inst.state)
		snap = inst.state
		inst.mu.Unlock()
		h.emit(snap)

		if err := h.sleep(ctx, h.opts.RetryDelay); err != nil {
			return h.abandon(inst), err
		}
	}
}

// candidate returns a correction for base. The cache is consulted on the
// first attempt only; later attempts must improve on a fresh candidate.
func (h *Healer) candidate(ctx context.Context, key, base, lastErr string, attempt int) (string, error) {
	if attempt == 1 {
		healed, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.Warn("heal cache lookup failed", zap.Error(err))
		} else if ok && Normalize(healed) != Normalize(base) {
			h.logger.Debug("heal cache hit", zap.String("key", key))
			return healed, nil
		}
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("heal rate limit wait: %w", err)
		}
	}
	return h.fixer.FixDiagram(ctx, base, lastErr)
}

// finish applies a final update and terminal status, then notifies.
func (h *Healer) finish(inst *Instance, update func(*State), to Status) State {
	inst.mu.Lock()
	update(&inst.state)
	if err := inst.transition(to, false); err != nil {
		h.logger.Error("heal state machine violation", zap.Error(err))
	}
	snap := inst.state
	inst.mu.Unlock()
	h.emit(snap)
	return snap
}

// abandon ends a heal whose context was canceled. The instance belongs to
// a superseded turn, so nothing is reported.
func (h *Healer) abandon(inst *Instance) State {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.state.Status == StatusHealing {
		inst.state.Status = StatusFailed
		inst.state.LastError = "healing canceled"
	}
	return inst.state
}

func (h *Healer) emit(s State) {
	if h.notify != nil {
		h.notify(s)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
