// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/model"
	"github.com/jeranaias/makermind-tui/internal/tasks"
	"github.com/jeranaias/makermind-tui/internal/turn"
)

var (
	// ErrEmptyMessage is returned for a blank user message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTurnSuperseded is returned when a newer turn or a new chat
	// invalidated the turn before it settled.
	ErrTurnSuperseded = errors.New("turn superseded")

	// ErrNoDiagram is returned when the last reply has no such diagram.
	ErrNoDiagram = errors.New("no such diagram")

	// ErrNoRenderer is returned when diagrams are shown as source only.
	ErrNoRenderer = errors.New("diagram rendering disabled")
)

// =============================================================================
// SESSION
// =============================================================================

// ChatHandle is a stateful streaming chat. Chunks are delivered in order
// on the calling goroutine before SendStream returns.
type ChatHandle interface {
	SendStream(ctx context.Context, message string, onChunk func(string)) (string, error)
}

// ChatFactory opens a fresh chat handle.
type ChatFactory func() ChatHandle

// Options configures a Session.
type Options struct {
	// AutoContinue runs continuations on truncated replies.
	AutoContinue bool
	// Model is recorded on conversations.
	Model string
	// Analyzer judges completeness. The zero value uses the defaults.
	Analyzer document.Analyzer
	// HistorySize bounds finished heal jobs kept by the job queue.
	HistorySize int
	Logger      *zap.Logger
}

// Session owns the chat handle and the conversation. The chat handle is
// replaced wholesale by NewChat, never mutated.
type Session struct {
	mu         sync.Mutex
	newChat    ChatFactory
	chat       ChatHandle
	conv       *model.Conversation
	generation uint64
	turnCtx    context.Context
	cancel     context.CancelFunc
	// genCtx lives as long as the generation; CancelTurn leaves it alone.
	genCtx     context.Context
	genCancel  context.CancelFunc
	group      string
	listener   func(Event)

	coordinator  *turn.Coordinator
	healer       *diagram.Healer
	analyzer     document.Analyzer
	autoContinue atomic.Bool
	model        string

	queue  *tasks.Queue
	runner *tasks.Runner
	logger *zap.Logger
}

// New creates a session. coordinator may be nil to disable continuation,
// healer may be nil to show diagram source only.
func New(factory ChatFactory, coordinator *turn.Coordinator, healer *diagram.Healer, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Analyzer == (document.Analyzer{}) {
		opts.Analyzer = document.NewAnalyzer()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 100
	}

	queue := tasks.NewQueue(opts.HistorySize, logger)
	runner := tasks.NewRunner(queue, diagram.DefaultBatchWidth, 0)
	runner.Start()

	ctx, cancel := context.WithCancel(context.Background())
	genCtx, genCancel := context.WithCancel(context.Background())
	s := &Session{
		newChat:     factory,
		chat:        factory(),
		conv:        model.NewConversation(opts.Model),
		turnCtx:     ctx,
		cancel:      cancel,
		genCtx:      genCtx,
		genCancel:   genCancel,
		group:       uuid.NewString(),
		coordinator: coordinator,
		healer:      healer,
		analyzer:    opts.Analyzer,
		model:       opts.Model,
		queue:       queue,
		runner:      runner,
		logger:      logger.Named("session"),
	}
	s.autoContinue.Store(opts.AutoContinue)
	if healer != nil {
		healer.SetNotify(s.onDiagram)
	}
	return s
}

// SetListener registers the event callback. It may be called from any
// goroutine running turn or heal work.
func (s *Session) SetListener(fn func(Event)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// SetAutoContinue toggles continuation for later turns.
func (s *Session) SetAutoContinue(on bool) { s.autoContinue.Store(on) }

// SetAutoHeal toggles automatic healing for diagrams rendered afterwards.
func (s *Session) SetAutoHeal(on bool) {
	if s.healer != nil {
		s.healer.SetAutoHeal(on)
	}
}

// Conversation returns the current conversation.
func (s *Session) Conversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// Generation returns the current turn generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Jobs returns the background job queue.
func (s *Session) Jobs() *tasks.Queue { return s.queue }

// NewChat discards the chat handle and conversation and invalidates all
// in-flight work.
func (s *Session) NewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(context.Background())
	s.chat = s.newChat()
	s.conv = model.NewConversation(s.model)
	s.logger.Info("new chat", zap.Uint64("generation", s.generation))
}

// CancelTurn stops the running turn and its background jobs. The partial
// reply is kept.
func (s *Session) CancelTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	if n := s.queue.CancelGroup(s.group); n > 0 {
		s.logger.Debug("canceled turn jobs", zap.Int("count", n))
	}
}

// Close cancels all work, manual heals included, and waits for background
// jobs to return.
func (s *Session) Close() {
	s.CancelTurn()
	s.mu.Lock()
	s.genCancel()
	s.mu.Unlock()
	s.runner.Stop()
}

// invalidateLocked bumps the generation and starts a fresh turn scope.
func (s *Session) invalidateLocked(parent context.Context) {
	s.generation++
	s.cancel()
	s.genCancel()
	s.queue.CancelGroup(s.group)
	s.turnCtx, s.cancel = context.WithCancel(parent)
	s.genCtx, s.genCancel = context.WithCancel(context.Background())
	s.group = uuid.NewString()
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// =============================================================================
// TURN PIPELINE
// =============================================================================

type turnScope struct {
	ctx   context.Context
	gen   uint64
	group string
	chat  ChatHandle
	conv  *model.Conversation
}

func (s *Session) beginTurn(parent context.Context) turnScope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(parent)
	return turnScope{ctx: s.turnCtx, gen: s.generation, group: s.group, chat: s.chat, conv: s.conv}
}

// Send runs one turn and returns the assistant message. A transport
// failure of the initial stream marks the message failed and is returned;
// continuation and diagram problems never fail the turn.
func (s *Session) Send(ctx context.Context, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	scope := s.beginTurn(ctx)
	log := s.logger.With(zap.Uint64("generation", scope.gen))
	scope.conv.AddUserMessage(text)
	msg := scope.conv.AddAssistantMessage(scope.gen)
	stats := model.NewStatistics()
	buf := turn.NewResponseBuffer("")

	forward := func(chunk string) {
		if chunk == "" || !s.isCurrent(scope.gen) {
			return
		}
		stats.RecordFirstToken()
		msg.AppendToken(chunk)
		s.publish(Event{Kind: EventChunk, Generation: scope.gen, MessageID: msg.ID, Text: chunk})
	}
	onChunk := func(chunk string) {
		if chunk == "" || !s.isCurrent(scope.gen) {
			return
		}
		if err := buf.Append(chunk); err != nil {
			return
		}
		forward(chunk)
	}

	if _, err := scope.chat.SendStream(scope.ctx, text, onChunk); err != nil {
		buf.Freeze()
		if scope.ctx.Err() != nil {
			return s.abandon(scope, msg, stats)
		}
		log.Warn("initial stream failed", zap.Error(err))
		stats.Finalize()
		msg.MarkFailed()
		s.publish(Event{Kind: EventTurnFailed, Generation: scope.gen, MessageID: msg.ID, Err: err})
		return msg, fmt.Errorf("stream reply: %w", err)
	}

	verdict := s.analyzer.Analyze(buf.String())
	autoCompleted := false
	if !verdict.IsComplete && s.coordinator != nil && s.autoContinue.Load() {
		s.publish(Event{Kind: EventContinuing, Generation: scope.gen, MessageID: msg.ID})
		res, err := s.coordinator.Complete(scope.ctx, text, buf, forward)
		if err != nil {
			buf.Freeze()
			return s.abandon(scope, msg, stats)
		}
		verdict = res.Verdict
		autoCompleted = res.AutoCompleted
	}
	buf.Freeze()

	if !s.isCurrent(scope.gen) {
		return s.abandon(scope, msg, stats)
	}

	final := buf.String()
	metrics, err := document.ExtractMetrics(final)
	if err != nil {
		log.Warn("telemetry block unreadable", zap.Error(err))
		metrics = nil
	}
	instances := diagramInstances(final, scope.gen)

	stats.Finalize()
	msg.Annotate(verdict, metrics, autoCompleted, instances)
	msg.FinalizeStream(stats)
	log.Info("turn settled",
		zap.Bool("complete", verdict.IsComplete),
		zap.Strings("defects", verdict.DefectNames()),
		zap.Bool("auto_completed", autoCompleted),
		zap.Int("diagrams", len(instances)))
	s.publish(Event{Kind: EventTurnDone, Generation: scope.gen, MessageID: msg.ID})

	s.scheduleRenders(scope, instances)
	return msg, nil
}

// abandon settles a turn that was canceled or superseded. The message keeps
// what arrived; nothing is published.
func (s *Session) abandon(scope turnScope, msg *model.Message, stats *model.Statistics) (*model.Message, error) {
	stats.Finalize()
	msg.FinalizeStream(stats)
	if !s.isCurrent(scope.gen) {
		return msg, ErrTurnSuperseded
	}
	return msg, fmt.Errorf("turn canceled: %w", context.Cause(scope.ctx))
}

// diagramInstances creates one instance per mermaid diagram, in document
// order. Box-drawing art is displayed as is and gets none.
func diagramInstances(text string, gen uint64) []*diagram.Instance {
	var out []*diagram.Instance
	for _, b := range document.Diagrams(document.Segment(text)) {
		if b.DiagramKind != document.DiagramMermaid || b.Open {
			continue
		}
		out = append(out, diagram.NewInstance(b.Source, gen))
	}
	return out
}

// scheduleRenders queues the first render of every instance. Failing
// renders heal inside the same job when auto-heal is on.
func (s *Session) scheduleRenders(scope turnScope, instances []*diagram.Instance) {
	if s.healer == nil {
		return
	}
	for i, inst := range instances {
		task := tasks.NewTask(fmt.Sprintf("render diagram %d", i+1), scope.group, func(ctx context.Context) error {
			_, err := s.healer.Render(ctx, inst)
			return err
		})
		if err := s.queue.Add(task); err != nil {
			s.logger.Warn("could not queue diagram render", zap.Error(err))
		}
	}
}

func (s *Session) onDiagram(state diagram.State) {
	if !s.isCurrent(state.Generation) {
		return
	}
	s.publish(Event{Kind: EventDiagram, Generation: state.Generation, Diagram: state})
}

// =============================================================================
// MANUAL HEAL
// =============================================================================

// RetryDiagram manually heals diagram n (1-based) of the last reply. It
// blocks until the heal settles. A new turn, a new chat or Close cancels
// it; CancelTurn does not, so a diagram of a canceled reply can still be
// healed.
func (s *Session) RetryDiagram(ctx context.Context, n int) (diagram.State, error) {
	if s.healer == nil {
		return diagram.State{}, ErrNoRenderer
	}

	s.mu.Lock()
	conv, gen, genCtx := s.conv, s.generation, s.genCtx
	s.mu.Unlock()

	msg := conv.LastAssistantMessage()
	if msg == nil || msg.Generation != gen {
		return diagram.State{}, fmt.Errorf("%w: %d", ErrNoDiagram, n)
	}
	inst := msg.Diagram(n)
	if inst == nil {
		return diagram.State{}, fmt.Errorf("%w: %d", ErrNoDiagram, n)
	}

	hctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(genCtx, cancel)
	defer stop()

	return s.healer.Retry(hctx, inst)
}
