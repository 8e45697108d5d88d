// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/export"
	"github.com/jeranaias/makermind-tui/internal/model"
	"github.com/jeranaias/makermind-tui/internal/session"
	"github.com/jeranaias/makermind-tui/internal/tasks"
	"github.com/jeranaias/makermind-tui/internal/ui/components"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// =============================================================================
// SESSION INTERFACE
// =============================================================================

// Session is the part of session.Session the chat view drives.
type Session interface {
	SetListener(fn func(session.Event))
	SetAutoContinue(on bool)
	SetAutoHeal(on bool)
	Conversation() *model.Conversation
	Jobs() *tasks.Queue
	NewChat()
	CancelTurn()
	Send(ctx context.Context, text string) (*model.Message, error)
	RetryDiagram(ctx context.Context, n int) (diagram.State, error)
}

var _ Session = (*session.Session)(nil)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Session is required.
	Session Session
	Theme   *styles.Theme

	ModelName string
	Version   string

	AutoContinue    bool
	AutoHeal        bool
	MaxHealAttempts int
	WordWrap        bool

	// Export controls where /export writes files.
	Export *export.Options
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	session Session
	bridge  *eventBridge
	ctx     context.Context
	stop    context.CancelFunc

	// Styling
	theme *styles.Theme
	keys  KeyMap

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	viewport *components.ChatViewport
	input    textarea.Model
	spinner  components.Spinner

	// Status
	status    components.Status
	busy      bool
	ticking   bool
	notice    string
	lastError error
	healing   int

	modelName       string
	version         string
	autoContinue    bool
	autoHeal        bool
	maxHealAttempts int
	wordWrap        bool
	exportOpts      *export.Options
}

// New creates a chat model and registers it as the session listener.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	if opts.MaxHealAttempts <= 0 {
		opts.MaxHealAttempts = diagram.DefaultMaxAttempts
	}
	if opts.Export == nil {
		opts.Export = export.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = "Describe the device or system to engineer..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 8000
	ta.SetHeight(3)
	ta.Focus()

	ta.KeyMap.InsertNewline.SetEnabled(false)

	bridge := newEventBridge()
	opts.Session.SetListener(bridge.publish)

	ctx, stop := context.WithCancel(context.Background())
	return Model{
		session:         opts.Session,
		bridge:          bridge,
		ctx:             ctx,
		stop:            stop,
		theme:           theme,
		keys:            DefaultKeyMap(),
		viewport:        components.NewChatViewport(),
		input:           ta,
		spinner:         components.NewSpinner(styles.ScanSpinner, "Generating blueprint"),
		status:          components.StatusReady,
		modelName:       opts.ModelName,
		version:         opts.Version,
		autoContinue:    opts.AutoContinue,
		autoHeal:        opts.AutoHeal,
		maxHealAttempts: opts.MaxHealAttempts,
		wordWrap:        opts.WordWrap,
		exportOpts:      opts.Export,
	}
}

// Init starts the cursor blink and the event waiter.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.bridge.next())
}

// Busy reports whether a turn is running.
func (m Model) Busy() bool { return m.busy }

// Status returns the current status.
func (m Model) Status() components.Status { return m.status }

// Notice returns the transient status bar message.
func (m Model) Notice() string { return m.notice }

// LastError returns the last error shown, if any.
func (m Model) LastError() error { return m.lastError }

// Close stops in-flight work started by the view and releases the bridge.
func (m Model) Close() {
	m.stop()
	m.bridge.close()
}

// healJobs is the number of heal jobs in flight, queued or manual.
func (m Model) healJobs() int {
	n := m.healing
	if q := m.session.Jobs(); q != nil {
		n += q.Pending()
	}
	return n
}

// lastReport returns the last assistant message, or nil.
func (m Model) lastReport() *model.Message {
	return m.session.Conversation().LastAssistantMessage()
}
