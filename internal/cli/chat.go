// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/makermind-tui/internal/config"
	"github.com/jeranaias/makermind-tui/internal/ui/chat"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

// configDebounce coalesces editor save bursts into one reload.
const configDebounce = 250 * time.Millisecond

type chatOptions struct {
	plain bool
}

func addChatFlags(cmd *cobra.Command, opts *chatOptions) {
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "line-mode chat without the full-screen UI")
}

func newChatCommand(g *globalOptions) *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive blueprint session (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), g, opts)
		},
	}
	addChatFlags(cmd, opts)
	return cmd
}

// runChat starts the full-screen chat, or the line-mode chat when asked
// for or when either end of the terminal is not interactive.
func runChat(ctx context.Context, g *globalOptions, opts *chatOptions) error {
	cfg, path, err := loadConfig(g)
	if err != nil {
		return err
	}
	app, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.plain || !IsTTY() || !IsStdoutTTY() {
		return runPlainChat(ctx, app)
	}
	return runTUI(ctx, app, path)
}

// =============================================================================
// FULL-SCREEN CHAT
// =============================================================================

func runTUI(ctx context.Context, app *App, cfgPath string) error {
	cfg := app.Config
	m := chat.New(chat.Options{
		Session:         app.Session,
		Theme:           styles.NewTheme(cfg.UI.Theme),
		ModelName:       cfg.Gemini.ChatModel,
		Version:         Version,
		AutoContinue:    cfg.Completion.AutoContinue,
		AutoHeal:        cfg.Diagram.AutoHeal,
		MaxHealAttempts: cfg.Diagram.MaxHealAttempts,
		WordWrap:        cfg.UI.WordWrap,
		Export:          exportOptions(cfg),
	})
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
		tea.WithContext(ctx),
	)

	// Edits to the config file apply to the running chat.
	watcher, err := config.Watch(cfgPath, configDebounce, func(c *config.Config) {
		p.Send(chat.ConfigReloadedMsg{Config: c})
	}, app.Logger)
	if err != nil {
		app.Logger.Warn("config watch disabled", zap.String("path", cfgPath), zap.Error(err))
	} else {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}

// =============================================================================
// LINE-MODE CHAT
// =============================================================================

func runPlainChat(ctx context.Context, app *App) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyFile := historyPath()
	loadHistory(line, historyFile)
	defer saveHistory(line, historyFile)

	r := newREPL(app.Session, os.Stdout, exportOptions(app.Config))
	r.printWelcome(app.Config.Gemini.ChatModel)

	for ctx.Err() == nil {
		input, err := line.Prompt("makermind> ")
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or closed stdin
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := r.handleLine(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		if quit {
			return nil
		}
	}
	return nil
}

func historyPath() string {
	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

func loadHistory(line *liner.State, path string) {
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

// saveHistory persists history with owner-only permissions.
func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
