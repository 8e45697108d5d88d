// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/makermind-tui/internal/config"
	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/export"
	"github.com/jeranaias/makermind-tui/internal/gemini"
	"github.com/jeranaias/makermind-tui/internal/logging"
	"github.com/jeranaias/makermind-tui/internal/session"
	"github.com/jeranaias/makermind-tui/internal/turn"
)

// =============================================================================
// CONFIG LOADING
// =============================================================================

// loadConfig reads the config file and applies the global flag overrides.
// It returns the resolved config path for watching.
func loadConfig(g *globalOptions) (*config.Config, string, error) {
	path := g.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, "", configError("load config", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", configError("load config", err)
	}
	if g.model != "" {
		cfg.Gemini.ChatModel = g.model
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.renderer != "" {
		cfg.Diagram.Renderer = g.renderer
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", configError("load config", err)
	}
	return cfg, path, nil
}

// =============================================================================
// APPLICATION
// =============================================================================

// App holds the wired runtime of one command invocation.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Client  *gemini.Client
	Healer  *diagram.Healer
	Session *session.Session

	closers []func() error
}

type appOptions struct {
	// detachHealer keeps the healer out of the session so the caller can
	// drive diagram rendering itself.
	detachHealer bool
}

// newApp wires the client, healer, coordinator, and session. The
// credential check runs first so nothing starts without a key.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*App, error) {
	if err := cfg.RequireCredential(); err != nil {
		return nil, &CommandError{Command: "makermind", Reason: "no API key configured", Code: ExitAuthError, Err: err}
	}

	logger, closeLog, err := logging.New(logging.Options{Path: cfg.Log.Path, Level: cfg.Log.Level})
	if err != nil {
		return nil, configError("open log", err)
	}
	app := &App{Config: cfg, Logger: logger, closers: []func() error{closeLog}}

	client, err := gemini.NewClient(ctx, geminiConfig(cfg), logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	app.Client = client

	app.Healer = app.newHealer(cfg, client)

	analyzer := document.NewAnalyzer()
	if cfg.Completion.MinLength > 0 {
		analyzer.MinLength = cfg.Completion.MinLength
	}
	coordinator := turn.NewCoordinator(client, analyzer, cfg.Completion.MaxAttempts, logger)

	sessionHealer := app.Healer
	if opts.detachHealer {
		sessionHealer = nil
	}
	app.Session = session.New(
		func() session.ChatHandle { return client.NewChat() },
		coordinator,
		sessionHealer,
		session.Options{
			AutoContinue: cfg.Completion.AutoContinue,
			Model:        cfg.Gemini.ChatModel,
			Analyzer:     analyzer,
			Logger:       logger,
		},
	)
	app.closers = append(app.closers, func() error {
		app.Session.Close()
		return nil
	})

	logger.Info("makermind started",
		zap.String("version", Version),
		zap.String("model", cfg.Gemini.ChatModel),
		zap.String("renderer", cfg.Diagram.Renderer),
		zap.Bool("auto_continue", cfg.Completion.AutoContinue),
		zap.Bool("auto_heal", cfg.Diagram.AutoHeal))
	return app, nil
}

// Close releases everything newApp opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func geminiConfig(cfg *config.Config) gemini.Config {
	g := cfg.Gemini
	return gemini.Config{
		APIKey:                g.APIKey,
		ChatModel:             g.ChatModel,
		HealModel:             g.HealModel,
		Temperature:           float32(g.Temperature),
		MaxOutputTokens:       int32(g.MaxOutputTokens),
		ContinuationMaxTokens: int32(g.ContinuationMaxTokens),
		HealTemperature:       float32(g.HealTemperature),
		HealMaxTokens:         int32(g.HealMaxTokens),
		MaxRetries:            gemini.DefaultMaxRetries,
		RetryDelay:            gemini.DefaultRetryDelay,
		Timeout:               g.Timeout,
	}
}

func exportOptions(cfg *config.Config) *export.Options {
	return &export.Options{
		OutputDir:       cfg.Export.OutputDir,
		Prefix:          cfg.Export.FilePrefix,
		OpenAfterExport: cfg.Export.OpenAfter,
	}
}

// =============================================================================
// DIAGRAM HEALER
// =============================================================================

// newHealer builds the healer for the configured renderer. The "none"
// renderer yields no healer. A browser that fails to start falls back to
// the offline lint renderer.
func (a *App) newHealer(cfg *config.Config, fixer diagram.Fixer) *diagram.Healer {
	d := cfg.Diagram

	var renderer diagram.Renderer
	switch d.Renderer {
	case "none":
		return nil
	case "lint":
		renderer = diagram.LintRenderer{}
	default:
		chrome, err := diagram.NewChromeRenderer(diagram.ChromeOptions{
			ScriptURL: d.MermaidScriptURL,
			Timeout:   d.RenderTimeout,
			Theme:     mermaidTheme(cfg.UI.Theme),
		}, a.Logger)
		if err != nil {
			a.Logger.Warn("headless renderer unavailable, using lint checks", zap.Error(err))
			renderer = diagram.LintRenderer{}
		} else {
			renderer = chrome
			a.closers = append(a.closers, chrome.Close)
		}
	}

	healer := diagram.NewHealer(renderer, fixer, diagram.Options{
		AutoHeal:     d.AutoHeal,
		MaxAttempts:  d.MaxHealAttempts,
		RetryDelay:   d.RetryDelay,
		InitialDelay: d.InitialHealDelay,
	}, a.Logger)

	if cfg.Cache.Enabled {
		cache, err := diagram.OpenSQLiteCache(cfg.Cache.Path)
		if err != nil {
			a.Logger.Warn("heal cache disabled", zap.String("path", cfg.Cache.Path), zap.Error(err))
		} else {
			healer.SetCache(cache)
			a.closers = append(a.closers, cache.Close)
		}
	}

	if limit := healLimiter(d.HealRatePerMinute); limit != nil {
		healer.SetLimiter(limit)
	}
	return healer
}

// healLimiter spaces heal calls evenly over a minute with a burst of the
// full rate. A non-positive rate means no limit.
func healLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func mermaidTheme(uiTheme string) string {
	if uiTheme == "light" {
		return "default"
	}
	return "dark"
}
