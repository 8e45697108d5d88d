// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/makermind-tui/internal/config"
	"github.com/jeranaias/makermind-tui/internal/diagram"
)

// clearEnv unsets every variable config loading reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MAKERMIND_API_KEY", "GEMINI_API_KEY", "API_KEY",
		"MAKERMIND_MODEL", "MAKERMIND_LOG_LEVEL", "MAKERMIND_CONFIG",
	} {
		t.Setenv(name, "")
	}
}

// run executes the command tree with args and returns its output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// =============================================================================
// ERRORS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usageError("ask", "missing description"), ExitUsageError},
		{"config", configError("load config", errors.New("bad toml")), ExitConfigError},
		{"missing key", fmt.Errorf("start: %w", config.ErrMissingAPIKey), ExitAuthError},
		{"canceled", fmt.Errorf("turn: %w", context.Canceled), ExitCanceled},
		{"command error without code", &CommandError{Command: "x", Reason: "y"}, ExitGeneralError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestCommandErrorMessage(t *testing.T) {
	err := &CommandError{Command: "export", Reason: "read report", Err: os.ErrNotExist}
	assert.Equal(t, "export failed: read report: file does not exist", err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "ask failed: no input", (&CommandError{Command: "ask", Reason: "no input"}).Error())
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, nil)
	printError(&buf, context.Canceled)
	assert.Empty(t, buf.String())

	printError(&buf, &CommandError{Command: "makermind", Reason: "no API key configured", Code: ExitAuthError, Err: config.ErrMissingAPIKey})
	assert.Contains(t, buf.String(), "MAKERMIND_API_KEY")
	assert.Contains(t, buf.String(), "config set gemini.api_key")

	buf.Reset()
	printError(&buf, errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}

func TestClampWidth(t *testing.T) {
	assert.Equal(t, DefaultTerminalWidth, clampWidth(0, nil))
	assert.Equal(t, DefaultTerminalWidth, clampWidth(120, errors.New("not a terminal")))
	assert.Equal(t, MinTerminalWidth, clampWidth(20, nil))
	assert.Equal(t, 132, clampWidth(132, nil))
}

// =============================================================================
// WIRING
// =============================================================================

func TestLoadConfig_FlagOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\n"), 0600))

	cfg, got, err := loadConfig(&globalOptions{
		configPath: path,
		model:      "gemini-2.5-flash-lite",
		logLevel:   "debug",
		renderer:   "lint",
	})
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Gemini.ChatModel)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "lint", cfg.Diagram.Renderer)

	_, _, err = loadConfig(&globalOptions{configPath: path, renderer: "vulkan"})
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestNewApp_RequiresCredential(t *testing.T) {
	cfg := config.Default()
	cfg.SetDefaults()

	app, err := newApp(context.Background(), cfg, appOptions{})
	assert.Nil(t, app)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Equal(t, ExitAuthError, ExitCode(err))
}

func TestGeminiConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "k"
	cfg.Gemini.Temperature = 0.5
	cfg.Gemini.MaxOutputTokens = 1000

	g := geminiConfig(cfg)
	assert.Equal(t, "k", g.APIKey)
	assert.Equal(t, float32(0.5), g.Temperature)
	assert.Equal(t, int32(1000), g.MaxOutputTokens)
	assert.Equal(t, int32(4096), g.ContinuationMaxTokens)
	assert.Equal(t, config.DefaultHealModel, g.HealModel)
	assert.Equal(t, 2*time.Minute, g.Timeout)
}

func TestExportOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Export.OutputDir = "/tmp/out"
	cfg.Export.OpenAfter = true

	opts := exportOptions(cfg)
	assert.Equal(t, "/tmp/out", opts.OutputDir)
	assert.Equal(t, config.DefaultFilePrefix, opts.Prefix)
	assert.True(t, opts.OpenAfterExport)
}

func TestNewHealer(t *testing.T) {
	app := &App{Logger: zap.NewNop()}
	cfg := config.Default()

	cfg.Diagram.Renderer = "none"
	assert.Nil(t, app.newHealer(cfg, nil))

	cfg.Diagram.Renderer = "lint"
	cfg.Cache.Enabled = true
	cfg.Cache.Path = filepath.Join(t.TempDir(), "heal-cache.db")
	healer := app.newHealer(cfg, nil)
	require.NotNil(t, healer)
	assert.Equal(t, cfg.Diagram.MaxHealAttempts, healer.Options().MaxAttempts)
	assert.Len(t, app.closers, 1, "the open cache is closed with the app")
	assert.FileExists(t, cfg.Cache.Path)
	assert.NoError(t, app.Close())
	assert.Empty(t, app.closers)
}

func TestHealLimiter(t *testing.T) {
	assert.Nil(t, healLimiter(0))
	assert.Nil(t, healLimiter(-5))

	l := healLimiter(30)
	require.NotNil(t, l)
	assert.Equal(t, 30, l.Burst())
	assert.Equal(t, rate.Every(2*time.Second), l.Limit())
}

func TestMermaidTheme(t *testing.T) {
	assert.Equal(t, "default", mermaidTheme("light"))
	assert.Equal(t, "dark", mermaidTheme("dark"))
	assert.Equal(t, "dark", mermaidTheme("auto"))
}

// =============================================================================
// ASK
// =============================================================================

func TestBuildPrompt(t *testing.T) {
	got, err := buildPrompt([]string{"a", "desk", "fan"}, "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "a desk fan", got)

	got, err = buildPrompt(nil, "", strings.NewReader("  bench power supply\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "bench power supply", got)

	_, err = buildPrompt(nil, "", strings.NewReader("ignored"), true)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	ref := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(ref, []byte("12 V input\n"), 0600))
	got, err = buildPrompt([]string{"charger"}, ref, nil, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "charger\n\nReference material (notes.txt):\n"))
	assert.True(t, strings.HasSuffix(got, "12 V input"))

	_, err = buildPrompt([]string{"charger"}, filepath.Join(t.TempDir(), "absent"), nil, true)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestWriteSVGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "svg")
	states := []diagram.State{
		{Rendered: true, Output: "<svg>one</svg>"},
		{LastError: "Parse error", Output: "<svg>error</svg>"},
		{Rendered: true, Status: diagram.StatusHealed, Output: "<svg>three</svg>"},
	}

	written, err := writeSVGs(dir, states)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "diagram-1.svg"),
		filepath.Join(dir, "diagram-3.svg"),
	}, written)

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Equal(t, "<svg>three</svg>", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "diagram-2.svg"))
}

func TestDescribeState(t *testing.T) {
	tests := []struct {
		state diagram.State
		want  string
	}{
		{diagram.State{Rendered: true}, "renders"},
		{diagram.State{Rendered: true, Status: diagram.StatusHealed, Attempts: 2}, "healed after 2 attempt(s)"},
		{diagram.State{Status: diagram.StatusHealing}, "healing"},
		{diagram.State{Status: diagram.StatusFailed, Attempts: 3, LastError: "Parse error on line 2"}, "fails after 3 attempt(s): Parse error on line 2"},
		{diagram.State{}, "not rendered yet"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describeState(tt.state))
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := renderMarkdown("## 1. SYSTEM OVERVIEW\n\nA small fan.", 80)
	assert.Contains(t, out, "SYSTEM OVERVIEW")
	assert.Contains(t, out, "small fan")
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "makermind "+Version)
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	_, err := run(t, "", "version", "--bogus")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestAskWithoutKeyStopsBeforeGenerating(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := run(t, "", "ask", "--config", path, "a desk fan")
	require.Error(t, err)
	assert.Equal(t, ExitAuthError, ExitCode(err))
}

func TestAskRejectsUnknownExportFormat(t *testing.T) {
	clearEnv(t)
	_, err := run(t, "", "ask", "--export", "docx", "a desk fan")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConfigCommands(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	_, err = run(t, "", "config", "set", "ui.theme", "light", "--config", path)
	require.NoError(t, err)
	out, err = run(t, "", "config", "get", "ui.theme", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	_, err = run(t, "", "config", "set", "ui.theme", "sepia", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, "", "config", "set", "nope.key", "1", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, "", "config", "set", "gemini.api_key", "secret-key", "--config", path)
	require.NoError(t, err)
	out, err = run(t, "", "config", "get", "gemini.api_key", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]\n", out)
	out, err = run(t, "", "config", "show", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "secret-key")

	out, err = run(t, "", "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "diagram.auto_heal")
}

func TestConfigSetDoesNotPersistEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("MAKERMIND_API_KEY", "env-only-key")

	_, err := run(t, "", "config", "set", "diagram.auto_heal", "false", "--config", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "env-only-key")

	saved, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.False(t, saved.Diagram.AutoHeal)
}

func TestConfigInit(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := run(t, "", "config", "init", "--config", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, "", "config", "init", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, "", "config", "init", "--force", "--config", path)
	assert.NoError(t, err)
}

func TestExportCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	report := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(report, []byte("## 1. SYSTEM OVERVIEW\n\nA desk fan.\n"), 0600))
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0755))

	out, err := run(t, "", "export", report, "-f", "md", "-o", outDir, "--prefix", "fan",
		"--config", filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Blueprint exported to")

	matches, err := filepath.Glob(filepath.Join(outDir, "fan-*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "A desk fan.")
}

func TestExportCommand_StdinToStdout(t *testing.T) {
	out, err := run(t, "## 1. SYSTEM OVERVIEW\n\nA desk fan.\n", "export", "-", "-f", "json", "--stdout")
	require.NoError(t, err)
	assert.Contains(t, out, `"engineering-blueprint"`)
}

func TestExportCommand_Errors(t *testing.T) {
	_, err := run(t, "", "export", filepath.Join(t.TempDir(), "absent.md"), "--stdout")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, "", "export", "x.md", "-f", "docx")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, "", "export")
	require.Error(t, err)
}
