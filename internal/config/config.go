// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/makermind-tui/internal/util"
)

// ErrMissingAPIKey is returned when no generation credential is configured.
var ErrMissingAPIKey = errors.New("missing API key: set MAKERMIND_API_KEY (or GEMINI_API_KEY) or gemini.api_key in the config file")

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete MakerMind configuration.
type Config struct {
	Gemini     GeminiConfig     `toml:"gemini" json:"gemini"`
	Completion CompletionConfig `toml:"completion" json:"completion"`
	Diagram    DiagramConfig    `toml:"diagram" json:"diagram"`
	Cache      CacheConfig      `toml:"cache" json:"cache"`
	Export     ExportConfig     `toml:"export" json:"export"`
	Log        LogConfig        `toml:"log" json:"log"`
	UI         UIConfig         `toml:"ui" json:"ui"`
}

// GeminiConfig configures the generation capability.
type GeminiConfig struct {
	APIKey                string        `toml:"api_key" json:"api_key"`
	ChatModel             string        `toml:"chat_model" json:"chat_model"`
	HealModel             string        `toml:"heal_model" json:"heal_model"`
	Temperature           float64       `toml:"temperature" json:"temperature"`
	MaxOutputTokens       int           `toml:"max_output_tokens" json:"max_output_tokens"`
	ContinuationMaxTokens int           `toml:"continuation_max_tokens" json:"continuation_max_tokens"`
	HealTemperature       float64       `toml:"heal_temperature" json:"heal_temperature"`
	HealMaxTokens         int           `toml:"heal_max_tokens" json:"heal_max_tokens"`
	Timeout               time.Duration `toml:"timeout" json:"timeout"`
}

// CompletionConfig configures automatic continuation of truncated replies.
type CompletionConfig struct {
	AutoContinue bool `toml:"auto_continue" json:"auto_continue"`
	MaxAttempts  int  `toml:"max_attempts" json:"max_attempts"`
	MinLength    int  `toml:"min_length" json:"min_length"`
}

// DiagramConfig configures rendering and healing.
type DiagramConfig struct {
	AutoHeal          bool          `toml:"auto_heal" json:"auto_heal"`
	MaxHealAttempts   int           `toml:"max_heal_attempts" json:"max_heal_attempts"`
	RetryDelay        time.Duration `toml:"retry_delay" json:"retry_delay"`
	InitialHealDelay  time.Duration `toml:"initial_heal_delay" json:"initial_heal_delay"`
	BatchWidth        int           `toml:"batch_width" json:"batch_width"`
	HealRatePerMinute int           `toml:"heal_rate_per_minute" json:"heal_rate_per_minute"`
	// Renderer is "chrome" (headless browser), "lint" (offline checks), or
	// "none" (source only, no healing).
	Renderer         string        `toml:"renderer" json:"renderer"`
	MermaidScriptURL string        `toml:"mermaid_script_url" json:"mermaid_script_url"`
	RenderTimeout    time.Duration `toml:"render_timeout" json:"render_timeout"`
}

// CacheConfig configures the heal cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// ExportConfig configures exports.
type ExportConfig struct {
	OutputDir  string `toml:"output_dir" json:"output_dir"`
	FilePrefix string `toml:"file_prefix" json:"file_prefix"`
	OpenAfter  bool   `toml:"open_after" json:"open_after"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Path  string `toml:"path" json:"path"`
	Level string `toml:"level" json:"level"`
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	// Theme is "auto", "dark", or "light".
	Theme    string `toml:"theme" json:"theme"`
	WordWrap bool   `toml:"word_wrap" json:"word_wrap"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultChatModel        = "gemini-2.5-flash"
	DefaultHealModel        = "gemini-2.5-pro"
	DefaultMermaidScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"
	DefaultFilePrefix       = "makermind-blueprint"
)

// Default returns a config with every default set.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			ChatModel:             DefaultChatModel,
			HealModel:             DefaultHealModel,
			Temperature:           0.2,
			MaxOutputTokens:       8192,
			ContinuationMaxTokens: 4096,
			HealTemperature:       0.02,
			HealMaxTokens:         4096,
			Timeout:               2 * time.Minute,
		},
		Completion: CompletionConfig{
			AutoContinue: true,
			MaxAttempts:  2,
			MinLength:    500,
		},
		Diagram: DiagramConfig{
			AutoHeal:          true,
			MaxHealAttempts:   3,
			RetryDelay:        time.Second,
			InitialHealDelay:  100 * time.Millisecond,
			BatchWidth:        3,
			HealRatePerMinute: 30,
			Renderer:          "chrome",
			MermaidScriptURL:  DefaultMermaidScriptURL,
			RenderTimeout:     15 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Export: ExportConfig{
			OutputDir:  ".",
			FilePrefix: DefaultFilePrefix,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:    "auto",
			WordWrap: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns ~/.makermind.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".makermind"), nil
}

// Path returns the config file path: MAKERMIND_CONFIG if set, else
// ~/.makermind/config.toml.
func Path() (string, error) {
	if p := os.Getenv("MAKERMIND_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func defaultUnderDir(parts ...string) string {
	dir, err := Dir()
	if err != nil {
		return filepath.Join(parts...)
	}
	return filepath.Join(append([]string{dir}, parts...)...)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file at path ("" resolves Path()). A missing file
// yields defaults. Environment overrides and defaults are applied and the
// result is validated. The credential is not required here.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads the config file at path over the defaults, without
// environment overrides or validation. A missing file yields defaults.
// Use it when the result is written back with Save.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as TOML to path ("" resolves Path()) with owner-only
// permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}

	var buf bytes.Buffer
	buf.WriteString("# MakerMind configuration file\n")
	buf.WriteString("# Generated by makermind - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// SECURITY: the file may hold the API key
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// apiKeyEnv lists the credential variables; the first non-empty one wins.
var apiKeyEnv = []string{"MAKERMIND_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// ApplyEnvOverrides applies environment variables over file values.
func (c *Config) ApplyEnvOverrides() {
	for _, name := range apiKeyEnv {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			c.Gemini.APIKey = key
			break
		}
	}
	if m := os.Getenv("MAKERMIND_MODEL"); m != "" {
		c.Gemini.ChatModel = m
	}
	if lvl := os.Getenv("MAKERMIND_LOG_LEVEL"); lvl != "" {
		c.Log.Level = strings.ToLower(lvl)
	}
}

// RequireCredential returns ErrMissingAPIKey when no API key is set.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills zero values. Booleans are left alone since false is a
// valid choice.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Gemini.ChatModel == "" {
		c.Gemini.ChatModel = d.Gemini.ChatModel
	}
	if c.Gemini.HealModel == "" {
		c.Gemini.HealModel = d.Gemini.HealModel
	}
	if c.Gemini.MaxOutputTokens == 0 {
		c.Gemini.MaxOutputTokens = d.Gemini.MaxOutputTokens
	}
	if c.Gemini.ContinuationMaxTokens == 0 {
		c.Gemini.ContinuationMaxTokens = d.Gemini.ContinuationMaxTokens
	}
	if c.Gemini.HealMaxTokens == 0 {
		c.Gemini.HealMaxTokens = d.Gemini.HealMaxTokens
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = d.Gemini.Timeout
	}

	if c.Completion.MinLength == 0 {
		c.Completion.MinLength = d.Completion.MinLength
	}

	if c.Diagram.MaxHealAttempts == 0 {
		c.Diagram.MaxHealAttempts = d.Diagram.MaxHealAttempts
	}
	if c.Diagram.RetryDelay == 0 {
		c.Diagram.RetryDelay = d.Diagram.RetryDelay
	}
	if c.Diagram.InitialHealDelay == 0 {
		c.Diagram.InitialHealDelay = d.Diagram.InitialHealDelay
	}
	if c.Diagram.BatchWidth == 0 {
		c.Diagram.BatchWidth = d.Diagram.BatchWidth
	}
	if c.Diagram.Renderer == "" {
		c.Diagram.Renderer = d.Diagram.Renderer
	}
	if c.Diagram.MermaidScriptURL == "" {
		c.Diagram.MermaidScriptURL = d.Diagram.MermaidScriptURL
	}
	if c.Diagram.RenderTimeout == 0 {
		c.Diagram.RenderTimeout = d.Diagram.RenderTimeout
	}

	if c.Cache.Path == "" {
		c.Cache.Path = defaultUnderDir("heal-cache.db")
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = d.Export.OutputDir
	}
	if c.Export.FilePrefix == "" {
		c.Export.FilePrefix = d.Export.FilePrefix
	}
	if c.Log.Path == "" {
		c.Log.Path = defaultUnderDir("logs", "makermind.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate checks ranges and enumerations. It returns ValidationErrors or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Gemini
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		add("gemini.temperature", "must be between 0 and 2, got %g", c.Gemini.Temperature)
	}
	if c.Gemini.HealTemperature < 0 || c.Gemini.HealTemperature > 2 {
		add("gemini.heal_temperature", "must be between 0 and 2, got %g", c.Gemini.HealTemperature)
	}
	for field, v := range map[string]int{
		"gemini.max_output_tokens":       c.Gemini.MaxOutputTokens,
		"gemini.continuation_max_tokens": c.Gemini.ContinuationMaxTokens,
		"gemini.heal_max_tokens":         c.Gemini.HealMaxTokens,
	} {
		if v < 1 || v > 65536 {
			add(field, "must be between 1 and 65536, got %d", v)
		}
	}
	if c.Gemini.Timeout < 0 {
		add("gemini.timeout", "must not be negative")
	}

	// Completion
	if c.Completion.MaxAttempts < 0 || c.Completion.MaxAttempts > 5 {
		add("completion.max_attempts", "must be between 0 and 5, got %d", c.Completion.MaxAttempts)
	}
	if c.Completion.MinLength < 0 {
		add("completion.min_length", "must not be negative")
	}

	// Diagram
	if c.Diagram.MaxHealAttempts < 1 || c.Diagram.MaxHealAttempts > 10 {
		add("diagram.max_heal_attempts", "must be between 1 and 10, got %d", c.Diagram.MaxHealAttempts)
	}
	if c.Diagram.BatchWidth < 1 || c.Diagram.BatchWidth > 16 {
		add("diagram.batch_width", "must be between 1 and 16, got %d", c.Diagram.BatchWidth)
	}
	if c.Diagram.HealRatePerMinute < 0 {
		add("diagram.heal_rate_per_minute", "must not be negative")
	}
	if c.Diagram.RetryDelay < 0 || c.Diagram.InitialHealDelay < 0 || c.Diagram.RenderTimeout < 0 {
		add("diagram", "delays and timeouts must not be negative")
	}
	switch c.Diagram.Renderer {
	case "chrome", "lint", "none":
	default:
		add("diagram.renderer", "invalid renderer '%s', must be one of: chrome, lint, none", c.Diagram.Renderer)
	}
	if c.Diagram.Renderer == "chrome" {
		if u, err := url.Parse(c.Diagram.MermaidScriptURL); err != nil || (u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "file") {
			add("diagram.mermaid_script_url", "must be an http(s) or file URL")
		}
	}

	// Export
	if strings.ContainsAny(c.Export.FilePrefix, `/\`) {
		add("export.file_prefix", "must not contain path separators")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	// UI
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys returns every configuration key in dot notation.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := tomlName(section)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

// Get retrieves a value by dot-notation key, e.g. "diagram.auto_heal".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dot-notation key, converting strings to the
// field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key %q: want section.name", key)
	}
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLName(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return v, nil
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	if tag, _, _ := strings.Cut(f.Tag.Get("toml"), ","); tag != "" {
		return tag
	}
	return strings.ToLower(f.Name)
}

var durationType = reflect.TypeOf(time.Duration(0))

// setFieldValue sets a field from a value with string conversion.
func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch {
		case field.Type() == durationType:
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid duration value: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		case field.Kind() == reflect.String:
			field.SetString(s)
			return nil
		case field.Kind() == reflect.Int:
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(int64(n))
			return nil
		case field.Kind() == reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %w", err)
			}
			field.SetFloat(f)
			return nil
		case field.Kind() == reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %w", err)
			}
			field.SetBool(b)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
