// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	Mode         string
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserBody       lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemBubble   lipgloss.Style
	MessageStats   lipgloss.Style

	// ==========================================================================
	// REPORT STYLES
	// ==========================================================================

	SectionHeader lipgloss.Style
	SectionNumber lipgloss.Style
	Heading       lipgloss.Style
	BoldLabel     lipgloss.Style
	Bullet        lipgloss.Style
	Bold          lipgloss.Style
	Italic        lipgloss.Style
	InlineCode    lipgloss.Style
	Formula       lipgloss.Style
	FormulaBlock  lipgloss.Style

	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style

	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style
	BoxArt        lipgloss.Style

	// ==========================================================================
	// DIAGRAM STYLES
	// ==========================================================================

	DiagramPanel  lipgloss.Style
	DiagramTitle  lipgloss.Style
	DiagramError  lipgloss.Style
	DiagramHint   lipgloss.Style
	BadgeHealed   lipgloss.Style
	BadgeHealing  lipgloss.Style
	BadgeFailed   lipgloss.Style
	BadgeRendered lipgloss.Style
	BadgeInfo     lipgloss.Style

	// ==========================================================================
	// TELEMETRY STYLES
	// ==========================================================================

	ChartPanel lipgloss.Style
	ChartTitle lipgloss.Style
	ChartLabel lipgloss.Style
	ChartValue lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	StatusKey      lipgloss.Style
	StatusDesc     lipgloss.Style
	Spinner        lipgloss.Style
	ErrorBox       lipgloss.Style
	Notice         lipgloss.Style
	Muted          lipgloss.Style
}

// NewTheme creates a theme for the given mode ("auto", "dark", or "light").
// Forcing a mode overrides lipgloss background detection process-wide.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	mode = strings.ToLower(strings.TrimSpace(mode))
	var isDark bool
	switch mode {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		mode = ModeAuto
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Border).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Electric)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.UserBody = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Cyan).
		PaddingLeft(1)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(Amber).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Padding(0, 1)

	t.MessageStats = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Report
	t.SectionHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Border).
		MarginTop(1)

	t.SectionNumber = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Teal).
		Bold(true).
		Padding(0, 1).
		MarginRight(1)

	t.Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.BoldLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Bullet = lipgloss.NewStyle().
		Foreground(Teal)

	t.Bold = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.Italic = lipgloss.NewStyle().
		Italic(true)

	t.InlineCode = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(Graphite)

	t.Formula = lipgloss.NewStyle().
		Foreground(Cyan).
		Italic(true)

	t.FormulaBlock = lipgloss.NewStyle().
		Foreground(Cyan).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Teal).
		PaddingLeft(2).
		MarginLeft(2)

	t.TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Padding(0, 1)

	t.TableCell = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.TableBorder = lipgloss.NewStyle().
		Foreground(Border)

	t.CodeBlock = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(TextMuted).
		Bold(true).
		Padding(0, 1)

	t.CodeLineNum = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	t.BoxArt = lipgloss.NewStyle().
		Foreground(Teal)

	// Diagrams
	t.DiagramPanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Teal).
		Padding(0, 1)

	t.DiagramTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.DiagramError = lipgloss.NewStyle().
		Foreground(Rose)

	t.DiagramHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(TextInverse)
	t.BadgeHealed = badge.Background(Emerald)
	t.BadgeHealing = badge.Background(Amber)
	t.BadgeFailed = badge.Background(Rose)
	t.BadgeRendered = badge.Background(Teal)
	t.BadgeInfo = badge.Background(TextMuted)

	// Telemetry
	t.ChartPanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	t.ChartTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.ChartLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ChartValue = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Border).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.StatusDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Teal)

	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Foreground(Rose).
		Padding(0, 1)

	t.Notice = lipgloss.NewStyle().
		Foreground(Amber)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
