// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/model"
	"github.com/jeranaias/makermind-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

// =============================================================================
// TABLE / SECTION / FORMULA
// =============================================================================

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"Part", "Cost"},
		[][]string{{"**Frame**", "15"}, {"Battery"}},
		80, testTheme())

	assert.Contains(t, out, "Part")
	assert.Contains(t, out, "Frame")
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "Battery")
	assert.Contains(t, out, "╭")
}

func TestCellsPadsShortRows(t *testing.T) {
	assert.Equal(t, []string{"a", "", ""}, cells([]string{"a"}, 3))
	assert.Len(t, cells([]string{"a", "b", "c"}, 2), 3)
}

func TestRenderSection(t *testing.T) {
	out := RenderSection(2, "Engineering Decomposition", 80, testTheme())
	assert.Contains(t, out, "ENGINEERING DECOMPOSITION")
	assert.Contains(t, out, "2")
}

func TestRenderFormula(t *testing.T) {
	out := RenderFormula(`F = m \times a`, true, testTheme())
	assert.Contains(t, out, "F = m × a")
	assert.NotContains(t, out, `\times`)
}

// =============================================================================
// DIAGRAM PANEL
// =============================================================================

func TestDiagramPanelBadge(t *testing.T) {
	theme := testTheme()
	tests := []struct {
		name  string
		state *diagram.State
		want  string
	}{
		{"no state", nil, "RENDERING"},
		{"healing", &diagram.State{Status: diagram.StatusHealing, Attempts: 1}, "HEALING 1/3"},
		{"healed", &diagram.State{Status: diagram.StatusHealed, Rendered: true}, "AUTO-HEALED"},
		{"failed", &diagram.State{Status: diagram.StatusFailed, LastError: "Parse error"}, "HEAL FAILED"},
		{"render error", &diagram.State{Status: diagram.StatusIdle, LastError: "Parse error"}, "RENDER ERROR"},
		{"rendered", &diagram.State{Status: diagram.StatusIdle, Rendered: true}, "RENDERED"},
		{"pending", &diagram.State{}, "PENDING"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DiagramPanel{State: tt.state, MaxAttempts: 3}
			assert.Contains(t, p.Badge(theme), tt.want)
		})
	}
}

func TestDiagramPanelCanRetry(t *testing.T) {
	failing := diagram.State{LastError: "Parse error", Attempts: 1}
	exhausted := diagram.State{LastError: "Parse error", Attempts: 3, Status: diagram.StatusFailed}
	healing := diagram.State{LastError: "Parse error", Status: diagram.StatusHealing}
	ok := diagram.State{Rendered: true}

	assert.True(t, DiagramPanel{State: &failing, MaxAttempts: 3}.CanRetry())
	assert.False(t, DiagramPanel{State: &exhausted, MaxAttempts: 3}.CanRetry())
	assert.False(t, DiagramPanel{State: &healing, MaxAttempts: 3}.CanRetry())
	assert.False(t, DiagramPanel{State: &ok, MaxAttempts: 3}.CanRetry())
	assert.False(t, DiagramPanel{MaxAttempts: 3}.CanRetry())
}

func TestDiagramPanelRender(t *testing.T) {
	st := diagram.State{Original: "flowchart TD\nA-->", LastError: "Parse error on line 2", Attempts: 1}
	out := DiagramPanel{Index: 2, Grammar: "flowchart", State: &st, MaxAttempts: 3, Width: 80}.Render(testTheme())

	assert.Contains(t, out, "DIAGRAM 2 · FLOWCHART")
	assert.Contains(t, out, "RENDER ERROR")
	assert.Contains(t, out, "Parse error on line 2")
	assert.Contains(t, out, "/heal 2 to retry")
}

func TestDiagramPanelRender_Unnumbered(t *testing.T) {
	out := DiagramPanel{Grammar: "sequence", Source: "sequenceDiagram", Width: 80}.Render(testTheme())
	assert.Contains(t, out, "DIAGRAM · SEQUENCE")
	assert.Contains(t, out, "RENDERING")
}

// =============================================================================
// REPORT
// =============================================================================

func TestRenderReport_NumbersDiagramsAndHidesData(t *testing.T) {
	text := "## 1. Project Understanding\nA drone frame.\n\n" +
		"```mermaid\nflowchart TD\nA-->B\n```\n\n" +
		"```mermaid\nsequenceDiagram\nA->>B: hi\n```\n\n" +
		"```json\n{\"title\":\"Mass\"}\n```"

	out := RenderReport(text, ReportOptions{
		Width:           80,
		Diagrams:        []diagram.State{{Rendered: true, Source: "flowchart TD\nA-->B"}},
		MaxHealAttempts: 3,
		WordWrap:        true,
	}, testTheme())

	assert.Contains(t, out, "PROJECT UNDERSTANDING")
	assert.Contains(t, out, "A drone frame.")
	assert.Contains(t, out, "DIAGRAM 1")
	assert.Contains(t, out, "DIAGRAM 2")
	assert.Contains(t, out, "RENDERED")
	assert.NotContains(t, out, `"title"`)
}

func TestRenderReport_IsolatesPanickingBlock(t *testing.T) {
	orig := renderBlock
	t.Cleanup(func() { renderBlock = orig })
	renderBlock = func(r *reportRenderer, b document.Block) (string, bool) {
		if b.Kind == document.KindTable {
			panic("table renderer broke")
		}
		return orig(r, b)
	}

	text := "Before the table.\n\n| Part | Qty |\n|---|---|\n| Motor | 4 |\n\n## 2. Engineering Decomposition\nAfter."
	var out string
	require.NotPanics(t, func() {
		out = RenderReport(text, ReportOptions{Width: 80}, testTheme())
	})
	assert.Contains(t, out, "Before the table.")
	assert.Contains(t, out, "| Motor | 4 |")
	assert.Contains(t, out, "ENGINEERING DECOMPOSITION")
	assert.Contains(t, out, "After.")
}

func TestRenderReport_OpenDiagramWhileStreaming(t *testing.T) {
	out := RenderReport("Intro.\n\n```mermaid\nflowchart TD\nA-->", ReportOptions{Width: 80}, testTheme())
	assert.Contains(t, out, "Intro.")
	assert.Contains(t, out, "A-->")
	assert.NotContains(t, out, "DIAGRAM 1")
}

func TestRenderProse(t *testing.T) {
	out := RenderProse("\n\nFirst line.\n\n\n\n- a bullet\n\n", 80, true, testTheme())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "First line.", strings.TrimSpace(lines[0]))
	assert.Empty(t, lines[1])
	assert.Contains(t, lines[2], "◆")
	assert.Contains(t, lines[2], "a bullet")
}

func TestRenderInline(t *testing.T) {
	out := RenderInline("use **PETG** and `M3` bolts", testTheme())
	assert.Contains(t, out, "PETG")
	assert.Contains(t, out, "M3")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "`")
}

// =============================================================================
// TELEMETRY
// =============================================================================

func TestRenderMetrics_Nil(t *testing.T) {
	assert.Empty(t, RenderMetrics(nil, 80, testTheme()))
	assert.Empty(t, RenderMetrics(&document.SystemMetrics{}, 80, testTheme()))
}

func TestRenderMetrics_Pie(t *testing.T) {
	m := &document.SystemMetrics{
		Title: "Mass Budget",
		Type:  document.ChartPie,
		Unit:  "g",
		Data: []document.DataPoint{
			{Name: "Frame", Value: 150},
			{Name: "Battery", Value: 350},
		},
		Summary: map[string]string{"Total Mass": "500 g", "Cost": "$120"},
	}
	out := RenderMetrics(m, 80, testTheme())

	assert.Contains(t, out, "SYSTEM TELEMETRY")
	assert.Contains(t, out, "Mass Budget [pie]")
	assert.Contains(t, out, "150 g (30.0%)")
	assert.Contains(t, out, "350 g (70.0%)")
	assert.Less(t, strings.Index(out, "Cost"), strings.Index(out, "Total Mass"))
}

func TestRenderMetrics_AllCharts(t *testing.T) {
	power := document.SystemMetrics{Title: "Power", Type: document.ChartBar, Data: []document.DataPoint{{Name: "Motor", Value: 40}}}
	cost := document.SystemMetrics{Title: "Cost", Data: []document.DataPoint{{Name: "Frame", Value: 12}}}
	m := &document.SystemMetrics{AllMetrics: []document.SystemMetrics{power, cost}}

	out := RenderMetrics(m, 80, testTheme())
	assert.Contains(t, out, "Power [bar]")
	assert.Contains(t, out, "Cost [bar]")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12.5 W", formatValue(12.5, "W"))
	assert.Equal(t, "3", formatValue(3, ""))
}

// =============================================================================
// MESSAGES
// =============================================================================

func TestMessageView_User(t *testing.T) {
	out := NewMessageView(model.NewUserMessage("Design a drone"), 80).View(testTheme())
	assert.Contains(t, out, "OPERATOR")
	assert.Contains(t, out, "Design a drone")
}

func TestMessageView_AssistantStreaming(t *testing.T) {
	msg := model.NewAssistantMessage(1)
	msg.AppendToken("Working on it")
	out := NewMessageView(msg, 80).View(testTheme())

	assert.Contains(t, out, "MAKERMIND")
	assert.Contains(t, out, "Working on it")
	assert.Contains(t, out, "▌")
}

func TestMessageView_AssistantBadges(t *testing.T) {
	msg := model.NewAssistantMessage(1)
	msg.AppendToken("Done.\n\n```json\n{\"title\":\"x\"}\n```")
	msg.FinalizeStream(nil)
	msg.Annotate(document.Verdict{IsComplete: false, Reason: document.ReasonTruncated}, nil, true, nil)

	out := NewMessageView(msg, 80).View(testTheme())
	assert.Contains(t, out, "AUTO-COMPLETED")
	assert.Contains(t, out, "PARTIAL: truncated")
	assert.NotContains(t, out, `"title"`)
}

func TestMessageView_Failed(t *testing.T) {
	msg := model.NewAssistantMessage(1)
	msg.AppendToken("Partial")
	msg.MarkFailed()

	out := NewMessageView(msg, 80).View(testTheme())
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "SYSTEM ERROR")
}

func TestRenderMessages(t *testing.T) {
	msgs := []*model.Message{model.NewUserMessage("one"), model.NewSystemMessage("two")}
	out := RenderMessages(msgs, 80, 3, true, testTheme())
	assert.Less(t, strings.Index(out, "one"), strings.Index(out, "two"))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestMatchError(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorCategory
	}{
		{"googleapi: Error 429: RESOURCE_EXHAUSTED", CategoryQuota},
		{"API key not valid. Please pass a valid API key.", CategoryAuth},
		{"context deadline exceeded", CategoryTimeout},
		{"dial tcp: lookup generativelanguage.googleapis.com: no such host", CategoryNetwork},
	}
	for _, tt := range tests {
		p, ok := MatchError(tt.msg)
		require.True(t, ok, tt.msg)
		assert.Equal(t, tt.want, p.Category, tt.msg)
	}

	_, ok := MatchError("something odd happened")
	assert.False(t, ok)
}

func TestRenderError(t *testing.T) {
	out := RenderError("Generation failed", errors.New("stream broke unexpectedly"), 80, testTheme())
	assert.Contains(t, out, "Generation failed")
	assert.Contains(t, out, "stream broke unexpectedly")
	assert.Contains(t, out, "[X]")

	quota := RenderError("Generation failed", errors.New("Error 429: quota"), 80, testTheme())
	assert.Contains(t, quota, "Quota Exceeded")
	assert.NotContains(t, quota, "Generation failed")
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestFuzzyMatch(t *testing.T) {
	_, ok := FuzzyMatch("/hlp", "/help")
	assert.True(t, ok)
	_, ok = FuzzyMatch("/xyz", "/help")
	assert.False(t, ok)
	_, ok = FuzzyMatch("", "/help")
	assert.True(t, ok)

	prefix, _ := FuzzyMatch("/ex", "/export")
	scattered, _ := FuzzyMatch("/et", "/export")
	assert.Greater(t, prefix, scattered)
}

func TestCommandCompletion(t *testing.T) {
	assert.Equal(t, []string{"/export"}, CompleteCommand("/e"))
	assert.ElementsMatch(t, []string{"/help", "/heal"}, CompleteCommand("/he"))
	assert.Empty(t, CompleteCommand("/zz"))

	got, ok := SuggestCommand("/hlp")
	require.True(t, ok)
	assert.Equal(t, "/help", got)

	_, ok = SuggestCommand("/zzz")
	assert.False(t, ok)
}

// =============================================================================
// CHROME
// =============================================================================

func TestStatusBar(t *testing.T) {
	theme := testTheme()
	out := StatusBar{Width: 80, Status: StatusContinuing, AutoContinue: true, Healing: 2}.View(theme)
	assert.Contains(t, out, "Completing")
	assert.Contains(t, out, "auto-continue on")
	assert.Contains(t, out, "auto-heal off")
	assert.Contains(t, out, "healing 2")
	assert.NotContains(t, out, "ctrl+c")

	wide := StatusBar{Width: 140}.View(theme)
	assert.Contains(t, wide, "ctrl+c")
}

func TestHeader(t *testing.T) {
	out := Header{Width: 80, Model: "gemini-2.5-flash"}.View(testTheme())
	assert.Contains(t, out, "MAKERMIND")
	assert.Contains(t, out, "gemini-2.5-flash")
}

func TestHelpTextListsCommands(t *testing.T) {
	out := HelpText(testTheme())
	for _, name := range CommandNames() {
		assert.Contains(t, out, name)
	}
}

func TestChatViewportFollows(t *testing.T) {
	vp := NewChatViewport()
	vp.SetSize(40, 5)
	vp.SetContent(strings.Repeat("line\n", 50))
	assert.True(t, vp.Following())
	assert.NotContains(t, vp.View(testTheme()), "more below")
}

func TestCodeBlockPlain(t *testing.T) {
	out := CodeBlock{Language: "python", Code: "print('x')\nprint('y')", MaxWidth: 60}.Render(testTheme())
	assert.Contains(t, out, "python")
	assert.Contains(t, out, "print('x')")
	assert.Contains(t, out, "2")
}
