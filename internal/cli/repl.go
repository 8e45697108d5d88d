// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/export"
	"github.com/jeranaias/makermind-tui/internal/model"
	"github.com/jeranaias/makermind-tui/internal/session"
	"github.com/jeranaias/makermind-tui/internal/ui/components"
)

// replSession is the part of a session the line-mode chat drives.
type replSession interface {
	SetListener(fn func(session.Event))
	Conversation() *model.Conversation
	NewChat()
	Send(ctx context.Context, text string) (*model.Message, error)
	RetryDiagram(ctx context.Context, n int) (diagram.State, error)
}

var _ replSession = (*session.Session)(nil)

// repl runs line-mode turns. Replies stream to out as plain text.
type repl struct {
	sess       replSession
	out        io.Writer
	exportOpts *export.Options
	copy       func(string) error
}

func newREPL(sess replSession, out io.Writer, exportOpts *export.Options) *repl {
	r := &repl{sess: sess, out: out, exportOpts: exportOpts, copy: export.CopyToClipboard}
	// Chunks arrive on the goroutine running Send, so writes never interleave.
	sess.SetListener(func(ev session.Event) {
		if ev.Kind == session.EventChunk {
			fmt.Fprint(r.out, ev.Text)
		}
	})
	return r
}

func (r *repl) printWelcome(modelName string) {
	fmt.Fprintf(r.out, "%s %s\n", promptStyle.Render("MakerMind"), dimStyle.Render(Version+" | "+modelName))
	fmt.Fprintln(r.out, dimStyle.Render("Describe a device or system to get a blueprint. /help lists commands, Ctrl+C cancels a report."))
	fmt.Fprintln(r.out)
}

// handleLine runs one line of input. It reports whether the chat should end.
func (r *repl) handleLine(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return false, nil
	case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
		return true, nil
	case strings.HasPrefix(input, "/"):
		return r.handleCommand(ctx, input)
	}
	return false, r.send(ctx, input)
}

// send runs one turn. An interrupt cancels the turn, not the chat.
func (r *repl) send(ctx context.Context, text string) error {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	msg, err := r.sess.Send(turnCtx, text)
	fmt.Fprintln(r.out)
	switch {
	case err == nil:
		r.printSummary(msg)
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		fmt.Fprintln(r.out, badgeStyle.Render("[Cancelled]")+" partial report kept")
		return nil
	}
	return err
}

func (r *repl) printSummary(msg *model.Message) {
	if msg == nil {
		return
	}
	var parts []string
	for _, b := range msg.Badges() {
		parts = append(parts, badgeStyle.Render("["+b+"]"))
	}
	if stats := msg.FormatStats(); stats != "" {
		parts = append(parts, dimStyle.Render(stats))
	}
	if n := len(msg.DiagramStates()); n > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d diagram(s), /diagrams to check", n)))
	}
	if len(parts) > 0 {
		fmt.Fprintln(r.out, strings.Join(parts, " "))
	}
	fmt.Fprintln(r.out)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (r *repl) handleCommand(ctx context.Context, input string) (bool, error) {
	parts := strings.Fields(input)
	name := strings.ToLower(parts[0])
	args := parts[1:]

	switch name {
	case "/help", "/h", "/?", "/":
		r.printHelp()
	case "/new", "/clear":
		r.sess.NewChat()
		fmt.Fprintln(r.out, successStyle.Render("[New chat started]"))
	case "/export", "/e":
		return false, r.exportLast(args)
	case "/copy":
		return false, r.copyLast()
	case "/heal":
		return false, r.heal(ctx, args)
	case "/diagrams":
		r.printDiagrams()
	case "/quit", "/q", "/exit":
		return true, nil
	default:
		if suggestion, ok := components.SuggestCommand(name); ok {
			return false, fmt.Errorf("unknown command: %s (did you mean %s?)", name, suggestion)
		}
		return false, fmt.Errorf("unknown command: %s (type /help for commands)", name)
	}
	return false, nil
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	for _, c := range components.Commands {
		fmt.Fprintf(r.out, "  %-32s %s\n", c[0], c[1])
	}
	fmt.Fprintf(r.out, "  %-32s %s\n", "/diagrams", "list the diagrams of the last report")
}

// lastReport returns the last settled assistant reply.
func (r *repl) lastReport() (*model.Message, error) {
	msg := r.sess.Conversation().LastAssistantMessage()
	if msg == nil || msg.IsEmpty() {
		return nil, errors.New("nothing to export yet")
	}
	return msg, nil
}

func (r *repl) exportLast(args []string) error {
	name := string(export.FormatMarkdown)
	if len(args) > 0 {
		name = args[0]
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}
	msg, err := r.lastReport()
	if err != nil {
		return err
	}
	exporter, err := export.New(format)
	if err != nil {
		return err
	}
	path, err := export.ExportToFile(export.NewDocument(msg.Text(), time.Time{}), exporter, r.exportOpts)
	var openErr *export.OpenError
	switch {
	case err == nil:
	case errors.As(err, &openErr):
		fmt.Fprintf(r.out, "%s could not open %s: %v\n", badgeStyle.Render("[!]"), path, openErr.Err)
	default:
		return err
	}
	fmt.Fprintf(r.out, "%s Blueprint exported to %s\n", successStyle.Render("[OK]"), path)
	return nil
}

func (r *repl) copyLast() error {
	msg, err := r.lastReport()
	if err != nil {
		return err
	}
	if err := r.copy(msg.Text()); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	fmt.Fprintln(r.out, successStyle.Render("[OK]")+" Report copied to clipboard")
	return nil
}

func (r *repl) heal(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /heal N (diagram number)")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return errors.New("usage: /heal N (diagram number)")
	}

	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("Healing diagram %d...", n)))
	state, err := r.sess.RetryDiagram(turnCtx, n)
	switch {
	case errors.Is(err, session.ErrNoRenderer):
		return errors.New("diagram rendering is disabled")
	case errors.Is(err, diagram.ErrNotHealable):
		fmt.Fprintf(r.out, "Diagram %d renders fine\n", n)
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(r.out, "Diagram %d: %s\n", n, describeState(state))
	return nil
}

func (r *repl) printDiagrams() {
	msg := r.sess.Conversation().LastAssistantMessage()
	if msg == nil || len(msg.DiagramStates()) == 0 {
		fmt.Fprintln(r.out, "The last report has no diagrams")
		return
	}
	for i, st := range msg.DiagramStates() {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, describeState(st))
	}
}

// describeState is the one-line outcome of a diagram.
func describeState(st diagram.State) string {
	switch {
	case st.Status == diagram.StatusHealed:
		return fmt.Sprintf("healed after %d attempt(s)", st.Attempts)
	case st.Rendered:
		return "renders"
	case st.Status == diagram.StatusHealing:
		return "healing"
	case st.Failing():
		return fmt.Sprintf("fails after %d attempt(s): %s", st.Attempts, st.LastError)
	}
	return "not rendered yet"
}
