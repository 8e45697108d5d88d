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
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/makermind-tui/internal/diagram"
	"github.com/jeranaias/makermind-tui/internal/document"
	"github.com/jeranaias/makermind-tui/internal/export"
	"github.com/jeranaias/makermind-tui/internal/model"
	"github.com/jeranaias/makermind-tui/internal/session"
	"github.com/jeranaias/makermind-tui/internal/util"
)

// maxStdinPrompt bounds a description piped on stdin.
const maxStdinPrompt = 1 << 20

type askOptions struct {
	file       string
	raw        bool
	noContinue bool
	svgDir     string
	export     string
}

func newAskCommand(g *globalOptions) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [description]",
		Short: "Generate one blueprint and print it",
		Long: `Generate one blueprint and print it to stdout.

The description is taken from the arguments, or from stdin when no
arguments are given. On a terminal the report is rendered as markdown;
otherwise it streams as plain text. Diagram results go to stderr.`,
		Example: `  makermind ask "a 3-axis camera gimbal"
  makermind ask "solar charge controller" --export html
  echo "bench power supply" | makermind ask --svg-dir ./diagrams`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, g, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "include a file as reference material")
	f.BoolVar(&opts.raw, "raw", false, "print the report as plain markdown")
	f.BoolVar(&opts.noContinue, "no-continue", false, "do not complete truncated reports")
	f.StringVar(&opts.svgDir, "svg-dir", "", "write rendered diagrams as SVG files to this directory")
	f.StringVarP(&opts.export, "export", "e", "", "also export the report: md, txt, html, json, print")
	return cmd
}

func runAsk(cmd *cobra.Command, g *globalOptions, opts *askOptions, args []string) error {
	prompt, err := buildPrompt(args, opts.file, cmd.InOrStdin(), IsTTY())
	if err != nil {
		return err
	}
	var format export.Format
	if opts.export != "" {
		if format, err = export.ParseFormat(opts.export); err != nil {
			return usageError("ask", err.Error())
		}
	}

	cfg, _, err := loadConfig(g)
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context(), cfg, appOptions{detachHealer: true})
	if err != nil {
		return err
	}
	defer app.Close()
	if opts.noContinue {
		app.Session.SetAutoContinue(false)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	rendered := !opts.raw && IsStdoutTTY()
	if rendered {
		fmt.Fprintln(errOut, dimStyle.Render("Generating blueprint..."))
	} else {
		app.Session.SetListener(func(ev session.Event) {
			if ev.Kind == session.EventChunk {
				fmt.Fprint(out, ev.Text)
			}
		})
	}

	msg, err := app.Session.Send(ctx, prompt)
	if err != nil {
		if msg != nil && errors.Is(err, context.Canceled) {
			fmt.Fprintln(errOut, "\n"+badgeStyle.Render("[Cancelled]")+" partial report above")
		}
		return err
	}

	if rendered {
		fmt.Fprint(out, renderMarkdown(document.StripDataBlocks(msg.Text()), GetTerminalWidth()))
	} else {
		fmt.Fprintln(out)
	}
	printBadges(errOut, msg)

	if err := renderDiagrams(ctx, app, msg, errOut, opts.svgDir); err != nil {
		return err
	}

	if format != "" {
		exporter, err := export.New(format)
		if err != nil {
			return err
		}
		path, err := export.ExportToFile(export.NewDocument(msg.Text(), time.Time{}), exporter, exportOptions(cfg))
		var openErr *export.OpenError
		if err != nil && !errors.As(err, &openErr) {
			return &CommandError{Command: "ask", Reason: "export", Err: err}
		}
		fmt.Fprintf(errOut, "%s Blueprint exported to %s\n", successStyle.Render("[OK]"), path)
	}
	return nil
}

// buildPrompt joins the arguments into a description, falling back to
// stdin when it is piped. A reference file is appended.
func buildPrompt(args []string, file string, stdin io.Reader, stdinTTY bool) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && !stdinTTY && stdin != nil {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinPrompt))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return "", usageError("ask", `describe what to design, e.g. makermind ask "a solar charge controller"`)
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", &CommandError{Command: "ask", Reason: "read reference file", Code: ExitUsageError, Err: err}
		}
		text += fmt.Sprintf("\n\nReference material (%s):\n%s", filepath.Base(file), strings.TrimSpace(string(data)))
	}
	return text, nil
}

// renderMarkdown renders for the terminal and returns the input unchanged
// if the renderer cannot be built.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text + "\n"
	}
	out, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func printBadges(w io.Writer, msg *model.Message) {
	var parts []string
	for _, b := range msg.Badges() {
		parts = append(parts, badgeStyle.Render("["+b+"]"))
	}
	if stats := msg.FormatStats(); stats != "" {
		parts = append(parts, dimStyle.Render(stats))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
}

// =============================================================================
// DIAGRAMS
// =============================================================================

// renderDiagrams renders and heals every diagram of msg in one bounded
// batch and reports each outcome. With svgDir set, drawings are written
// as diagram-N.svg.
func renderDiagrams(ctx context.Context, app *App, msg *model.Message, w io.Writer, svgDir string) error {
	n := len(msg.DiagramStates())
	if n == 0 || app.Healer == nil {
		return nil
	}
	instances := make([]*diagram.Instance, n)
	for i := range instances {
		instances[i] = msg.Diagram(i + 1)
	}

	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Rendering %d diagram(s)...", n)))
	batch := diagram.NewBatchHealer(app.Healer, app.Config.Diagram.BatchWidth)
	states, err := batch.RenderAll(ctx, instances)
	for i, st := range states {
		fmt.Fprintf(w, "  Diagram %d: %s\n", i+1, describeState(st))
	}
	if err != nil {
		return err
	}
	if svgDir == "" {
		return nil
	}

	written, err := writeSVGs(svgDir, states)
	for _, path := range written {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render("[OK]"), path)
	}
	return err
}

// writeSVGs writes each rendered drawing and returns the written paths.
func writeSVGs(dir string, states []diagram.State) ([]string, error) {
	var written []string
	for i, st := range states {
		if !st.Rendered || st.Output == "" {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("diagram-%d.svg", i+1))
		if err := util.AtomicWriteFileWithDir(path, []byte(st.Output), 0644, 0755); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
