// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/makermind-tui/internal/export"
)

type exportCmdOptions struct {
	format    string
	outputDir string
	prefix    string
	open      bool
	stdout    bool
}

// newExportCommand converts a saved report. It needs no API key.
func newExportCommand(g *globalOptions) *cobra.Command {
	opts := &exportCmdOptions{}
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Convert a saved report to another format",
		Long: `Convert a saved markdown report to md, txt, html, json, or print.
Use "-" as FILE to read the report from stdin.`,
		Example: `  makermind export blueprint.md --format html
  makermind export blueprint.md -f json --stdout | jq .metadata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, g, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", string(export.FormatHTML), "output format: md, txt, html, json, print")
	f.StringVarP(&opts.outputDir, "output", "o", "", "output directory (default from config)")
	f.StringVar(&opts.prefix, "prefix", "", "filename prefix (default from config)")
	f.BoolVar(&opts.open, "open", false, "open the file after exporting")
	f.BoolVar(&opts.stdout, "stdout", false, "write to stdout instead of a file")
	return cmd
}

func runExport(cmd *cobra.Command, g *globalOptions, opts *exportCmdOptions, source string) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return usageError("export", err.Error())
	}
	exporter, err := export.New(format)
	if err != nil {
		return err
	}

	content, modTime, err := readReport(source, cmd.InOrStdin())
	if err != nil {
		return &CommandError{Command: "export", Reason: "read report", Code: ExitUsageError, Err: err}
	}
	doc := export.NewDocument(string(content), modTime)

	if opts.stdout {
		data, err := exporter.Export(doc)
		if err != nil {
			return &CommandError{Command: "export", Reason: "render " + string(format), Err: err}
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	cfg, _, err := loadConfig(g)
	if err != nil {
		return err
	}
	out := exportOptions(cfg)
	if opts.outputDir != "" {
		out.OutputDir = opts.outputDir
	}
	if opts.prefix != "" {
		out.Prefix = opts.prefix
	}
	if opts.open {
		out.OpenAfterExport = true
	}

	path, err := export.ExportToFile(doc, exporter, out)
	var openErr *export.OpenError
	switch {
	case errors.As(err, &openErr):
		fmt.Fprintf(cmd.ErrOrStderr(), "%s could not open %s: %v\n", badgeStyle.Render("[!]"), path, openErr.Err)
	case err != nil:
		return &CommandError{Command: "export", Reason: "write " + string(format), Err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Blueprint exported to %s\n", successStyle.Render("[OK]"), path)
	return nil
}

// readReport reads a report file, or stdin for "-". The timestamp is the
// file's modification time, or zero for stdin.
func readReport(source string, stdin io.Reader) ([]byte, time.Time, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		return data, time.Time{}, err
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(source)
	return data, info.ModTime(), err
}
