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
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/makermind-tui/internal/config"
)

// Version information (set at build time)
var (
	Version   = "2.5.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	model      string
	logLevel   string
	renderer   string
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the command tree. Running the root without a
// subcommand starts the chat.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}
	chatOpts := &chatOptions{}

	root := &cobra.Command{
		Use:   "makermind",
		Short: "Engineering blueprints from a chat in your terminal",
		Long: `MakerMind turns a short description of a device or system into a complete
engineering blueprint: sections, bill of materials, formulas, diagrams, and
system metrics. Truncated reports are completed automatically and broken
diagrams are repaired in the background.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), g, chatOpts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default is $HOME/.makermind/config.toml)")
	flags.StringVar(&g.model, "model", "", "chat model to use (default is "+config.DefaultChatModel+")")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&g.renderer, "renderer", "", "diagram renderer: chrome, lint, none")
	addChatFlags(root, chatOpts)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(cmd.Name(), err.Error())
	})

	root.AddCommand(
		newChatCommand(g),
		newAskCommand(g),
		newExportCommand(g),
		newConfigCommand(g),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	configureColor()

	// Interrupts are handled per command; SIGTERM ends everything.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	printError(os.Stderr, err)
	return ExitCode(err)
}

// printError writes a command failure. A missing credential gets setup
// instructions instead of a bare error.
func printError(w io.Writer, err error) {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return
	case errors.Is(err, config.ErrMissingAPIKey):
		fmt.Fprintln(w, errorStyle.Render("[X] MakerMind needs a Gemini API key to generate reports."))
		fmt.Fprintln(w, "    Set MAKERMIND_API_KEY (or GEMINI_API_KEY), or run:")
		fmt.Fprintln(w, "    makermind config set gemini.api_key YOUR_KEY")
	default:
		fmt.Fprintf(w, "%s %v\n", errorStyle.Render("Error:"), err)
	}
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "makermind %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
