// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// MakerMind generates engineering blueprints from a terminal chat.
//
// Run "makermind --help" for the commands.
package main

import (
	"os"

	"github.com/jeranaias/makermind-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "2.5.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate

	os.Exit(cli.Execute())
}
