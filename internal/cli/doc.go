// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the makermind command line.
//
// The root command starts the full-screen chat. The subcommands cover the
// rest of the workflow:
//
//	makermind                          interactive chat (same as "chat")
//	makermind chat --plain             line-mode chat for dumb terminals
//	makermind ask "a desk fan"         one report, written to stdout
//	makermind export report.md -f html convert a saved report
//	makermind config show|get|set|path|init
//	makermind version
//
// Every command that talks to the model requires an API key. A missing key
// stops the command before any UI starts and exits with ExitAuthError.
package cli
