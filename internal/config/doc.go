// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates MakerMind configuration.
//
// Configuration lives in a TOML file, by default ~/.makermind/config.toml
// (override with --config or MAKERMIND_CONFIG). Values are resolved in
// this order:
//   - Built-in defaults
//   - The config file
//   - Environment overrides (MAKERMIND_API_KEY, GEMINI_API_KEY, API_KEY,
//     MAKERMIND_MODEL, MAKERMIND_LOG_LEVEL)
//
// The API key is required. RequireCredential returns ErrMissingAPIKey when
// it is absent so the CLI can halt before any UI starts.
//
// # Live Reload
//
// Watch reloads the file on change and hands the new Config to a callback.
// Consumers apply only display and behavior toggles from a reload; the
// credential and model selection are fixed for the process lifetime.
package config
