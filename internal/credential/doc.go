// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credential resolves the Gemini API key.
//
// Two sources exist. The secret store checks the environment variable named
// by credential.key_name (which a .env file may have populated) and falls
// back to the same key in a Streamlit-style secrets TOML file. The prompt
// source asks the user; TerminalPrompter does that on a TTY without echo,
// while the TUI and web front-ends render their own masked fields.
//
// Watcher keeps a SecretStore current when the secrets file is edited
// while the web front-end is running.
package credential
