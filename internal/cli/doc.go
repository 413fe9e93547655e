// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI front-ends.
//
// # Key Types
//
//   - Command: Enumeration of the gemchat commands
//   - Args: Parsed global flags and command arguments
//   - ArgParser: Flag/positional parser shared by the subcommands
//   - App: Loaded config, Gemini client and credential source for one run
//
// # Commands
//
//	gemchat                  Terminal UI (default)
//	gemchat chat             Line-mode REPL
//	gemchat ask "question"   One turn, print the reply
//	gemchat serve            Web chat page
//	gemchat models           List models
//	gemchat config ...       Show or edit the config file
//
// Every front-end drives a *session.Session; none of them talk to the
// Gemini client directly.
package cli
