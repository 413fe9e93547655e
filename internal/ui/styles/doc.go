// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling shared by the terminal front-ends.

# Colors (colors.go)

Every color is a Lip Gloss AdaptiveColor, so light and dark terminals are
handled without extra checks:

	Accent      - Brand color, header and prompt
	UserFg      - "You" label
	AssistantFg - "Gemini" label
	ErrorFg     - Failure replies and notices
	TextMuted   - Hints, timestamps, the status bar

# Theme (theme.go)

Theme bundles the styles the TUI and REPL use and records the terminal's
color profile:

	theme := styles.NewTheme()
	fmt.Println(theme.Title.Render("Chatbot (Gemini Flash)"))

# Markdown (markdown.go)

Markdown wraps a glamour renderer. Replies are rendered through it and fall
back to the raw text when rendering fails:

	md := styles.NewMarkdown("auto", 80)
	fmt.Print(md.Render(reply))
*/
package styles
