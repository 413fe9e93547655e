// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// DefaultWrap is used when no width is known.
const DefaultWrap = 80

// Markdown renders reply text for the terminal. It is not safe for
// concurrent use.
type Markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer. style is "auto", "dark", "light" or
// "notty"; "auto" is resolved once here so the terminal is not queried again
// while a TUI owns it.
func NewMarkdown(style string, width int) *Markdown {
	m := &Markdown{style: ResolveStyle(style)}
	m.SetWidth(width)
	return m
}

// ResolveStyle turns "auto" into a concrete glamour style.
func ResolveStyle(style string) string {
	switch style {
	case "dark", "light", "notty":
		return style
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) || termenv.EnvNoColor() {
		return "notty"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// Style returns the resolved style name.
func (m *Markdown) Style() string {
	return m.style
}

// Width returns the current wrap width.
func (m *Markdown) Width() int {
	return m.width
}

// SetWidth rebuilds the renderer when the wrap width changes.
func (m *Markdown) SetWidth(width int) {
	if width <= 0 {
		width = DefaultWrap
	}
	if m.renderer != nil && width == m.width {
		return
	}
	m.width = width

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Render renders content, returning it unchanged if rendering fails.
func (m *Markdown) Render(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
