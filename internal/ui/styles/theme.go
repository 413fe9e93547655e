// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/session"
)

// Theme holds the styled components for the terminal front-ends.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Timestamp      lipgloss.Style
	ErrorText      lipgloss.Style
	WarningText    lipgloss.Style

	// Input
	InputBox    lipgloss.Style
	InputPrompt lipgloss.Style
	Spinner     lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusModel  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Notice       lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(UserFg)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(AssistantFg)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.ErrorText = lipgloss.NewStyle().Foreground(ErrorFg)
	t.WarningText = lipgloss.NewStyle().Foreground(WarningFg)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AccentDeep).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	t.Spinner = lipgloss.NewStyle().Foreground(AssistantFg)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusModel = lipgloss.NewStyle().Bold(true).Foreground(Accent).Background(SurfaceDim)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary).Background(SurfaceDim)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted).Background(SurfaceDim)
	t.Notice = lipgloss.NewStyle().Foreground(SuccessFg).Background(SurfaceDim)
}

// SetSize updates the theme dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// RoleLabel renders the speaker label for a message role.
func (t *Theme) RoleLabel(role model.Role) string {
	if role == model.RoleUser {
		return t.UserLabel.Render(role.DisplayName())
	}
	return t.AssistantLabel.Render(role.DisplayName())
}

// ReplyStyle returns the style for a reply of the given kind. Successful
// replies are styled by the markdown renderer and get an empty style.
func (t *Theme) ReplyStyle(kind session.Kind) lipgloss.Style {
	switch {
	case kind == session.KindUnexpectedShape:
		return t.WarningText
	case kind.IsError():
		return t.ErrorText
	default:
		return lipgloss.NewStyle()
	}
}
