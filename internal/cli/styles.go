// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(ColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for banners and section titles
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Accent)

	// PromptStyle marks the speaker in the REPL
	UserStyle      = lipgloss.NewStyle().Bold(true).Foreground(styles.UserFg)
	AssistantStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.AssistantFg)

	// DimStyle is for hints and secondary text
	DimStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)

	// ErrorStyle is for failures
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.ErrorFg)

	// WarningStyle is for the unexpected response placeholder
	WarningStyle = lipgloss.NewStyle().Foreground(styles.WarningFg)

	// SuccessStyle is for confirmations
	SuccessStyle = lipgloss.NewStyle().Foreground(styles.SuccessFg)
)

// replyStyle picks the style for a non-markdown reply.
func replyStyle(kind session.Kind) lipgloss.Style {
	switch {
	case kind == session.KindUnexpectedShape:
		return WarningStyle
	case kind.IsError():
		return ErrorStyle
	default:
		return lipgloss.NewStyle()
	}
}
