// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Each colour has a light and a dark terminal variant.
var (
	Accent     = lipgloss.AdaptiveColor{Light: "#1A73E8", Dark: "#8AB4F8"}
	AccentDeep = lipgloss.AdaptiveColor{Light: "#174EA6", Dark: "#1A73E8"} // borders

	UserFg      = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	AssistantFg = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	// ErrorFg marks failure replies. WarningFg marks the
	// unexpected-format placeholder.
	ErrorFg   = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	WarningFg = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	SuccessFg = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

	TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextMuted   = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	SurfaceDim  = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"} // status bar
	Overlay     = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"} // separators
)
