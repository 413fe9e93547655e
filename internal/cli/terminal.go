// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Width bounds for rendered replies.
const (
	DefaultTerminalWidth = 80
	MinTerminalWidth     = 40
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether stdin is interactive.
func IsTTY() bool {
	return isTerminal(os.Stdin)
}

// IsStdoutTTY reports whether output goes to a terminal rather than a pipe.
func IsStdoutTTY() bool {
	return isTerminal(os.Stdout)
}

// GetTerminalWidth returns the width of stdout, never below
// MinTerminalWidth. Pipes get DefaultTerminalWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

// ColorProfile is the profile CLI output is styled with, resolved once.
// NO_COLOR turns colour off. FORCE_COLOR keeps it on when stdout is piped.
var ColorProfile = sync.OnceValue(func() termenv.Profile {
	if termenv.EnvNoColor() {
		return termenv.Ascii
	}
	profile := termenv.ColorProfile()
	if profile == termenv.Ascii && os.Getenv("FORCE_COLOR") != "" {
		return termenv.ANSI
	}
	return profile
})
