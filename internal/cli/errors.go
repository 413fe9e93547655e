// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/gemini"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitFailure covers configuration and credential failures
	ExitFailure = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
)

// UsageError is returned for bad command-line input.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// NewUsageError wraps err as a usage error.
func NewUsageError(format string, a ...any) error {
	return &UsageError{Err: fmt.Errorf(format, a...)}
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}
	return ExitFailure
}

// DisplayError writes err in the CLI's error format. Validation errors are
// listed one per line.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}

	var verrs config.ValidateErrors
	if errors.As(err, &verrs) {
		fmt.Fprintf(w, "%s invalid configuration:\n", ErrorStyle.Render("[ERROR]"))
		for _, ve := range verrs {
			fmt.Fprintf(w, "  - %s\n", ve.Error())
		}
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if errors.Is(err, gemini.ErrMissingCredential) {
		fmt.Fprintln(w, DimStyle.Render("Set GEMINI_API_KEY in the environment, ./.env, or .streamlit/secrets.toml."))
	}
}

// HandleErrorAndExit displays err on stderr and exits with its exit code.
func HandleErrorAndExit(err error) {
	if err == nil {
		return
	}
	DisplayError(os.Stderr, err)
	os.Exit(GetExitCode(err))
}
