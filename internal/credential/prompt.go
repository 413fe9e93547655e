// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for a key.
type Prompter interface {
	PromptKey(label string) (string, error)
}

// TerminalPrompter reads a key from In. On a terminal the input is not
// echoed; otherwise one line is read, so a key can be piped in.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter returns a prompter on stdin/stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// PromptKey prints label and reads the key. An empty answer returns
// ErrMissingCredential.
func (p *TerminalPrompter) PromptKey(label string) (string, error) {
	if label != "" {
		fmt.Fprint(p.Out, label)
		if !strings.HasSuffix(label, " ") {
			fmt.Fprint(p.Out, " ")
		}
	}

	var key string
	if term.IsTerminal(int(p.In.Fd())) {
		b, err := term.ReadPassword(int(p.In.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		key = string(b)
	} else {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingCredential
	}
	return key, nil
}
