// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// maxStdinQuestion caps a question piped on stdin.
const maxStdinQuestion = 1 << 20

// HandleAsk runs one turn and prints the reply. Failed turns still print
// their reply text and exit 0; only a missing key or bad input is an error.
func HandleAsk(app *App, args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinQuestion))
		if err != nil {
			return fmt.Errorf("failed to read question from stdin: %w", err)
		}
		query = strings.TrimSpace(string(data))
	}
	if query == "" {
		return NewUsageError("usage: gemchat ask \"question\"")
	}

	key, err := app.ResolveKey()
	if err != nil {
		return err
	}
	sess := app.NewSession(key)
	defer sess.Close()

	md := styles.NewMarkdown(markdownStyleFor(app), markdownWidthFor(app))
	return runAsk(context.Background(), sess, query, os.Stdout, md)
}

// runAsk submits query and writes the reply to out.
func runAsk(ctx context.Context, sess *session.Session, query string, out io.Writer, md *styles.Markdown) error {
	reply, err := sess.Submit(ctx, query)
	if err != nil {
		return err
	}
	if reply.Kind == session.KindMissingCredential {
		return reply.Err
	}

	if reply.Kind == session.KindNone {
		fmt.Fprintln(out, md.Render(reply.Text))
	} else {
		fmt.Fprintln(out, replyStyle(reply.Kind).Render(reply.Text))
	}
	return nil
}

func markdownStyleFor(app *App) string {
	if !IsStdoutTTY() {
		return "notty"
	}
	return app.Config.UI.Theme
}

func markdownWidthFor(app *App) int {
	width := GetTerminalWidth()
	if w := app.Config.UI.WordWrap; w > 0 && w < width {
		width = w
	}
	return width
}
