// gemchat - chat with Gemini from the terminal or the browser.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat/internal/cli"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/ui/chat"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse()
	if err != nil {
		cli.PrintUsage(os.Stderr)
		cli.HandleErrorAndExit(cli.NewUsageError("%v", err))
	}

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return
	case cli.CmdConfig:
		cli.HandleErrorAndExit(cli.HandleConfig(args, os.Stdout))
		return
	}

	app, err := cli.NewApp(args)
	if err != nil {
		cli.HandleErrorAndExit(err)
	}

	switch cmd {
	case cli.CmdChat:
		closeLog := logToFile(args.Verbose)
		defer closeLog()
		err = cli.HandleChat(app)
	case cli.CmdAsk:
		closeLog := logToFile(args.Verbose)
		defer closeLog()
		err = cli.HandleAsk(app, args)
	case cli.CmdServe:
		err = cli.HandleServe(app, args)
	case cli.CmdModels:
		err = cli.HandleModels(app.Config, os.Stdout)
	default:
		err = runTUI(app)
	}
	if err != nil {
		cli.HandleErrorAndExit(err)
	}
}

// runTUI starts the terminal UI.
func runTUI(app *cli.App) error {
	defer logToFile(false)()

	sess, err := app.SessionForTerminal()
	if err != nil {
		return err
	}
	defer sess.Close()

	m := chat.New(sess, styles.NewTheme(), chat.Options{
		PromptForKey:  app.PromptsForKey(),
		MarkdownStyle: app.Config.UI.Theme,
		WordWrap:      app.Config.UI.WordWrap,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running gemchat: %w", err)
	}
	return nil
}

// logToFile sends the standard logger to ~/.gemchat/gemchat.log. With
// verbose set the logger stays on stderr. The returned func closes the file.
func logToFile(verbose bool) func() {
	if verbose {
		return func() {}
	}
	path, err := config.LogPath()
	if err == nil {
		err = os.MkdirAll(filepath.Dir(path), 0700)
	}
	if err != nil {
		return func() {}
	}
	f, err := tea.LogToFile(path, "gemchat")
	if err != nil {
		return func() {}
	}
	return func() { f.Close() }
}
