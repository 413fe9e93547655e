// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdServe
	CmdModels
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdServe:
		return "serve"
	case CmdModels:
		return "models"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Model      string
	Verbose    bool

	// Command-specific
	Query      string // ask
	Addr       string // serve
	Subcommand string // config
	ConfigKey  string
	ConfigVal  string

	// Raw args after the command name
	Raw []string
}

const usageText = `gemchat - chat with Gemini from the terminal or the browser

Usage:
  gemchat                     Start the terminal UI (default)
  gemchat tui                 Start the terminal UI
  gemchat chat                Line-mode chat with history
  gemchat ask "question"      Ask one question and print the reply
  gemchat serve [--addr A]    Serve the web chat page
  gemchat models              List the models gemchat knows
  gemchat config [sub]        Configuration
  gemchat version             Version information
  gemchat help                This text

Config subcommands:
  gemchat config show         Print the effective configuration
  gemchat config path         Print the config file path
  gemchat config init         Write a default config file
  gemchat config get KEY      Print one value (e.g. model.default)
  gemchat config set KEY VAL  Change one value and save
  gemchat config keys         List every key

Global flags:
  --config PATH               Config file (default ~/.gemchat/config.toml)
  -m, --model ID              Model for this run
  -v, --verbose               Log Gemini requests and responses

API key:
  Set GEMINI_API_KEY in the environment, in ./.env, or in
  .streamlit/secrets.toml. With credential.source = "prompt" gemchat asks
  for the key instead.

Examples:
  gemchat ask "Explain goroutines in two sentences"
  echo "Summarize this" | gemchat ask
  gemchat --model gemini-2.5-pro chat
  gemchat serve --addr 0.0.0.0:8501

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "gemchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) into a command and args.
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}
	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	rest := remaining[1:]
	args.Raw = rest
	p := NewArgParser(rest)

	switch name {
	case "tui":
		return CmdTUI, args, nil

	case "chat", "repl":
		return CmdChat, args, nil

	case "ask", "a":
		args.Query = p.Join(0)
		return CmdAsk, args, nil

	case "serve", "server", "web":
		args.Addr = p.Flag("addr")
		if p.HasFlag("addr") && args.Addr == "" {
			return CmdServe, args, fmt.Errorf("--addr requires a value")
		}
		return CmdServe, args, nil

	case "models", "model":
		return CmdModels, args, nil

	case "config", "cfg":
		args.Subcommand = p.Subcommand()
		args.ConfigKey = p.Positional(1)
		args.ConfigVal = p.Join(2)
		return CmdConfig, args, nil

	case "version", "--version":
		return CmdVersion, args, nil

	case "help", "-h", "--help":
		return CmdHelp, args, nil

	default:
		return CmdHelp, args, fmt.Errorf("unknown command %q", name)
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags may appear before or after the command name.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var (
		remaining []string
		args      Args
	)

	takeValue := func(i int, flag string) (string, error) {
		if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "-") {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		return argv[i+1], nil
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true

		case arg == "--config":
			v, err := takeValue(i, arg)
			if err != nil {
				return nil, args, err
			}
			args.ConfigPath = v
			i++

		case arg == "-m" || arg == "--model":
			v, err := takeValue(i, arg)
			if err != nil {
				return nil, args, err
			}
			args.Model = v
			i++

		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")

		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")

		case arg == "--":
			remaining = append(remaining, argv[i+1:]...)
			return remaining, args, nil

		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args, nil
}
