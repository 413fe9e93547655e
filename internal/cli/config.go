// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/gemchat/internal/config"
)

// HandleConfig runs the config subcommands.
func HandleConfig(args Args, out io.Writer) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args, out)
	case "path":
		return handleConfigPath(args, out)
	case "init":
		return handleConfigInit(args, out)
	case "get":
		return handleConfigGet(args, out)
	case "set":
		return handleConfigSet(args, out)
	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(out, k)
		}
		return nil
	default:
		return NewUsageError("unknown config subcommand %q (show, path, init, get, set, keys)", args.Subcommand)
	}
}

// configPath resolves the file the config subcommands operate on.
func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPath()
}

// loadFileConfig reads the config file without env overrides, so a save
// does not bake environment values into the file.
func loadFileConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := config.LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cfg, nil
}

func handleConfigShow(args Args, out io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	path, _ := configPath(args)
	fmt.Fprintln(out, DimStyle.Render("# effective configuration ("+path+" + environment)"))
	fmt.Fprint(out, cfg.String())
	return nil
}

func handleConfigPath(args Args, out io.Writer) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

func handleConfigInit(args Args, out io.Writer) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s wrote %s\n", SuccessStyle.Render("OK"), path)
	return nil
}

func handleConfigGet(args Args, out io.Writer) error {
	if args.ConfigKey == "" {
		return NewUsageError("usage: gemchat config get KEY")
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	v, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return NewUsageError("%v", err)
	}
	fmt.Fprintln(out, formatConfigValue(v))
	return nil
}

func handleConfigSet(args Args, out io.Writer) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return NewUsageError("usage: gemchat config set KEY VALUE")
	}
	path, err := configPath(args)
	if err != nil {
		return err
	}
	cfg, err := loadFileConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return NewUsageError("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("OK"), args.ConfigKey, args.ConfigVal)
	return nil
}

func formatConfigValue(v any) string {
	if list, ok := v.([]string); ok {
		return fmt.Sprintf("%q", list)
	}
	return fmt.Sprint(v)
}
