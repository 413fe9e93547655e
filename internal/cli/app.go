// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/credential"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/session"
)

// =============================================================================
// APP
// =============================================================================

// App is everything a front-end needs for one run: the effective config, a
// Gemini client, and the credential source.
type App struct {
	Config *config.Config
	Client *gemini.Client

	// Secrets is nil when the key comes from a prompt.
	Secrets *credential.SecretStore

	// Prompter asks for the key in line-mode front-ends.
	Prompter credential.Prompter
}

// LoadConfig loads the config named by args (or the default path) and
// applies the --model override.
func LoadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		// config.Load and later config subcommands resolve the same path.
		os.Setenv("GEMCHAT_CONFIG", args.ConfigPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if args.Model != "" {
		cfg.Model.Default = args.Model
		if cfg.Model.Selectable && !slices.Contains(cfg.Model.Choices, args.Model) {
			cfg.Model.Choices = append(cfg.Model.Choices, args.Model)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --model: %w", err)
		}
	}
	return cfg, nil
}

// NewApp loads configuration and builds the client.
func NewApp(args Args) (*App, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}
	return NewAppWithConfig(cfg, args.Verbose), nil
}

// NewAppWithConfig builds an App from an already loaded config.
func NewAppWithConfig(cfg *config.Config, verbose bool) *App {
	client := gemini.NewClient().
		WithBaseURL(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout()).
		WithVerbose(verbose)

	app := &App{
		Config:   cfg,
		Client:   client,
		Prompter: credential.NewTerminalPrompter(),
	}
	if cfg.Credential.Source == config.SourceSecretStore {
		app.Secrets = credential.NewSecretStoreFromConfig(cfg.Credential)
	}
	return app
}

// PromptsForKey reports whether the key is collected interactively.
func (a *App) PromptsForKey() bool {
	return a.Config.Credential.Source == config.SourcePrompt
}

// SessionConfig returns the per-session settings from the config.
func (a *App) SessionConfig() session.Config {
	return session.Config{
		ModelID:        a.Config.Model.Default,
		Selectable:     a.Config.Model.Selectable,
		Choices:        slices.Clone(a.Config.Model.Choices),
		RecordFailures: a.Config.Session.RecordFailures,
	}
}

// LookupKey returns the key from the secret store. With the prompt source
// it returns "" and no error; the front-end asks later.
func (a *App) LookupKey() (string, error) {
	if a.Secrets == nil {
		return "", nil
	}
	return a.Secrets.Lookup()
}

// ResolveKey returns a key for line-mode front-ends, prompting on the
// terminal when the source is "prompt".
func (a *App) ResolveKey() (string, error) {
	if !a.PromptsForKey() {
		return a.LookupKey()
	}
	return a.Prompter.PromptKey("Gemini API key:")
}

// NewSession creates a session with key, which may be empty.
func (a *App) NewSession(key string) *session.Session {
	sess := session.New(a.Client, key, a.SessionConfig())
	log.Printf("SESSION_START | session=%s model=%s credential=%t",
		sess.ID(), sess.ModelID(), sess.HasCredential())
	return sess
}

// SessionForTerminal resolves the key and creates a session. A missing key
// from the secret store is logged, not fatal: the session reports it on the
// first turn.
func (a *App) SessionForTerminal() (*session.Session, error) {
	key, err := a.LookupKey()
	if err != nil && !errors.Is(err, gemini.ErrMissingCredential) {
		return nil, err
	}
	if err != nil {
		log.Printf("CREDENTIAL_MISSING | source=%s err=%v", a.Config.Credential.Source, err)
	}
	return a.NewSession(key), nil
}
