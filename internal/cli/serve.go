// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/gemchat/internal/credential"
	"github.com/jeranaias/gemchat/internal/server"
	"github.com/jeranaias/gemchat/internal/session"
)

// sweepInterval is how often idle browser sessions are evicted.
const sweepInterval = time.Minute

// shutdownTimeout bounds the wait for in-flight turns on exit.
const shutdownTimeout = 35 * time.Second

// HandleServe runs the web front-end until SIGINT or SIGTERM.
func HandleServe(app *App, args Args) error {
	addr := app.Config.Server.Addr
	if args.Addr != "" {
		addr = args.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(app.Config.Session.IdleTimeout())
	go store.Run(ctx, sweepInterval)

	server.Version = Version
	srv := server.New(addr, store, app.NewSession).
		WithPromptForKey(app.PromptsForKey())

	if app.Secrets != nil {
		srv.WithKeySource(app.Secrets)
		if app.Config.Credential.Watch {
			w, err := watchSecrets(app.Secrets)
			if err != nil {
				log.Printf("SECRETS_WATCH_FAILED | path=%s err=%v", app.Secrets.Path(), err)
			} else {
				defer w.Close()
			}
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(os.Stderr, "%s %s\n", TitleStyle.Render("gemchat"), DimStyle.Render("serving on http://"+addr))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// watchSecrets reloads the secrets file on change. Sessions created after a
// reload pick up the new key.
func watchSecrets(store *credential.SecretStore) (*credential.Watcher, error) {
	w, err := credential.NewWatcher(store, credential.DefaultDebounce)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
