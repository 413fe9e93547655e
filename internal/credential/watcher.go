// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of editor writes into one reload.
const DefaultDebounce = 200 * time.Millisecond

// =============================================================================
// SECRETS FILE WATCHER
// =============================================================================

// Watcher reloads a SecretStore when its secrets file changes. The parent
// directory is watched because editors often replace files by rename.
type Watcher struct {
	store    *SecretStore
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time // zero when nothing is pending

	onReload func(err error)

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewWatcher creates a watcher for store's secrets file.
func NewWatcher(store *SecretStore, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		store:    store,
		watcher:  fw,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// OnReload registers a callback run after every reload. Set it before Watch.
func (w *Watcher) OnReload(fn func(err error)) {
	w.onReload = fn
}

// Watch starts watching. It returns an error if the directory cannot be watched.
func (w *Watcher) Watch() error {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	log.Printf("SECRETS_WATCH | path=%s", w.store.Path())

	w.done.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and waits for the goroutines to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.done.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.done.Done()
	target := filepath.Clean(w.store.Path())

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("SECRETS_WATCH_ERROR | err=%v", err)
		}
	}
}

func (w *Watcher) processPending() {
	defer w.done.Done()
	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case now := <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if !due {
				continue
			}
			err := w.store.Reload()
			if err != nil {
				log.Printf("SECRETS_RELOAD_FAILED | path=%s err=%v", w.store.Path(), err)
			} else {
				log.Printf("SECRETS_RELOADED | path=%s", w.store.Path())
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		}
	}
}
