// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/gemini"
)

const testKeyName = "GEMCHAT_TEST_API_KEY"

func writeSecrets(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func TestSecretStore_FileValue(t *testing.T) {
	t.Setenv(testKeyName, "")
	path := filepath.Join(t.TempDir(), "secrets.toml")
	writeSecrets(t, path, testKeyName+` = "  from-file  "`+"\n")

	key, err := NewSecretStore(testKeyName, path).Lookup()
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)
}

func TestSecretStore_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.toml")
	writeSecrets(t, path, testKeyName+` = "from-file"`+"\n")
	t.Setenv(testKeyName, "from-env")

	key, err := NewSecretStore(testKeyName, path).Lookup()
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestSecretStore_MissingEverywhere(t *testing.T) {
	t.Setenv(testKeyName, "")
	store := NewSecretStore(testKeyName, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := store.Lookup()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.True(t, errors.Is(err, gemini.ErrMissingCredential))
	assert.Contains(t, err.Error(), testKeyName)
}

func TestSecretStore_KeyAbsentFromFile(t *testing.T) {
	t.Setenv(testKeyName, "")
	path := filepath.Join(t.TempDir(), "secrets.toml")
	writeSecrets(t, path, `OTHER_KEY = "x"`+"\n")

	_, err := NewSecretStore(testKeyName, path).Lookup()
	assert.ErrorIs(t, err, gemini.ErrMissingCredential)
}

func TestSecretStore_BadFileReported(t *testing.T) {
	t.Setenv(testKeyName, "")
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not toml", "this is = = broken", "failed to read secrets file"},
		{"not a string", testKeyName + " = 42\n", "must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "secrets.toml")
			writeSecrets(t, path, tt.body)

			store := NewSecretStore(testKeyName, path)
			assert.Error(t, store.Reload())

			_, err := store.Lookup()
			require.Error(t, err)
			assert.ErrorIs(t, err, gemini.ErrMissingCredential)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSecretStore_Reload(t *testing.T) {
	t.Setenv(testKeyName, "")
	path := filepath.Join(t.TempDir(), "secrets.toml")
	store := NewSecretStore(testKeyName, path)

	_, err := store.Lookup()
	require.Error(t, err)

	writeSecrets(t, path, testKeyName+` = "later"`+"\n")
	require.NoError(t, store.Reload())

	key, err := store.Lookup()
	require.NoError(t, err)
	assert.Equal(t, "later", key)
}

func TestNewSecretStoreFromConfig(t *testing.T) {
	cfg := config.Default().Credential
	store := NewSecretStoreFromConfig(cfg)
	assert.Equal(t, cfg.KeyName, store.KeyName())
	assert.Equal(t, cfg.SecretsPath, store.Path())
}

func TestTerminalPrompter_ReadsPipedLine(t *testing.T) {
	in := pipeInput(t, "  piped-key  \nignored\n")
	out := filepath.Join(t.TempDir(), "out")
	outFile, err := os.Create(out)
	require.NoError(t, err)
	defer outFile.Close()

	p := &TerminalPrompter{In: in, Out: outFile}
	key, err := p.PromptKey("API key:")
	require.NoError(t, err)
	assert.Equal(t, "piped-key", key)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "API key: ", string(written))
}

func TestTerminalPrompter_EmptyAnswer(t *testing.T) {
	p := &TerminalPrompter{In: pipeInput(t, "\n"), Out: os.Stderr}
	_, err := p.PromptKey("")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func pipeInput(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Setenv(testKeyName, "")
	path := filepath.Join(t.TempDir(), "secrets.toml")
	writeSecrets(t, path, testKeyName+` = "first"`+"\n")

	store := NewSecretStore(testKeyName, path)
	w, err := NewWatcher(store, 20*time.Millisecond)
	require.NoError(t, err)

	var reloads atomic.Int32
	w.OnReload(func(err error) {
		if err == nil {
			reloads.Add(1)
		}
	})
	require.NoError(t, w.Watch())
	defer w.Close()

	writeSecrets(t, path, testKeyName+` = "second"`+"\n")

	require.Eventually(t, func() bool {
		key, err := store.Lookup()
		return err == nil && key == "second"
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Setenv(testKeyName, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.toml")
	writeSecrets(t, path, testKeyName+` = "first"`+"\n")

	store := NewSecretStore(testKeyName, path)
	w, err := NewWatcher(store, 20*time.Millisecond)
	require.NoError(t, err)

	var reloads atomic.Int32
	w.OnReload(func(error) { reloads.Add(1) })
	require.NoError(t, w.Watch())
	defer w.Close()

	writeSecrets(t, filepath.Join(dir, "unrelated.txt"), "noise")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}

func TestWatcher_CloseStopsGoroutines(t *testing.T) {
	store := NewSecretStore(testKeyName, filepath.Join(t.TempDir(), "secrets.toml"))
	w, err := NewWatcher(store, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	require.NoError(t, w.Watch())

	done := make(chan struct{})
	go func() {
		w.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}
