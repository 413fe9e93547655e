// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/gemini"
)

// ErrMissingCredential is returned when no source holds a key. It wraps
// gemini.ErrMissingCredential so callers can match either.
var ErrMissingCredential = fmt.Errorf("%w", gemini.ErrMissingCredential)

// =============================================================================
// SECRET STORE
// =============================================================================

// SecretStore looks the key up in the environment, then in a secrets file.
type SecretStore struct {
	keyName string
	path    string

	mu        sync.RWMutex
	fileValue string
	fileErr   error
}

// NewSecretStore creates a store and reads the secrets file once. A missing
// file is not an error; the environment may still hold the key.
func NewSecretStore(keyName, path string) *SecretStore {
	s := &SecretStore{keyName: keyName, path: path}
	s.Reload()
	return s
}

// NewSecretStoreFromConfig creates a store from the credential section.
func NewSecretStoreFromConfig(cfg config.CredentialConfig) *SecretStore {
	return NewSecretStore(cfg.KeyName, cfg.SecretsPath)
}

// Path returns the secrets file path.
func (s *SecretStore) Path() string {
	return s.path
}

// KeyName returns the secret name looked up.
func (s *SecretStore) KeyName() string {
	return s.keyName
}

// Lookup returns the key. The environment wins over the file.
func (s *SecretStore) Lookup() (string, error) {
	if v := strings.TrimSpace(os.Getenv(s.keyName)); v != "" {
		return v, nil
	}

	s.mu.RLock()
	value, fileErr := s.fileValue, s.fileErr
	s.mu.RUnlock()

	if value != "" {
		return value, nil
	}
	if fileErr != nil {
		return "", fmt.Errorf("%w: %s not set and %v", ErrMissingCredential, s.keyName, fileErr)
	}
	return "", fmt.Errorf("%w: set %s in the environment, .env, or %s", ErrMissingCredential, s.keyName, s.path)
}

// Reload re-reads the secrets file. The error is also remembered so Lookup
// can report why the file did not help.
func (s *SecretStore) Reload() error {
	value, err := readSecretsFile(s.path, s.keyName)

	s.mu.Lock()
	s.fileValue = value
	s.fileErr = err
	s.mu.Unlock()
	return err
}

// readSecretsFile decodes a top-level string key from a TOML file. A missing
// file yields "" and no error.
func readSecretsFile(path, keyName string) (string, error) {
	if path == "" {
		return "", nil
	}
	var secrets map[string]any
	if _, err := toml.DecodeFile(path, &secrets); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}

	raw, ok := secrets[keyName]
	if !ok {
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("secrets file %s: %s must be a string", path, keyName)
	}
	return strings.TrimSpace(value), nil
}
