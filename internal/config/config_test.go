// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// clearEnv blanks every override variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMCHAT_MODEL", "GEMCHAT_CREDENTIAL_SOURCE", "GEMCHAT_SECRETS_PATH",
		"GEMCHAT_BASE_URL", "GEMCHAT_ADDR", "GEMCHAT_RECORD_FAILURES",
	} {
		t.Setenv(key, "")
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Model.Default != "gemini-2.5-flash" {
		t.Errorf("Model.Default = %q, want gemini-2.5-flash", cfg.Model.Default)
	}
	if !cfg.Model.Selectable {
		t.Error("Model.Selectable should default to true")
	}
	if cfg.Credential.Source != SourceSecretStore {
		t.Errorf("Credential.Source = %q, want %q", cfg.Credential.Source, SourceSecretStore)
	}
	if cfg.Credential.KeyName != "GEMINI_API_KEY" {
		t.Errorf("Credential.KeyName = %q", cfg.Credential.KeyName)
	}
	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("API.Timeout() = %v, want 30s", cfg.API.Timeout())
	}
	if !cfg.Session.RecordFailures {
		t.Error("Session.RecordFailures should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"valid default config", func(c *Config) {}, ""},
		{"fixed model outside choices", func(c *Config) {
			c.Model.Selectable = false
			c.Model.Default = "gemini-1.5-flash"
		}, ""},
		{"prompt source", func(c *Config) { c.Credential.Source = SourcePrompt }, ""},
		{"empty model", func(c *Config) { c.Model.Default = "" }, "model.default"},
		{"model with slash", func(c *Config) { c.Model.Default = "a/b" }, "model.default"},
		{"default not in choices", func(c *Config) { c.Model.Default = "other" }, "model.default"},
		{"selectable without choices", func(c *Config) { c.Model.Choices = nil }, "model.choices"},
		{"invalid source", func(c *Config) { c.Credential.Source = "keyring" }, "credential.source"},
		{"empty key name", func(c *Config) { c.Credential.KeyName = " " }, "credential.key_name"},
		{"bad base url", func(c *Config) { c.API.BaseURL = "ftp://x" }, "api.base_url"},
		{"zero timeout", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs"},
		{"huge timeout", func(c *Config) { c.API.TimeoutSecs = 301 }, "api.timeout_secs"},
		{"zero idle timeout", func(c *Config) { c.Session.IdleTimeoutMins = 0 }, "session.idle_timeout_mins"},
		{"bad addr", func(c *Config) { c.Server.Addr = "localhost" }, "server.addr"},
		{"invalid theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"tiny word wrap", func(c *Config) { c.UI.WordWrap = 5 }, "ui.word_wrap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidateErrors", err)
			}
			found := false
			for _, v := range verrs {
				if v.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want error on %s", err, tt.wantField)
			}
		})
	}
}

func TestValidateErrors_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "neon"
	cfg.API.TimeoutSecs = -1

	err := cfg.Validate()
	var verrs ValidateErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("Validate() = %v, want 2 errors", err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want errors joined with '; '", err.Error())
	}
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", `
[model]
default = "gemini-2.5-pro"
selectable = false

[credential]
source = "prompt"

[session]
record_failures = false
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Model.Default != "gemini-2.5-pro" || cfg.Model.Selectable {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.Credential.Source != SourcePrompt {
		t.Errorf("Credential.Source = %q", cfg.Credential.Source)
	}
	if cfg.Session.RecordFailures {
		t.Error("record_failures = false was not applied")
	}
	if cfg.API.TimeoutSecs != 30 || cfg.Credential.KeyName != DefaultKeyName {
		t.Errorf("defaults lost: api=%+v credential=%+v", cfg.API, cfg.Credential)
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", "[model]\ndefualt = \"x\"\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "model.defualt") {
		t.Errorf("LoadFromPath() error = %v, want unknown key model.defualt", err)
	}
}

func TestLoadFromPath_InvalidValue(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", "[ui]\ntheme = \"neon\"\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "ui.theme") {
		t.Errorf("LoadFromPath() error = %v, want ui.theme error", err)
	}
}

func TestLoadFromPath_TimeoutOverride(t *testing.T) {
	tests := []struct {
		secs    int
		want    time.Duration
		wantErr bool
	}{
		{secs: 30, want: 30 * time.Second},
		{secs: 45, want: 45 * time.Second},
		{secs: 301, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.secs), func(t *testing.T) {
			clearEnv(t)
			path := writeFile(t, t.TempDir(), "config.toml", fmt.Sprintf("[api]\ntimeout_secs = %d\n", tc.secs))

			cfg, err := LoadFromPath(path)
			if tc.wantErr {
				if err == nil || !strings.Contains(err.Error(), "api.timeout_secs") {
					t.Errorf("LoadFromPath() error = %v, want api.timeout_secs error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromPath: %v", err)
			}
			if cfg.API.Timeout() != tc.want {
				t.Errorf("API.Timeout() = %v, want %v", cfg.API.Timeout(), tc.want)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMCHAT_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMCHAT_MODEL", "gemini-2.5-pro")
	t.Setenv("GEMCHAT_CREDENTIAL_SOURCE", "prompt")
	t.Setenv("GEMCHAT_SECRETS_PATH", "/tmp/secrets.toml")
	t.Setenv("GEMCHAT_BASE_URL", "http://127.0.0.1:9999")
	t.Setenv("GEMCHAT_ADDR", ":9000")
	t.Setenv("GEMCHAT_RECORD_FAILURES", "false")

	cfg := Default()
	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatalf("ApplyEnvOverrides: %v", err)
	}

	if cfg.Model.Default != "gemini-2.5-pro" {
		t.Errorf("Model.Default = %q", cfg.Model.Default)
	}
	if cfg.Credential.Source != "prompt" || cfg.Credential.SecretsPath != "/tmp/secrets.toml" {
		t.Errorf("Credential = %+v", cfg.Credential)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:9999" || cfg.Server.Addr != ":9000" {
		t.Errorf("API/Server = %+v %+v", cfg.API, cfg.Server)
	}
	if cfg.Session.RecordFailures {
		t.Error("GEMCHAT_RECORD_FAILURES=false not applied")
	}
}

func TestApplyEnvOverrides_BadBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMCHAT_RECORD_FAILURES", "sometimes")
	if err := Default().ApplyEnvOverrides(); err == nil {
		t.Error("expected error for unparseable bool")
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "GEMCHAT_TEST_DOTENV_KEY"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	path := writeFile(t, dir, ".env", key+"=from-dotenv\n")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q, want from-dotenv", key, got)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	const key = "GEMCHAT_TEST_DOTENV_EXISTING"
	t.Setenv(key, "from-env")

	path := writeFile(t, t.TempDir(), ".env", key+"=from-dotenv\n")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-env" {
		t.Errorf("%s = %q, want from-env", key, got)
	}
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Model.Default = "gemini-2.5-pro"
	cfg.UI.WordWrap = 100
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# gemchat configuration file") {
		t.Errorf("missing header: %q", string(data)[:40])
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

// =============================================================================
// GET/SET TESTS
// =============================================================================

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	if v, err := cfg.Get("model.default"); err != nil || v != "gemini-2.5-flash" {
		t.Errorf("Get(model.default) = %v, %v", v, err)
	}

	sets := []struct {
		key, value string
		check      func() bool
	}{
		{"model.default", "gemini-2.5-pro", func() bool { return cfg.Model.Default == "gemini-2.5-pro" }},
		{"model.selectable", "false", func() bool { return !cfg.Model.Selectable }},
		{"api.timeout_secs", "45", func() bool { return cfg.API.TimeoutSecs == 45 }},
		{"model.choices", "a, b,,c", func() bool { return reflect.DeepEqual(cfg.Model.Choices, []string{"a", "b", "c"}) }},
	}
	for _, s := range sets {
		if err := cfg.Set(s.key, s.value); err != nil {
			t.Errorf("Set(%s) error: %v", s.key, err)
			continue
		}
		if !s.check() {
			t.Errorf("Set(%s, %s) did not apply", s.key, s.value)
		}
	}

	if err := cfg.Set("api.timeout_secs", "soon"); err == nil {
		t.Error("Set with bad integer should fail")
	}
	if _, err := cfg.Get("nope.key"); err == nil {
		t.Error("Get(nope.key) should fail")
	}
	if _, err := cfg.Get("model"); err == nil {
		t.Error("Get(model) without a field should fail")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	cfg := Default()
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Keys() returned %q but Get failed: %v", k, err)
		}
	}
	if len(keys) < 10 {
		t.Errorf("Keys() returned only %d keys", len(keys))
	}
}
