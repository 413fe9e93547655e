// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
	"github.com/jeranaias/gemchat/internal/util"
)

// Credential sources.
const (
	// SourceSecretStore reads the key from the environment or a secrets TOML file.
	SourceSecretStore = "secret-store"

	// SourcePrompt asks the user for the key interactively.
	SourcePrompt = "prompt"
)

// DefaultKeyName is the secret name holding the Gemini API key.
const DefaultKeyName = "GEMINI_API_KEY"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gemchat configuration.
type Config struct {
	Model      ModelConfig      `toml:"model" json:"model"`
	Credential CredentialConfig `toml:"credential" json:"credential"`
	API        APIConfig        `toml:"api" json:"api"`
	Session    SessionConfig    `toml:"session" json:"session"`
	Server     ServerConfig     `toml:"server" json:"server"`
	UI         UIConfig         `toml:"ui" json:"ui"`
}

// ModelConfig selects the model.
type ModelConfig struct {
	// Default is the model a new session starts with
	Default string `toml:"default" json:"default"`
	// Selectable lets the user switch between Choices during a session
	Selectable bool `toml:"selectable" json:"selectable"`
	// Choices is the enumerated set offered when Selectable is true
	Choices []string `toml:"choices" json:"choices"`
}

// CredentialConfig says where the API key comes from.
type CredentialConfig struct {
	// Source is "secret-store" or "prompt"
	Source string `toml:"source" json:"source"`
	// SecretsPath is the secrets TOML file consulted by the secret store
	SecretsPath string `toml:"secrets_path" json:"secrets_path"`
	// KeyName is the environment variable and secrets key holding the API key
	KeyName string `toml:"key_name" json:"key_name"`
	// Watch reloads the secrets file on change (serve only)
	Watch bool `toml:"watch" json:"watch"`
}

// APIConfig points at the Gemini endpoint.
type APIConfig struct {
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds each generateContent call. The supported value is
	// 30. Anything else (1 to 300) is an override for slow proxies or local
	// fakes and changes when a stalled call turns into "API Request Error".
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// SessionConfig controls turn bookkeeping.
type SessionConfig struct {
	// RecordFailures appends error replies to the transcript
	RecordFailures bool `toml:"record_failures" json:"record_failures"`
	// IdleTimeoutMins evicts idle web sessions
	IdleTimeoutMins int `toml:"idle_timeout_mins" json:"idle_timeout_mins"`
}

// IdleTimeout returns the idle timeout as a duration.
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMins) * time.Minute
}

// ServerConfig configures the web front-end.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme is the markdown style: "auto", "dark", "light", "notty"
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the rendered width for replies; 0 follows the terminal
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Default:    model.DefaultModelID,
			Selectable: true,
			Choices:    model.ModelIDs(),
		},
		Credential: CredentialConfig{
			Source:      SourceSecretStore,
			SecretsPath: filepath.Join(".streamlit", "secrets.toml"),
			KeyName:     DefaultKeyName,
			Watch:       true,
		},
		API: APIConfig{
			BaseURL:     gemini.DefaultBaseURL,
			TimeoutSecs: int(gemini.DefaultTimeout / time.Second),
		},
		Session: SessionConfig{
			RecordFailures:  true,
			IdleTimeoutMins: 30,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8501",
		},
		UI: UIConfig{
			Theme:    "auto",
			WordWrap: 0,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the gemchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gemchat"), nil
}

// ConfigPath returns the config file path, honouring $GEMCHAT_CONFIG.
func ConfigPath() (string, error) {
	if p := os.Getenv("GEMCHAT_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the file the terminal UI logs to.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gemchat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ./.env, then the config file if it exists, then applies
// environment overrides and validates.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		return finish(cfg)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file on top of cfg. Keys missing from the file keep
// the values already in cfg. Unknown keys are rejected so typos surface.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads each existing file into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills empty strings and zero numbers a partial file left behind.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Model.Default == "" {
		c.Model.Default = defaults.Model.Default
	}
	if len(c.Model.Choices) == 0 {
		c.Model.Choices = defaults.Model.Choices
	}
	if c.Credential.Source == "" {
		c.Credential.Source = defaults.Credential.Source
	}
	if c.Credential.KeyName == "" {
		c.Credential.KeyName = defaults.Credential.KeyName
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.Session.IdleTimeoutMins == 0 {
		c.Session.IdleTimeoutMins = defaults.Session.IdleTimeoutMins
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# gemchat configuration file\n")
	buf.WriteString("# The API key does not belong here: use GEMINI_API_KEY in .env or the secrets file.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config encode error: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns every problem found as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Model
	if strings.TrimSpace(c.Model.Default) == "" {
		add("model.default", "must not be empty")
	} else if strings.ContainsAny(c.Model.Default, " /?#") {
		add("model.default", "invalid model id '%s'", c.Model.Default)
	}
	if c.Model.Selectable {
		if len(c.Model.Choices) == 0 {
			add("model.choices", "must list at least one model when selectable")
		}
		found := false
		for _, id := range c.Model.Choices {
			if strings.TrimSpace(id) == "" || strings.ContainsAny(id, " /?#") {
				add("model.choices", "invalid model id '%s'", id)
			}
			if id == c.Model.Default {
				found = true
			}
		}
		if len(c.Model.Choices) > 0 && !found {
			add("model.default", "'%s' is not one of model.choices", c.Model.Default)
		}
	}

	// Credential
	switch c.Credential.Source {
	case SourceSecretStore, SourcePrompt:
	default:
		add("credential.source", "invalid source '%s', must be one of: %s, %s",
			c.Credential.Source, SourceSecretStore, SourcePrompt)
	}
	if strings.TrimSpace(c.Credential.KeyName) == "" {
		add("credential.key_name", "must not be empty")
	}

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "invalid URL '%s', must be http(s)://host", c.API.BaseURL)
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 300 {
		add("api.timeout_secs", "must be between 1 and 300, got %d", c.API.TimeoutSecs)
	}

	// Session
	if c.Session.IdleTimeoutMins < 1 {
		add("session.idle_timeout_mins", "must be at least 1, got %d", c.Session.IdleTimeoutMins)
	}

	// Server
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		add("server.addr", "invalid address '%s': %v", c.Server.Addr, err)
	}

	// UI
	switch c.UI.Theme {
	case "auto", "dark", "light", "notty":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light, notty", c.UI.Theme)
	}
	if c.UI.WordWrap < 0 || (c.UI.WordWrap > 0 && c.UI.WordWrap < 20) {
		add("ui.word_wrap", "must be 0 or at least 20, got %d", c.UI.WordWrap)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GEMCHAT_MODEL: overrides model.default
//   - GEMCHAT_CREDENTIAL_SOURCE: overrides credential.source
//   - GEMCHAT_SECRETS_PATH: overrides credential.secrets_path
//   - GEMCHAT_BASE_URL: overrides api.base_url
//   - GEMCHAT_ADDR: overrides server.addr
//   - GEMCHAT_RECORD_FAILURES: overrides session.record_failures
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("GEMCHAT_MODEL"); v != "" {
		c.Model.Default = v
	}
	if v := os.Getenv("GEMCHAT_CREDENTIAL_SOURCE"); v != "" {
		c.Credential.Source = v
	}
	if v := os.Getenv("GEMCHAT_SECRETS_PATH"); v != "" {
		c.Credential.SecretsPath = v
	}
	if v := os.Getenv("GEMCHAT_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("GEMCHAT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("GEMCHAT_RECORD_FAILURES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GEMCHAT_RECORD_FAILURES: %w", err)
		}
		c.Session.RecordFailures = b
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its TOML key path, e.g. "model.default".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value for the field at key and assigns it. The result is not
// validated; call Validate before saving.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	return setFieldValue(field, value)
}

// Keys returns every settable key path.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key '%s', expected section.name", key)
	}
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		next, ok := fieldByTOMLName(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = next
	}
	return v, nil
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool '%s'", value)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer '%s'", value)
		}
		field.SetInt(int64(n))
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}
