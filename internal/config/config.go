// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigchat configuration.
type Config struct {
	Version string `toml:"version"`

	// Storage selects where conversations and settings are kept.
	Storage StorageConfig `toml:"storage"`

	// Endpoint supplies the defaults for chat settings that have never been
	// saved.
	Endpoint EndpointConfig `toml:"endpoint"`

	// Chat tunes the request lifecycle.
	Chat ChatConfig `toml:"chat"`

	UI      UIConfig      `toml:"ui"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// DataDir holds the documents, the log file and exports. "~" expands to
	// the home directory.
	DataDir string `toml:"data_dir"`
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend"`
	// WatchSettings reloads the settings document when another process
	// edits it. Only the file backend supports it.
	WatchSettings bool `toml:"watch_settings"`
}

// EndpointConfig contains the completion endpoint defaults.
type EndpointConfig struct {
	URL          string   `toml:"url"`
	APIKey       string   `toml:"api_key"`
	Model        string   `toml:"model"`
	SystemPrompt string   `toml:"system_prompt"`
	Temperature  float64  `toml:"temperature"`
	MaxTokens    int      `toml:"max_tokens"`
	Timeout      Duration `toml:"timeout"`
}

// ChatConfig contains conversation and request lifecycle configuration.
type ChatConfig struct {
	Cooldown       Duration `toml:"cooldown"`
	MaxMessages    int      `toml:"max_messages"`
	ContextWindow  int      `toml:"context_window"`
	MaxRetries     int      `toml:"max_retries"`
	RetryBaseDelay Duration `toml:"retry_base_delay"`
	RevealChunk    int      `toml:"reveal_chunk"`
	RevealDelay    Duration `toml:"reveal_delay"`
	AlertDuration  Duration `toml:"alert_duration"`
	Greeting       string   `toml:"greeting"`
	DefaultName    string   `toml:"default_name"`
	TitleLength    int      `toml:"title_length"`
}

// UIConfig contains terminal surface configuration.
type UIConfig struct {
	// Theme is "dark", "light" or "auto". Auto asks the terminal for its
	// background colour on first run.
	Theme string `toml:"theme"`
	// Markdown renders assistant replies with glamour.
	Markdown bool `toml:"markdown"`
	// ListWidth is the display width conversation names are cut to.
	ListWidth int `toml:"list_width"`
}

// LoggingConfig contains log output configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format"`
	// File is the log path. Empty means rigchat.log in the data dir.
	File string `toml:"file"`
}

// MetricsConfig contains the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Duration is a time.Duration written as a string such as "500ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// D wraps a time.Duration.
func D(v time.Duration) Duration {
	return Duration{Duration: v}
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with all built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Storage: StorageConfig{
			DataDir:       "~/.rigchat",
			Backend:       "file",
			WatchSettings: true,
		},
		Endpoint: EndpointConfig{
			SystemPrompt: model.DefaultSystemPrompt,
			Temperature:  model.DefaultTemperature,
			Timeout:      D(60 * time.Second),
		},
		Chat: ChatConfig{
			Cooldown:       D(time.Second),
			MaxMessages:    200,
			ContextWindow:  12,
			MaxRetries:     3,
			RetryBaseDelay: D(500 * time.Millisecond),
			RevealChunk:    10,
			RevealDelay:    D(30 * time.Millisecond),
			AlertDuration:  D(5 * time.Second),
			Greeting:       "Hello! I'm your assistant. How can I help you today?",
			DefaultName:    model.DefaultConversationName,
			TitleLength:    20,
		},
		UI: UIConfig{
			Theme:     "auto",
			Markdown:  true,
			ListWidth: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// fillDefaults fills in values left empty by a partial file.
func fillDefaults(cfg *Config) {
	def := Default()

	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = def.Storage.DataDir
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = def.Storage.Backend
	}
	if cfg.Endpoint.SystemPrompt == "" {
		cfg.Endpoint.SystemPrompt = def.Endpoint.SystemPrompt
	}
	if cfg.Endpoint.Timeout.Duration == 0 {
		cfg.Endpoint.Timeout = def.Endpoint.Timeout
	}
	if cfg.Chat.MaxMessages == 0 {
		cfg.Chat.MaxMessages = def.Chat.MaxMessages
	}
	if cfg.Chat.ContextWindow == 0 {
		cfg.Chat.ContextWindow = def.Chat.ContextWindow
	}
	if cfg.Chat.RevealChunk == 0 {
		cfg.Chat.RevealChunk = def.Chat.RevealChunk
	}
	if cfg.Chat.AlertDuration.Duration == 0 {
		cfg.Chat.AlertDuration = def.Chat.AlertDuration
	}
	if cfg.Chat.DefaultName == "" {
		cfg.Chat.DefaultName = def.Chat.DefaultName
	}
	if cfg.Chat.TitleLength == 0 {
		cfg.Chat.TitleLength = def.Chat.TitleLength
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = def.UI.Theme
	}
	if cfg.UI.ListWidth == 0 {
		cfg.UI.ListWidth = def.UI.ListWidth
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = def.Metrics.Addr
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigchat configuration directory. RIGCHAT_HOME
// overrides the default of ~/.rigchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RIGCHAT_HOME"); dir != "" {
		return ExpandHome(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// DataDir returns the expanded data directory.
func (c *Config) DataDir() (string, error) {
	return ExpandHome(c.Storage.DataDir)
}

// LogPath returns the log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return ExpandHome(c.Logging.File)
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rigchat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads .env files, then the default config file, then applies
// environment overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with env
// overrides and validation. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
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
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	fillDefaults(cfg)
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from each existing file into the process
// environment. Variables already set are not replaced.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions. The write is atomic.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), util.DirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# rigchat configuration file\n")
	buf.WriteString("# Generated by rigchat - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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

// Has reports whether field failed validation.
func (e ValidateErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate checks every section and returns ValidateErrors listing all
// problems found.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		add("storage.backend", "must be file, sqlite or memory, got %q", c.Storage.Backend)
	}

	if raw := strings.TrimSpace(c.Endpoint.URL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("endpoint.url", "must be an http or https URL")
		}
	}
	if c.Endpoint.Temperature < 0 || c.Endpoint.Temperature > 1 {
		add("endpoint.temperature", "must be between 0 and 1")
	}
	if c.Endpoint.MaxTokens < 0 {
		add("endpoint.max_tokens", "must not be negative")
	}
	if c.Endpoint.Timeout.Duration <= 0 {
		add("endpoint.timeout", "must be positive")
	}

	if c.Chat.Cooldown.Duration < 0 {
		add("chat.cooldown", "must not be negative")
	}
	if c.Chat.MaxMessages <= 0 {
		add("chat.max_messages", "must be positive")
	}
	if c.Chat.ContextWindow <= 0 {
		add("chat.context_window", "must be positive")
	}
	if c.Chat.MaxRetries < 0 || c.Chat.MaxRetries > 10 {
		add("chat.max_retries", "must be between 0 and 10")
	}
	if c.Chat.RetryBaseDelay.Duration < 0 {
		add("chat.retry_base_delay", "must not be negative")
	}
	if c.Chat.RevealChunk <= 0 {
		add("chat.reveal_chunk", "must be positive")
	}
	if c.Chat.RevealDelay.Duration < 0 {
		add("chat.reveal_delay", "must not be negative")
	}
	if c.Chat.TitleLength <= 0 {
		add("chat.title_length", "must be positive")
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "must be dark, light or auto, got %q", c.UI.Theme)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		add("logging.format", "must be text or json, got %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		add("metrics.addr", "required when metrics are enabled")
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
//   - RIGCHAT_API_URL: overrides endpoint.url
//   - RIGCHAT_API_KEY: overrides endpoint.api_key
//   - RIGCHAT_MODEL: overrides endpoint.model
//   - RIGCHAT_DATA_DIR: overrides storage.data_dir
//   - RIGCHAT_STORAGE: overrides storage.backend
//   - RIGCHAT_LOG_LEVEL: overrides logging.level
//   - RIGCHAT_THEME: overrides ui.theme
//   - RIGCHAT_METRICS_ADDR: enables metrics on the given address
//   - RIGCHAT_COOLDOWN: overrides chat.cooldown
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("RIGCHAT_API_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("RIGCHAT_API_KEY"); v != "" {
		c.Endpoint.APIKey = v
	}
	if v := os.Getenv("RIGCHAT_MODEL"); v != "" {
		c.Endpoint.Model = v
	}
	if v := os.Getenv("RIGCHAT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("RIGCHAT_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("RIGCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("RIGCHAT_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("RIGCHAT_METRICS_ADDR"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = v
	}
	if v := os.Getenv("RIGCHAT_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RIGCHAT_COOLDOWN: %w", err)
		}
		c.Chat.Cooldown = D(d)
	}
	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// DefaultSettings returns the chat settings used before any have been saved.
// auto is the theme to use when ui.theme is "auto".
func (c *Config) DefaultSettings(auto model.Theme) model.Settings {
	s := model.DefaultSettings()
	s.EndpointURL = c.Endpoint.URL
	s.APIKey = c.Endpoint.APIKey
	s.Model = c.Endpoint.Model
	s.SystemPrompt = c.Endpoint.SystemPrompt
	s.Temperature = c.Endpoint.Temperature
	s.MaxTokens = c.Endpoint.MaxTokens

	if c.UI.Theme == "auto" {
		s.Theme = auto
	} else {
		s.Theme = model.ParseTheme(c.UI.Theme)
	}
	return s
}

// String renders the config as TOML with the API key masked.
func (c *Config) String() string {
	clone := *c
	if clone.Endpoint.APIKey != "" {
		clone.Endpoint.APIKey = Mask(clone.Endpoint.APIKey)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&clone); err != nil {
		return "error: " + err.Error()
	}
	return buf.String()
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
