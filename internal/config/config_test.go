// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Chat.Cooldown.Duration)
	assert.Equal(t, 200, cfg.Chat.MaxMessages)
	assert.Equal(t, 12, cfg.Chat.ContextWindow)
	assert.Equal(t, 3, cfg.Chat.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Chat.RetryBaseDelay.Duration)
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Chat, cfg.Chat)
}

func TestLoadFromPath_PartialFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
[storage]
backend = "sqlite"

[chat]
cooldown = "2s"
reveal_delay = "0s"
max_retries = 0

[endpoint]
url = "https://example.com/v1/chat"
temperature = 0.2
`)
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 2*time.Second, cfg.Chat.Cooldown.Duration)
	assert.Zero(t, cfg.Chat.RevealDelay.Duration)
	assert.Zero(t, cfg.Chat.MaxRetries, "explicit zero retries is kept")
	assert.Equal(t, 0.2, cfg.Endpoint.Temperature)
	assert.Equal(t, 200, cfg.Chat.MaxMessages, "unset keys keep defaults")
	assert.Equal(t, model.DefaultSystemPrompt, cfg.Endpoint.SystemPrompt)
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	path := writeFile(t, "config.toml", "[chat]\ncooldwn = \"1s\"\n")
	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.cooldwn")
}

func TestLoadFromPath_BadDuration(t *testing.T) {
	path := writeFile(t, "config.toml", "[chat]\ncooldown = \"soon\"\n")
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("RIGCHAT_API_URL", "https://env.example.com/chat")
	t.Setenv("RIGCHAT_API_KEY", "sk-env")
	t.Setenv("RIGCHAT_MODEL", "gpt-4o-mini")
	t.Setenv("RIGCHAT_STORAGE", "MEMORY")
	t.Setenv("RIGCHAT_THEME", "light")
	t.Setenv("RIGCHAT_METRICS_ADDR", ":9999")
	t.Setenv("RIGCHAT_COOLDOWN", "250ms")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/chat", cfg.Endpoint.URL)
	assert.Equal(t, "sk-env", cfg.Endpoint.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Endpoint.Model)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.Cooldown.Duration)
}

func TestApplyEnvOverrides_BadCooldown(t *testing.T) {
	t.Setenv("RIGCHAT_COOLDOWN", "fast")
	assert.Error(t, Default().ApplyEnvOverrides())
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := writeFile(t, ".env", "RIGCHAT_TEST_DOTENV_A=from-file\nRIGCHAT_TEST_DOTENV_B=from-file\n")
	t.Setenv("RIGCHAT_TEST_DOTENV_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("RIGCHAT_TEST_DOTENV_B") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-env", os.Getenv("RIGCHAT_TEST_DOTENV_A"))
	assert.Equal(t, "from-file", os.Getenv("RIGCHAT_TEST_DOTENV_B"))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "s3"
	cfg.Endpoint.URL = "ftp://example.com"
	cfg.Endpoint.Temperature = 1.5
	cfg.Chat.MaxRetries = -1
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 5)
	for _, field := range []string{"storage.backend", "endpoint.url", "endpoint.temperature", "chat.max_retries", "ui.theme"} {
		assert.True(t, verrs.Has(field), field)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Chat.Cooldown = D(3 * time.Second)
	cfg.Endpoint.APIKey = "sk-secret"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, loaded.Chat.Cooldown.Duration)
	assert.Equal(t, "sk-secret", loaded.Endpoint.APIKey)
}

func TestDefaultSettings(t *testing.T) {
	cfg := Default()
	cfg.Endpoint.URL = "https://example.com"
	cfg.Endpoint.Model = "m"

	s := cfg.DefaultSettings(model.ThemeLight)
	assert.Equal(t, "https://example.com", s.EndpointURL)
	assert.Equal(t, "m", s.Model)
	assert.Equal(t, model.ThemeLight, s.Theme, "auto resolves to the detected theme")

	cfg.UI.Theme = "dark"
	assert.Equal(t, model.ThemeDark, cfg.DefaultSettings(model.ThemeLight).Theme)
}

func TestString_MasksKey(t *testing.T) {
	cfg := Default()
	cfg.Endpoint.APIKey = "sk-abcdef123456"
	out := cfg.String()
	assert.NotContains(t, out, "sk-abcdef123456")
	assert.Contains(t, out, "****3456")
	assert.Equal(t, "sk-abcdef123456", cfg.Endpoint.APIKey)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.rigchat")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rigchat"), got)

	got, err = ExpandHome("/var/lib/rigchat")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rigchat", got)
}
