package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validYAML() string {
	return `
database_url: postgres://handwave:pw@localhost:5432/handwave
zoom:
  account_id: acct-1
  client_id: cid
  client_secret: cs
  webhook_secret: whs
chat:
  token: chat-token
meeting:
  operators:
    - chat_id: "42"
      zoom_owner: alice@x
      email: alice@x
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML()))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultPrefix, cfg.Chat.Prefix)
	assert.Equal(t, DefaultRepostDelay, cfg.Meeting.RepostDelay)
	assert.Equal(t, DefaultMaxListed, cfg.Meeting.MaxListed)
	assert.Equal(t, DefaultCloseEmoji, cfg.Meeting.CloseEmoji)
	assert.Equal(t, DefaultRepostEmoji, cfg.Meeting.RepostEmoji)
	assert.Equal(t, DefaultTimezone, cfg.Daily.Timezone)
	require.Len(t, cfg.Meeting.Operators, 1)
	assert.Equal(t, "alice@x", cfg.Meeting.Operators[0].ZoomOwner)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ZOOM_CLIENT_SECRET", "env-secret")

	cfg, err := Load(writeConfig(t, validYAML()))
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "env-secret", cfg.Zoom.ClientSecret)
}

func TestLoadFileSettingsSurvive(t *testing.T) {
	yaml := `
database_url: postgres://handwave:pw@localhost:5432/handwave
zoom:
  account_id: acct-1
  client_id: cid
  client_secret: cs
  webhook_secret: whs
chat:
  token: chat-token
meeting:
  repost_delay: 45s
  max_listed: 10
  operators:
    - chat_id: "42"
      zoom_owner: alice@x
`
	cfg, err := Load(writeConfig(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, Duration(45*time.Second), cfg.Meeting.RepostDelay)
	assert.Equal(t, 10, cfg.Meeting.MaxListed)
}

func TestValidateRejectsMissingSecrets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no database", func(c *Config) { c.DatabaseURL = "" }},
		{"no zoom credentials", func(c *Config) { c.Zoom.ClientSecret = "" }},
		{"no webhook secret", func(c *Config) { c.Zoom.WebhookSecret = "" }},
		{"no chat token", func(c *Config) { c.Chat.Token = "" }},
	}

	for _, tc := range tests {
		cfg, err := Load(writeConfig(t, validYAML()))
		require.NoError(t, err, tc.name)
		tc.mutate(cfg)
		assert.Error(t, cfg.Validate(), tc.name)
	}
}

func TestLoadMissingFileUsesEnvOnly(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("ZOOM_ACCOUNT_ID", "a")
	t.Setenv("ZOOM_CLIENT_ID", "b")
	t.Setenv("ZOOM_CLIENT_SECRET", "c")
	t.Setenv("ZOOM_WEBHOOK_SECRET", "d")
	t.Setenv("CHAT_TOKEN", "e")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
}
