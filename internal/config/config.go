// Package config loads bot configuration from a YAML file with
// environment-variable overrides for the deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default values used when neither the file nor the environment sets one.
const (
	DefaultPort        = "8080"
	DefaultPrefix      = "!meet"
	DefaultRepostDelay = Duration(30 * time.Second)
	DefaultMaxListed   = 15
	DefaultCloseEmoji  = "🛑"
	DefaultRepostEmoji = "📌"
	DefaultTimezone    = "America/New_York"
)

// Operator maps a chat user to the Zoom identity meetings are created
// under. Only users listed here may run meeting commands.
type Operator struct {
	ChatID    string `yaml:"chat_id"`
	ZoomOwner string `yaml:"zoom_owner"`
	Email     string `yaml:"email"`
}

// ZoomConfig holds the provider credentials and webhook secret.
type ZoomConfig struct {
	AccountID     string `yaml:"account_id"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url,omitempty"`
	AuthURL       string `yaml:"auth_url,omitempty"`
}

// ChatConfig holds the chat platform connection settings.
type ChatConfig struct {
	Token      string `yaml:"token"`
	APIBaseURL string `yaml:"api_base_url,omitempty"`
	GatewayURL string `yaml:"gateway_url,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
}

// MeetingConfig tunes the meeting lifecycle manager.
type MeetingConfig struct {
	RepostDelay Duration `yaml:"repost_delay,omitempty"`
	MaxListed   int           `yaml:"max_listed,omitempty"`
	CloseEmoji  string        `yaml:"close_emoji,omitempty"`
	RepostEmoji string        `yaml:"repost_emoji,omitempty"`
	Operators   []Operator    `yaml:"operators"`
}

// DailyConfig drives the scheduled community post.
type DailyConfig struct {
	ChannelID string `yaml:"channel_id"`
	Hour      int    `yaml:"hour"`
	Minute    int    `yaml:"minute"`
	Timezone  string `yaml:"timezone,omitempty"`
}

type Config struct {
	Port     string `yaml:"port,omitempty"`
	Env      string `yaml:"env,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`

	DatabaseURL string `yaml:"database_url,omitempty"`
	RedisURL    string `yaml:"redis_url,omitempty"`

	Zoom    ZoomConfig    `yaml:"zoom"`
	Chat    ChatConfig    `yaml:"chat"`
	Meeting MeetingConfig `yaml:"meeting"`
	Daily   DailyConfig   `yaml:"daily"`
}

// Load reads the YAML file at path (skipped when path is empty or the
// file is missing), then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)

	c.Zoom.AccountID = getEnv("ZOOM_ACCOUNT_ID", c.Zoom.AccountID)
	c.Zoom.ClientID = getEnv("ZOOM_CLIENT_ID", c.Zoom.ClientID)
	c.Zoom.ClientSecret = getEnv("ZOOM_CLIENT_SECRET", c.Zoom.ClientSecret)
	c.Zoom.WebhookSecret = getEnv("ZOOM_WEBHOOK_SECRET", c.Zoom.WebhookSecret)

	c.Chat.Token = getEnv("CHAT_TOKEN", c.Chat.Token)
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Chat.Prefix == "" {
		c.Chat.Prefix = DefaultPrefix
	}
	if c.Meeting.RepostDelay == 0 {
		c.Meeting.RepostDelay = DefaultRepostDelay
	}
	if c.Meeting.MaxListed == 0 {
		c.Meeting.MaxListed = DefaultMaxListed
	}
	if c.Meeting.CloseEmoji == "" {
		c.Meeting.CloseEmoji = DefaultCloseEmoji
	}
	if c.Meeting.RepostEmoji == "" {
		c.Meeting.RepostEmoji = DefaultRepostEmoji
	}
	if c.Daily.Timezone == "" {
		c.Daily.Timezone = DefaultTimezone
	}
}

// Validate fails fast on settings the bot cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database_url is required")
	}
	if c.Zoom.AccountID == "" || c.Zoom.ClientID == "" || c.Zoom.ClientSecret == "" {
		return fmt.Errorf("config: zoom account_id, client_id, and client_secret are required")
	}
	if c.Zoom.WebhookSecret == "" {
		return fmt.Errorf("config: zoom webhook_secret is required")
	}
	if c.Chat.Token == "" {
		return fmt.Errorf("config: chat token is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
