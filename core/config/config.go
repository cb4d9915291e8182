package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"TELEGRAM_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// MoltinConfig holds the commerce backend endpoint and client credentials.
type MoltinConfig struct {
	BaseURL             string `yaml:"base_url" envconfig:"MOLTIN_BASE_URL"`
	ClientID            string `yaml:"client_id" envconfig:"CLIENT_ID"`
	ClientSecret        string `yaml:"client_secret" envconfig:"CLIENT_SECRET"`
	TokenRefreshSeconds int    `yaml:"token_refresh_seconds" envconfig:"TOKEN_REFRESH_SECONDS"`
	TimeoutSeconds      int    `yaml:"timeout_seconds" envconfig:"MOLTIN_TIMEOUT_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// DatabaseConfig holds the order journal connection settings.
// The journal is disabled when Host is empty.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Enabled reports whether the order journal should be used.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.Host) != ""
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// SequencerConfig bounds per-chat update processing.
type SequencerConfig struct {
	Workers               int `yaml:"workers" envconfig:"SEQUENCER_WORKERS"`
	MaxPending            int `yaml:"max_pending" envconfig:"SEQUENCER_MAX_PENDING"`
	HandlerTimeoutSeconds int `yaml:"handler_timeout_seconds" envconfig:"HANDLER_TIMEOUT_SECONDS"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	// DefaultMoltinBaseURL is the public Moltin API endpoint.
	DefaultMoltinBaseURL = "https://api.moltin.com"
	// DefaultTokenRefreshSeconds matches the lifetime of a client_credentials token.
	DefaultTokenRefreshSeconds = 3600
	defaultMoltinTimeout       = 15
	defaultHandlerTimeout      = 60
)

// RateLimitConfig holds settings for per-user rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages and commands
type RateLimitConfig struct {
	PerSecond      float64  `yaml:"per_second" envconfig:"RATE_LIMIT_PER_SECOND"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the process configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Moltin    MoltinConfig    `yaml:"moltin"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sequencer SequencerConfig `yaml:"sequencer"`
	Database  DatabaseConfig  `yaml:"database"`
}

// CoreConfig satisfies cmd.ConfigCarrier.
func (c *Config) CoreConfig() *Config {
	return c
}

// Load reads an optional .env file, the YAML file at path, and environment overrides.
// A missing YAML file is not an error: every required setting may come from the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(cfg.Moltin.ClientID) == "" {
		return fmt.Errorf("moltin.client_id is required")
	}
	if strings.TrimSpace(cfg.Moltin.ClientSecret) == "" {
		return fmt.Errorf("moltin.client_secret is required")
	}

	if err := normalizeRunMode(cfg); err != nil {
		return err
	}
	if err := normalizeMoltin(&cfg.Moltin); err != nil {
		return err
	}

	if cfg.RateLimit.PerSecond < 0 {
		return fmt.Errorf("rate_limit.per_second must be >= 0")
	}
	if cfg.RateLimit.PerSecond > 0 && cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}
	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if cfg.Database.Enabled() {
		normalizeDatabase(&cfg.Database)
	}

	if cfg.Sequencer.HandlerTimeoutSeconds <= 0 {
		cfg.Sequencer.HandlerTimeoutSeconds = defaultHandlerTimeout
	}
	return nil
}

func normalizeRunMode(cfg *Config) error {
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeMoltin(m *MoltinConfig) error {
	base := strings.TrimRight(strings.TrimSpace(m.BaseURL), "/")
	if base == "" {
		base = DefaultMoltinBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid moltin.base_url %q", m.BaseURL)
	}
	m.BaseURL = base

	if m.TokenRefreshSeconds < 0 {
		return fmt.Errorf("moltin.token_refresh_seconds must be >= 0")
	}
	if m.TokenRefreshSeconds == 0 {
		m.TokenRefreshSeconds = DefaultTokenRefreshSeconds
	}
	if m.TimeoutSeconds <= 0 {
		m.TimeoutSeconds = defaultMoltinTimeout
	}
	return nil
}

func normalizeDatabase(d *DatabaseConfig) {
	if d.Port == "" {
		d.Port = "5432"
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.MaxConnections <= 0 {
		d.MaxConnections = 4
	}
	if d.MigrationsDir == "" {
		d.MigrationsDir = "migrations"
	}
}
