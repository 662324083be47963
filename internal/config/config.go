// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// knownWeakTokens contains default/example tokens that must be rejected.
var knownWeakTokens = []string{
	"change-me-to-a-long-random-token",
	"REPLACE_WITH_YOUR_OWN_API_TOKEN",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OCMS_DB_PATH" envDefault:"./data/translate.db"`
	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// API access
	APIToken     string  `env:"OCMS_API_TOKEN,required"`             // Bearer token for the admin API
	APIRateLimit float64 `env:"OCMS_API_RATE_LIMIT" envDefault:"10"` // Requests per second per IP
	APIRateBurst int     `env:"OCMS_API_RATE_BURST" envDefault:"20"` // Burst size per IP

	// Translation gateway
	DeepLAPIKey      string        `env:"OCMS_DEEPL_API_KEY,required"`
	DeepLAPIURL      string        `env:"OCMS_DEEPL_API_URL" envDefault:"https://api-free.deepl.com"`
	TranslateTimeout time.Duration `env:"OCMS_TRANSLATE_TIMEOUT" envDefault:"10s"`

	// Queue processing
	QueueBatchSize   int           `env:"OCMS_QUEUE_BATCH_SIZE" envDefault:"5"`
	QueueDelay       time.Duration `env:"OCMS_QUEUE_DELAY" envDefault:"12s"`
	QueueMaxRetries  int           `env:"OCMS_QUEUE_MAX_RETRIES" envDefault:"3"`
	QueueSchedule    string        `env:"OCMS_QUEUE_SCHEDULE" envDefault:"*/5 * * * *"`
	QueueCleanupDays int           `env:"OCMS_QUEUE_CLEANUP_DAYS" envDefault:"30"` // 0 disables retention cleanup
	QueueStaleAfter  time.Duration `env:"OCMS_QUEUE_STALE_AFTER" envDefault:"30m"`

	// Distributed run lock
	RedisURL        string `env:"OCMS_REDIS_URL"` // Optional; a local lock is used when empty
	RedisLockPrefix string `env:"OCMS_REDIS_LOCK_PREFIX" envDefault:"ocms-translate:"`

	// Seeding configuration
	DoSeed bool `env:"OCMS_DO_SEED" envDefault:"false"` // Enable demo data seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisLock returns true if the distributed run lock is configured.
func (c Config) UseRedisLock() bool {
	return c.RedisURL != ""
}

// RedisLockKey returns the key of the distributed run lock.
func (c Config) RedisLockKey() string {
	return c.RedisLockPrefix + "queue-run"
}

// MinAPITokenLength is the minimum required length for the API token.
const MinAPITokenLength = 24

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy tokens
	if !hasMinimumEntropy(cfg.APIToken) {
		slog.Warn("OCMS_API_TOKEN has low character diversity; " +
			"consider generating a random token with: openssl rand -base64 32")
	}

	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	if len(c.APIToken) < MinAPITokenLength {
		return fmt.Errorf("OCMS_API_TOKEN must be at least %d bytes long, got %d bytes; "+
			"generate a secure token with: openssl rand -base64 32",
			MinAPITokenLength, len(c.APIToken))
	}
	for _, weak := range knownWeakTokens {
		if c.APIToken == weak {
			return errors.New("OCMS_API_TOKEN is a known default value and must not be used; " +
				"generate a secure token with: openssl rand -base64 32")
		}
	}

	if c.QueueBatchSize <= 0 {
		return fmt.Errorf("OCMS_QUEUE_BATCH_SIZE must be positive, got %d", c.QueueBatchSize)
	}
	if c.QueueMaxRetries <= 0 {
		return fmt.Errorf("OCMS_QUEUE_MAX_RETRIES must be positive, got %d", c.QueueMaxRetries)
	}
	if c.QueueDelay < 0 {
		return fmt.Errorf("OCMS_QUEUE_DELAY must not be negative, got %s", c.QueueDelay)
	}
	if c.QueueCleanupDays < 0 {
		return fmt.Errorf("OCMS_QUEUE_CLEANUP_DAYS must not be negative, got %d", c.QueueCleanupDays)
	}
	if c.TranslateTimeout <= 0 {
		return fmt.Errorf("OCMS_TRANSLATE_TIMEOUT must be positive, got %s", c.TranslateTimeout)
	}
	if c.APIRateLimit <= 0 {
		return fmt.Errorf("OCMS_API_RATE_LIMIT must be positive, got %v", c.APIRateLimit)
	}
	if c.APIRateBurst <= 0 {
		return fmt.Errorf("OCMS_API_RATE_BURST must be positive, got %d", c.APIRateBurst)
	}

	if c.QueueSchedule != "" {
		if _, err := cron.ParseStandard(c.QueueSchedule); err != nil {
			return fmt.Errorf("OCMS_QUEUE_SCHEDULE is not a valid cron expression: %w", err)
		}
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
