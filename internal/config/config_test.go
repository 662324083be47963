// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"
)

const testToken = "Test-API-token-0123456789abcdef"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

// setRequired clears the environment and sets only the required variables.
func setRequired(t *testing.T) {
	t.Helper()
	os.Clearenv()
	setEnv(t, "OCMS_API_TOKEN", testToken)
	setEnv(t, "OCMS_DEEPL_API_KEY", "deepl-key:fx")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/translate.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/translate.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.DeepLAPIURL != "https://api-free.deepl.com" {
		t.Errorf("DeepLAPIURL = %q", cfg.DeepLAPIURL)
	}
	if cfg.TranslateTimeout != 10*time.Second {
		t.Errorf("TranslateTimeout = %s, want 10s", cfg.TranslateTimeout)
	}
	if cfg.QueueBatchSize != 5 {
		t.Errorf("QueueBatchSize = %d, want 5", cfg.QueueBatchSize)
	}
	if cfg.QueueDelay != 12*time.Second {
		t.Errorf("QueueDelay = %s, want 12s", cfg.QueueDelay)
	}
	if cfg.QueueMaxRetries != 3 {
		t.Errorf("QueueMaxRetries = %d, want 3", cfg.QueueMaxRetries)
	}
	if cfg.QueueSchedule != "*/5 * * * *" {
		t.Errorf("QueueSchedule = %q", cfg.QueueSchedule)
	}
	if cfg.QueueCleanupDays != 30 {
		t.Errorf("QueueCleanupDays = %d, want 30", cfg.QueueCleanupDays)
	}
	if cfg.QueueStaleAfter != 30*time.Minute {
		t.Errorf("QueueStaleAfter = %s, want 30m", cfg.QueueStaleAfter)
	}
	if cfg.UseRedisLock() {
		t.Error("UseRedisLock() = true, want false")
	}
	if cfg.RedisLockKey() != "ocms-translate:queue-run" {
		t.Errorf("RedisLockKey() = %q", cfg.RedisLockKey())
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	setEnv(t, "OCMS_DB_PATH", "/custom/path.db")
	setEnv(t, "OCMS_SERVER_PORT", "3000")
	setEnv(t, "OCMS_ENV", "production")
	setEnv(t, "OCMS_QUEUE_BATCH_SIZE", "10")
	setEnv(t, "OCMS_QUEUE_DELAY", "1s")
	setEnv(t, "OCMS_QUEUE_SCHEDULE", "@every 1m")
	setEnv(t, "OCMS_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "OCMS_REDIS_LOCK_PREFIX", "blog-a:")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 3000)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.QueueBatchSize != 10 {
		t.Errorf("QueueBatchSize = %d, want 10", cfg.QueueBatchSize)
	}
	if cfg.QueueDelay != time.Second {
		t.Errorf("QueueDelay = %s, want 1s", cfg.QueueDelay)
	}
	if !cfg.UseRedisLock() {
		t.Error("UseRedisLock() = false, want true")
	}
	if cfg.RedisLockKey() != "blog-a:queue-run" {
		t.Errorf("RedisLockKey() = %q", cfg.RedisLockKey())
	}
}

func TestLoad_RequiredVariables(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		os.Clearenv()
		setEnv(t, "OCMS_DEEPL_API_KEY", "deepl-key:fx")
		if _, err := Load(); err == nil {
			t.Fatal("Load() should fail when OCMS_API_TOKEN is not set")
		}
	})

	t.Run("missing gateway key", func(t *testing.T) {
		os.Clearenv()
		setEnv(t, "OCMS_API_TOKEN", testToken)
		if _, err := Load(); err == nil {
			t.Fatal("Load() should fail when OCMS_DEEPL_API_KEY is not set")
		}
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"short token", "OCMS_API_TOKEN", "short"},
		{"23 byte token", "OCMS_API_TOKEN", "12345678901234567890123"},
		{"weak token", "OCMS_API_TOKEN", "change-me-to-a-long-random-token"},
		{"zero batch size", "OCMS_QUEUE_BATCH_SIZE", "0"},
		{"negative batch size", "OCMS_QUEUE_BATCH_SIZE", "-1"},
		{"zero retries", "OCMS_QUEUE_MAX_RETRIES", "0"},
		{"negative delay", "OCMS_QUEUE_DELAY", "-1s"},
		{"negative cleanup", "OCMS_QUEUE_CLEANUP_DAYS", "-1"},
		{"zero timeout", "OCMS_TRANSLATE_TIMEOUT", "0s"},
		{"bad duration", "OCMS_QUEUE_DELAY", "soon"},
		{"bad schedule", "OCMS_QUEUE_SCHEDULE", "every five minutes"},
		{"zero rate", "OCMS_API_RATE_LIMIT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			setEnv(t, tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_TokenMinimumLength(t *testing.T) {
	setRequired(t)
	token24 := "123456789012345678901234"
	setEnv(t, "OCMS_API_TOKEN", token24)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should succeed with 24-byte token: %v", err)
	}
	if cfg.APIToken != token24 {
		t.Errorf("APIToken = %q, want %q", cfg.APIToken, token24)
	}
}

func TestConfig_ServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := Config{ServerHost: tt.host, ServerPort: tt.port}
			if got := cfg.ServerAddr(); got != tt.want {
				t.Errorf("ServerAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaAAAAAAAAAAAA", false},
		{"aaaaaaaaAAAAAAAA11111111", true},
		{testToken, true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.s); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
