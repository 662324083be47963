// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translate is a thin client over a DeepL-compatible text
// translation HTTP API.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client configuration constants
const (
	DefaultBaseURL  = "https://api-free.deepl.com"
	DefaultTimeout  = 10 * time.Second
	TranslatePath   = "/v2/translate"
	MaxResponseLen  = 8 << 20 // Maximum accepted response body (8MB)
	MaxErrorBodyLen = 1024    // Maximum upstream error body kept in GatewayError
	UserAgent       = "ocms-translate/1.0"
)

// Translator translates a batch of texts between two internal language codes.
// The result has the same length and order as texts.
type Translator interface {
	Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Config holds the client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; overrides Timeout
	Logger     *slog.Logger
}

// Client calls the upstream translation API. It never retries; callers own
// retry policy.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// translateResponse is the upstream JSON response body.
type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// NewClient creates a new translation client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   baseURL + TranslatePath,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Translate implements Translator.
func (c *Client) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	source, err := SourceCode(sourceLang)
	if err != nil {
		return nil, err
	}
	target, err := TargetCode(targetLang)
	if err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		return []string{}, nil
	}

	form := url.Values{}
	for _, text := range texts {
		form.Add("text", text)
	}
	form.Set("source_lang", source)
	form.Set("target_lang", target)
	form.Set("preserve_formatting", "1")
	form.Set("tag_handling", "html")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("translation gateway returned an error",
			"category", "gateway",
			"status_code", resp.StatusCode,
			"source", source,
			"target", target)
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: truncate(string(body), MaxErrorBodyLen)}
	}

	var parsed translateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(parsed.Translations) != len(texts) {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("got %d translations for %d texts", len(parsed.Translations), len(texts)),
		}
	}

	out := make([]string, len(parsed.Translations))
	for i, tr := range parsed.Translations {
		out[i] = tr.Text
	}

	c.logger.Debug("translated batch",
		"texts", len(texts),
		"source", source,
		"target", target,
		"duration", time.Since(start))

	return out, nil
}

// IsGatewayError reports whether err carries a *GatewayError.
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
