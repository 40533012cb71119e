package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxlate/voxlate/pkg/core/logging"
)

// GoogleProvider implements the Provider interface for Google Cloud
// Translation. The general-purpose workhorse with the widest language
// coverage.
type GoogleProvider struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	logger      *logging.Logger
	initialized bool
}

// GoogleConfig holds Google provider configuration
type GoogleConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DefaultGoogleConfig returns default Google configuration
func DefaultGoogleConfig() GoogleConfig {
	return GoogleConfig{
		BaseURL: "https://translation.googleapis.com/language/translate/v2",
		Timeout: 10 * time.Second,
	}
}

// NewGoogleProvider creates a new Google provider
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGoogleConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGoogleConfig().Timeout
	}

	return &GoogleProvider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.New("provider-google"),
	}, nil
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return string(TypeGoogle)
}

// Initialize prepares the provider. Idempotent.
func (p *GoogleProvider) Initialize(ctx context.Context) error {
	if p.initialized {
		return nil
	}
	p.initialized = true
	p.logger.Info("Google provider initialized", "base_url", p.baseURL)
	return nil
}

type googleRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate performs a single translation via the Translation v2 API
func (p *GoogleProvider) Translate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	googleReq := googleRequest{
		Q:      []string{req.Text},
		Target: BaseLang(req.TargetLang),
		Format: "text",
	}
	if src := NormalizeLang(req.SourceLang); src != "" && src != "auto" {
		googleReq.Source = BaseLang(src)
	}

	body, err := json.Marshal(googleReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"?key="+p.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Google API error: %s - %s", resp.Status, string(respBody))
	}

	var googleResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&googleResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(googleResp.Data.Translations) == 0 {
		return nil, fmt.Errorf("Google returned no translations")
	}

	t := googleResp.Data.Translations[0]
	return &Result{
		Success:          true,
		Translation:      t.TranslatedText,
		Confidence:       0.88,
		Service:          p.Name(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		FromLanguage:     NormalizeLang(req.SourceLang),
		ToLanguage:       NormalizeLang(req.TargetLang),
		DetectedLanguage: t.DetectedSourceLanguage,
		Timestamp:        time.Now(),
	}, nil
}

// SupportedLanguages returns the language codes Google accepts
func (p *GoogleProvider) SupportedLanguages() []string {
	return []string{
		"af", "ar", "bg", "bn", "cs", "da", "de", "el", "en", "es",
		"et", "fa", "fi", "fr", "he", "hi", "hu", "id", "it", "ja",
		"ko", "lt", "lv", "ms", "nl", "no", "pl", "pt", "ro", "ru",
		"sk", "sl", "sv", "sw", "th", "tr", "uk", "ur", "vi", "zh",
	}
}

// Destroy releases resources. Safe to call even if never initialized.
func (p *GoogleProvider) Destroy() error {
	p.httpClient.CloseIdleConnections()
	p.initialized = false
	return nil
}
