package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voxlate/voxlate/pkg/core/logging"
)

// DeepLProvider implements the Provider interface for DeepL. DeepL is
// the European-tuned provider: strongest on intra-European pairs.
type DeepLProvider struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	logger      *logging.Logger
	initialized bool
}

// DeepLConfig holds DeepL provider configuration
type DeepLConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DefaultDeepLConfig returns default DeepL configuration
func DefaultDeepLConfig() DeepLConfig {
	return DeepLConfig{
		BaseURL: "https://api-free.deepl.com/v2",
		Timeout: 10 * time.Second,
	}
}

// NewDeepLProvider creates a new DeepL provider
func NewDeepLProvider(cfg DeepLConfig) (*DeepLProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("DeepL API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDeepLConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultDeepLConfig().Timeout
	}

	return &DeepLProvider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.New("provider-deepl"),
	}, nil
}

// Name returns the provider name
func (p *DeepLProvider) Name() string {
	return string(TypeDeepL)
}

// Initialize prepares the provider. Idempotent.
func (p *DeepLProvider) Initialize(ctx context.Context) error {
	if p.initialized {
		return nil
	}
	p.initialized = true
	p.logger.Info("DeepL provider initialized", "base_url", p.baseURL)
	return nil
}

type deeplTranslation struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

type deeplResponse struct {
	Translations []deeplTranslation `json:"translations"`
}

// Translate performs a single translation via the DeepL REST API
func (p *DeepLProvider) Translate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	form := url.Values{}
	form.Set("text", req.Text)
	form.Set("target_lang", strings.ToUpper(NormalizeLang(req.TargetLang)))
	if src := NormalizeLang(req.SourceLang); src != "" && src != "auto" {
		form.Set("source_lang", strings.ToUpper(BaseLang(src)))
	}
	if req.Options != nil {
		if req.Options.Formality != "" {
			form.Set("formality", req.Options.Formality)
		}
		if req.Options.PreserveFormatting {
			form.Set("preserve_formatting", "1")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("DeepL API error: %s - %s", resp.Status, string(body))
	}

	var deeplResp deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&deeplResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(deeplResp.Translations) == 0 {
		return nil, fmt.Errorf("DeepL returned no translations")
	}

	t := deeplResp.Translations[0]
	return &Result{
		Success:          true,
		Translation:      t.Text,
		Confidence:       0.92,
		Service:          p.Name(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		FromLanguage:     NormalizeLang(req.SourceLang),
		ToLanguage:       NormalizeLang(req.TargetLang),
		DetectedLanguage: strings.ToLower(t.DetectedSourceLanguage),
		Timestamp:        time.Now(),
	}, nil
}

// SupportedLanguages returns the language codes DeepL accepts
func (p *DeepLProvider) SupportedLanguages() []string {
	return []string{
		"bg", "cs", "da", "de", "el", "en", "es", "et", "fi", "fr",
		"hu", "id", "it", "ja", "ko", "lt", "lv", "nb", "nl", "pl",
		"pt", "ro", "ru", "sk", "sl", "sv", "tr", "uk", "zh",
	}
}

// Destroy releases resources. Safe to call even if never initialized.
func (p *DeepLProvider) Destroy() error {
	p.httpClient.CloseIdleConnections()
	p.initialized = false
	return nil
}
