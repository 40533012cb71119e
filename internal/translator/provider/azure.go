package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/voxlate/voxlate/pkg/core/logging"
)

// AzureProvider implements the Provider interface for the Azure
// Translator service. The cost-effective fallback option.
type AzureProvider struct {
	apiKey      string
	region      string
	baseURL     string
	httpClient  *http.Client
	logger      *logging.Logger
	initialized bool
}

// AzureConfig holds Azure provider configuration
type AzureConfig struct {
	APIKey  string
	Region  string
	BaseURL string
	Timeout time.Duration
}

// DefaultAzureConfig returns default Azure configuration
func DefaultAzureConfig() AzureConfig {
	return AzureConfig{
		Region:  "westeurope",
		BaseURL: "https://api.cognitive.microsofttranslator.com",
		Timeout: 10 * time.Second,
	}
}

// NewAzureProvider creates a new Azure provider
func NewAzureProvider(cfg AzureConfig) (*AzureProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Azure API key is required")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultAzureConfig().Region
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAzureConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultAzureConfig().Timeout
	}

	return &AzureProvider{
		apiKey:     cfg.APIKey,
		region:     cfg.Region,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.New("provider-azure"),
	}, nil
}

// Name returns the provider name
func (p *AzureProvider) Name() string {
	return string(TypeAzure)
}

// Initialize prepares the provider. Idempotent.
func (p *AzureProvider) Initialize(ctx context.Context) error {
	if p.initialized {
		return nil
	}
	p.initialized = true
	p.logger.Info("Azure provider initialized", "region", p.region)
	return nil
}

type azureTextInput struct {
	Text string `json:"Text"`
}

type azureTranslation struct {
	Text string `json:"text"`
	To   string `json:"to"`
}

type azureResult struct {
	DetectedLanguage struct {
		Language string  `json:"language"`
		Score    float64 `json:"score"`
	} `json:"detectedLanguage"`
	Translations []azureTranslation `json:"translations"`
}

// Translate performs a single translation via the Translator v3 API
func (p *AzureProvider) Translate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("api-version", "3.0")
	params.Set("to", BaseLang(req.TargetLang))
	if src := NormalizeLang(req.SourceLang); src != "" && src != "auto" {
		params.Set("from", BaseLang(src))
	}

	body, err := json.Marshal([]azureTextInput{{Text: req.Text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/translate?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)
	httpReq.Header.Set("Ocp-Apim-Subscription-Region", p.region)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Azure API error: %s - %s", resp.Status, string(respBody))
	}

	var azureResp []azureResult
	if err := json.NewDecoder(resp.Body).Decode(&azureResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(azureResp) == 0 || len(azureResp[0].Translations) == 0 {
		return nil, fmt.Errorf("Azure returned no translations")
	}

	first := azureResp[0]
	confidence := 0.85
	if first.DetectedLanguage.Score > 0 {
		confidence = first.DetectedLanguage.Score
	}

	return &Result{
		Success:          true,
		Translation:      first.Translations[0].Text,
		Confidence:       confidence,
		Service:          p.Name(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		FromLanguage:     NormalizeLang(req.SourceLang),
		ToLanguage:       NormalizeLang(req.TargetLang),
		DetectedLanguage: first.DetectedLanguage.Language,
		Timestamp:        time.Now(),
	}, nil
}

// SupportedLanguages returns the language codes Azure accepts
func (p *AzureProvider) SupportedLanguages() []string {
	return []string{
		"af", "ar", "bg", "bn", "cs", "da", "de", "el", "en", "es",
		"et", "fa", "fi", "fr", "he", "hi", "hu", "id", "it", "ja",
		"ko", "lt", "lv", "ms", "nl", "no", "pl", "pt", "ro", "ru",
		"sk", "sl", "sv", "th", "tr", "uk", "vi", "zh",
	}
}

// Destroy releases resources. Safe to call even if never initialized.
func (p *AzureProvider) Destroy() error {
	p.httpClient.CloseIdleConnections()
	p.initialized = false
	return nil
}
