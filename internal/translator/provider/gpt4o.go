package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxlate/voxlate/pkg/core/logging"
)

// GPT4oProvider implements the Provider interface on top of the OpenAI
// chat completions API. It is the context-capable provider: conversation
// transcripts, glossaries and formality hints all feed the prompt, which
// makes it the preferred choice for context-aware requests and for
// languages needing cultural adaptation.
type GPT4oProvider struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	logger       *logging.Logger
	initialized  bool
}

// GPT4oConfig holds GPT-4o provider configuration
type GPT4oConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
}

// DefaultGPT4oConfig returns default GPT-4o configuration
func DefaultGPT4oConfig() GPT4oConfig {
	return GPT4oConfig{
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o",
		Timeout:      15 * time.Second,
	}
}

// NewGPT4oProvider creates a new GPT-4o provider
func NewGPT4oProvider(cfg GPT4oConfig) (*GPT4oProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGPT4oConfig().BaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultGPT4oConfig().DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGPT4oConfig().Timeout
	}

	return &GPT4oProvider{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logging.New("provider-gpt4o"),
	}, nil
}

// Name returns the provider name
func (p *GPT4oProvider) Name() string {
	return string(TypeGPT4o)
}

// Initialize prepares the provider. Idempotent.
func (p *GPT4oProvider) Initialize(ctx context.Context) error {
	if p.initialized {
		return nil
	}
	p.initialized = true
	p.logger.Info("GPT-4o provider initialized", "model", p.defaultModel)
	return nil
}

// OpenAI API types
type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
}

// gptVerdict is the structured reply the prompt requests
type gptVerdict struct {
	Translation  string   `json:"translation"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives"`
	Reasoning    string   `json:"reasoning"`
}

// Translate performs a context-aware translation via chat completions
func (p *GPT4oProvider) Translate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	model := p.defaultModel
	if req.Options != nil && req.Options.Model != "" {
		model = req.Options.Model
	}

	openaiReq := openaiRequest{
		Model: model,
		Messages: []openaiMessage{
			{Role: "system", Content: p.buildSystemPrompt(req)},
			{Role: "user", Content: req.Text},
		},
		Temperature: 0.3,
	}

	body, err := json.Marshal(openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI API error: %s - %s", resp.Status, string(respBody))
	}

	var openaiResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	content := strings.TrimSpace(openaiResp.Choices[0].Message.Content)

	result := &Result{
		Success:          true,
		Service:          p.Name(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		FromLanguage:     NormalizeLang(req.SourceLang),
		ToLanguage:       NormalizeLang(req.TargetLang),
		Timestamp:        time.Now(),
	}

	// The prompt asks for a JSON verdict; a plain-text reply is still a
	// usable translation.
	var verdict gptVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &verdict); err == nil && verdict.Translation != "" {
		result.Translation = verdict.Translation
		result.Confidence = verdict.Confidence
		result.Alternatives = verdict.Alternatives
		result.Reasoning = verdict.Reasoning
		if result.Confidence <= 0 || result.Confidence > 1 {
			result.Confidence = 0.9
		}
	} else {
		result.Translation = content
		result.Confidence = 0.85
	}

	return result, nil
}

// buildSystemPrompt assembles the translation instruction with every
// context signal the request carries
func (p *GPT4oProvider) buildSystemPrompt(req *Request) string {
	var sb strings.Builder

	src := NormalizeLang(req.SourceLang)
	if src == "" || src == "auto" {
		sb.WriteString(fmt.Sprintf("You are a professional translator. Detect the source language and translate the user's text to %s.\n", req.TargetLang))
	} else {
		sb.WriteString(fmt.Sprintf("You are a professional translator. Translate the user's text from %s to %s.\n", src, req.TargetLang))
	}

	if req.Options != nil {
		if req.Options.Domain != "" && req.Options.Domain != "general" {
			sb.WriteString(fmt.Sprintf("Domain: %s. Use domain-appropriate terminology.\n", req.Options.Domain))
		}
		if req.Options.Formality != "" {
			sb.WriteString(fmt.Sprintf("Formality: %s.\n", req.Options.Formality))
		}
		if req.Options.Glossary != "" {
			sb.WriteString("Glossary (respect these term mappings):\n" + req.Options.Glossary + "\n")
		}
		if req.Options.PreserveFormatting {
			sb.WriteString("Preserve the original formatting, line breaks and placeholders.\n")
		}
		if req.Options.Context != "" {
			sb.WriteString("Conversation context for coherence:\n" + req.Options.Context + "\n")
		}
	}

	sb.WriteString(`Respond with a JSON object only:
{"translation": "...", "confidence": 0.0-1.0, "alternatives": ["..."], "reasoning": "one short sentence"}`)

	return sb.String()
}

// stripCodeFence removes a surrounding markdown code fence if present
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Judge asks the model to rate an existing translation. Conversation
// context and domain, when present, inform the rating. The returned
// string is the raw model output; callers parse the JSON verdict.
func (p *GPT4oProvider) Judge(ctx context.Context, original, translated, fromLang, toLang, contextText, domain string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rate this translation from %s to %s.\n",
		NormalizeLang(fromLang), NormalizeLang(toLang))
	if domain != "" && domain != "general" {
		fmt.Fprintf(&sb, "Domain: %s.\n", domain)
	}
	if contextText != "" {
		sb.WriteString("Conversation context the translation was made under:\n" + contextText + "\n")
	}
	fmt.Fprintf(&sb, `Original: %s
Translation: %s
Respond with a JSON object only:
{"accuracy": 0.0-1.0, "fluency": 0.0-1.0, "culturalFit": 0.0-1.0, "issues": ["..."]}`,
		original, translated)
	prompt := sb.String()

	openaiReq := openaiRequest{
		Model: p.defaultModel,
		Messages: []openaiMessage{
			{Role: "system", Content: "You are a strict translation quality evaluator."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   300,
	}

	body, err := json.Marshal(openaiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API error: %s - %s", resp.Status, string(respBody))
	}

	var openaiResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	return openaiResp.Choices[0].Message.Content, nil
}

// SupportedLanguages returns the language codes the model handles well
func (p *GPT4oProvider) SupportedLanguages() []string {
	return []string{
		"ar", "bg", "cs", "da", "de", "el", "en", "es", "fa", "fi",
		"fr", "he", "hi", "hu", "id", "it", "ja", "ko", "nl", "no",
		"pl", "pt", "ro", "ru", "sv", "th", "tr", "uk", "vi", "zh",
	}
}

// Destroy releases resources. Safe to call even if never initialized.
func (p *GPT4oProvider) Destroy() error {
	p.httpClient.CloseIdleConnections()
	p.initialized = false
	return nil
}
