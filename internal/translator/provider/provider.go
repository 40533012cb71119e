// Package provider defines the uniform contract every translation vendor
// adapter satisfies, plus the request/result types shared by the
// coordinator, router and cache.
package provider

import (
	"context"
	"strings"
	"time"
)

// Priority drives provider routing
type Priority string

const (
	PriorityQuality Priority = "quality"
	PrioritySpeed   Priority = "speed"
	PriorityCost    Priority = "cost"
)

// Options holds the recognized per-request translation options
type Options struct {
	Priority           Priority `json:"priority,omitempty"`
	UseCache           bool     `json:"useCache"`
	ConversationID     string   `json:"conversationId,omitempty"`
	Domain             string   `json:"domain,omitempty"`
	Formality          string   `json:"formality,omitempty"`
	PreserveFormatting bool     `json:"preserveFormatting,omitempty"`
	PreferredService   string   `json:"preferredService,omitempty"`
	RequiresContext    bool     `json:"requiresContext,omitempty"`

	// Context is explicit context text supplied by the caller. The
	// coordinator prepends the conversation transcript when a
	// ConversationID is present.
	Context string `json:"context,omitempty"`

	// Model and Glossary feed the cache fingerprint and the LLM-backed
	// provider's prompt.
	Model    string `json:"model,omitempty"`
	Glossary string `json:"glossary,omitempty"`
}

// DefaultOptions returns the options applied when the caller passes nil
func DefaultOptions() *Options {
	return &Options{
		Priority: PriorityQuality,
		UseCache: true,
		Domain:   "general",
	}
}

// Request represents a single translation request
type Request struct {
	Text       string   `json:"text"`
	SourceLang string   `json:"sourceLanguage"`
	TargetLang string   `json:"targetLanguage"`
	Options    *Options `json:"options,omitempty"`
}

// Result represents the outcome of a translation attempt. Once returned
// by the coordinator it is treated as immutable; the cache stores clones.
type Result struct {
	Success          bool      `json:"success"`
	Translation      string    `json:"translation,omitempty"`
	Confidence       float64   `json:"confidence"`
	Service          string    `json:"service"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	FromLanguage     string    `json:"fromLanguage,omitempty"`
	ToLanguage       string    `json:"toLanguage,omitempty"`
	DetectedLanguage string    `json:"detectedLanguage,omitempty"`
	Alternatives     []string  `json:"alternatives,omitempty"`
	Reasoning        string    `json:"reasoning,omitempty"`
	Cached           bool      `json:"cached"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`

	// Expiry is set on clones held by the cache
	Expiry time.Time `json:"-"`
}

// Failure builds a failed result for the given service
func Failure(service, message string) *Result {
	return &Result{
		Success:   false,
		Service:   service,
		Error:     message,
		Timestamp: time.Now(),
	}
}

// Clone returns a deep copy of the result
func (r *Result) Clone() *Result {
	cp := *r
	if r.Alternatives != nil {
		cp.Alternatives = make([]string, len(r.Alternatives))
		copy(cp.Alternatives, r.Alternatives)
	}
	return &cp
}

// Provider is the uniform interface over one concrete translation vendor
type Provider interface {
	// Name returns the provider name (one of the Type constants)
	Name() string

	// Initialize prepares the provider for use. It must be idempotent.
	Initialize(ctx context.Context) error

	// Translate performs a single translation. SourceLang may be the
	// literal string "auto" to request detection.
	Translate(ctx context.Context, req *Request) (*Result, error)

	// SupportedLanguages returns the language codes the vendor accepts
	SupportedLanguages() []string

	// Destroy releases resources. Safe to call even if never initialized.
	Destroy() error
}

// Type identifies a concrete provider
type Type string

const (
	TypeDeepL  Type = "deepl"
	TypeGoogle Type = "google"
	TypeAzure  Type = "azure"
	TypeGPT4o  Type = "gpt4o"
)

// AllTypes lists every known provider type in default preference order
func AllTypes() []Type {
	return []Type{TypeGPT4o, TypeDeepL, TypeGoogle, TypeAzure}
}

// ParseType converts a free-form service name into a known Type
func ParseType(name string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "deepl":
		return TypeDeepL, true
	case "google":
		return TypeGoogle, true
	case "azure":
		return TypeAzure, true
	case "gpt4o", "gpt-4o", "openai":
		return TypeGPT4o, true
	}
	return "", false
}

// NormalizeLang lowercases and trims a language code. Codes are
// two-letter-plus-optional-region ("en", "pt-br") and compared
// case-insensitively throughout.
func NormalizeLang(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// BaseLang strips the region suffix from a normalized language code
func BaseLang(code string) string {
	code = NormalizeLang(code)
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}
