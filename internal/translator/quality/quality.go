// Package quality scores translation results. Assessment combines
// cheap structural heuristics with an optional LLM judge and always
// yields a usable score, falling back to a neutral verdict when the
// judge misbehaves.
package quality

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/voxlate/voxlate/pkg/core/logging"
)

// Sample is one translation to score together with the signals that
// inform the judge: the producing service, the conversation context
// the translation was made under, and the domain.
type Sample struct {
	Original   string
	Translated string
	FromLang   string
	ToLang     string
	Service    string
	Context    string
	Domain     string
}

// JudgeFunc asks an external model to rate a translation. It returns
// the raw model output, expected to contain a JSON verdict.
type JudgeFunc func(ctx context.Context, s Sample) (string, error)

// Config holds assessor configuration
type Config struct {
	// Dimension weights. Must be positive; they are normalized at
	// construction.
	AccuracyWeight float64
	FluencyWeight  float64
	CulturalWeight float64

	// Threshold is the minimum score considered acceptable
	Threshold float64

	// Judge, when set, augments the heuristics with a model verdict
	Judge JudgeFunc
}

// DefaultConfig returns the default assessment weights
func DefaultConfig() Config {
	return Config{
		AccuracyWeight: 0.5,
		FluencyWeight:  0.3,
		CulturalWeight: 0.2,
		Threshold:      0.8,
	}
}

// Assessment is the outcome of scoring one translation
type Assessment struct {
	Score          float64  `json:"score"`
	Accuracy       float64  `json:"accuracy"`
	Fluency        float64  `json:"fluency"`
	CulturalFit    float64  `json:"culturalFit"`
	Confidence     string   `json:"confidence"`
	Acceptable     bool     `json:"acceptable"`
	EvaluationMode string   `json:"evaluationMode"`
	Issues         []string `json:"issues,omitempty"`
}

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Evaluation modes: heuristics only, or heuristics plus model judge
const (
	ModeBasic    = "basic"
	ModeEnhanced = "enhanced"
)

// Assessor scores translations
type Assessor struct {
	config Config
	logger *logging.Logger
}

// New creates an assessor. Nil-safe weights fall back to defaults.
func New(config Config) *Assessor {
	def := DefaultConfig()
	if config.AccuracyWeight <= 0 {
		config.AccuracyWeight = def.AccuracyWeight
	}
	if config.FluencyWeight <= 0 {
		config.FluencyWeight = def.FluencyWeight
	}
	if config.CulturalWeight <= 0 {
		config.CulturalWeight = def.CulturalWeight
	}
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}

	sum := config.AccuracyWeight + config.FluencyWeight + config.CulturalWeight
	config.AccuracyWeight /= sum
	config.FluencyWeight /= sum
	config.CulturalWeight /= sum

	return &Assessor{
		config: config,
		logger: logging.New("quality-assessor"),
	}
}

// Assess scores a translation. It never panics and never fails; any
// internal error degrades to a neutral medium-confidence verdict.
func (a *Assessor) Assess(ctx context.Context, s Sample) (result Assessment) {
	mode := ModeBasic
	if a.config.Judge != nil {
		mode = ModeEnhanced
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Assessment panicked", "panic", r)
			result = neutralAssessment(0.7, mode)
			result.Acceptable = result.Score >= a.config.Threshold
		}
	}()

	acc, flu, cult, issues := a.heuristics(s.Original, s.Translated)

	if a.config.Judge != nil {
		if v, ok := a.judge(ctx, s); ok {
			acc, flu, cult = v.Accuracy, v.Fluency, v.CulturalFit
			issues = append(issues, v.Issues...)
		} else {
			// Judge output was unusable; keep a neutral verdict
			acc, flu, cult = 0.75, 0.75, 0.75
		}
	}

	score := clamp01(acc*a.config.AccuracyWeight + flu*a.config.FluencyWeight + cult*a.config.CulturalWeight)

	return Assessment{
		Score:          score,
		Accuracy:       clamp01(acc),
		Fluency:        clamp01(flu),
		CulturalFit:    clamp01(cult),
		Confidence:     confidenceFor(score),
		Acceptable:     score >= a.config.Threshold,
		EvaluationMode: mode,
		Issues:         issues,
	}
}

// Threshold returns the configured acceptance threshold
func (a *Assessor) Threshold() float64 {
	return a.config.Threshold
}

// heuristics performs structural checks that need no model call
func (a *Assessor) heuristics(original, translated string) (acc, flu, cult float64, issues []string) {
	acc, flu, cult = 0.85, 0.8, 0.8

	if strings.TrimSpace(translated) == "" {
		return 0, 0, 0, []string{"empty translation"}
	}

	origLen := len([]rune(original))
	transLen := len([]rune(translated))
	if origLen > 0 {
		ratio := float64(transLen) / float64(origLen)
		if ratio < 0.5 || ratio > 2.0 {
			acc -= 0.2
			issues = append(issues, "suspicious length ratio")
		}
	}

	if containsControl(translated) {
		flu -= 0.15
		issues = append(issues, "contains control characters")
	}

	if hasRepeatedRun(translated, 5) {
		flu -= 0.15
		issues = append(issues, "repeated character run")
	}

	return acc, flu, cult, issues
}

type verdict struct {
	Accuracy    float64  `json:"accuracy"`
	Fluency     float64  `json:"fluency"`
	CulturalFit float64  `json:"culturalFit"`
	Issues      []string `json:"issues"`
}

// judge calls the configured model and parses its verdict. The second
// return value is false when the call failed or the output was not
// parseable.
func (a *Assessor) judge(ctx context.Context, s Sample) (verdict, bool) {
	raw, err := a.config.Judge(ctx, s)
	if err != nil {
		a.logger.Warn("Quality judge call failed", "error", err)
		return verdict{}, false
	}

	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '{'); i >= 0 {
		if j := strings.LastIndexByte(raw, '}'); j > i {
			raw = raw[i : j+1]
		}
	}

	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		a.logger.Warn("Quality judge returned unparseable verdict", "error", err)
		return verdict{}, false
	}

	v.Accuracy = clamp01(v.Accuracy)
	v.Fluency = clamp01(v.Fluency)
	v.CulturalFit = clamp01(v.CulturalFit)
	return v, true
}

func neutralAssessment(score float64, mode string) Assessment {
	return Assessment{
		Score:          score,
		Accuracy:       score,
		Fluency:        score,
		CulturalFit:    score,
		Confidence:     confidenceFor(score),
		EvaluationMode: mode,
	}
}

func confidenceFor(score float64) string {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func containsControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return true
		}
	}
	return false
}

func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
