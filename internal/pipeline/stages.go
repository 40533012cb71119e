package pipeline

import (
	"context"
	"fmt"

	"github.com/voxlate/voxlate/internal/translator/coordinator"
)

// TranscribeStage turns input audio into text. A context without
// audio passes through untouched so text-only requests can share the
// same pipeline.
type TranscribeStage struct {
	transcriber Transcriber
}

// NewTranscribeStage creates the transcription stage
func NewTranscribeStage(t Transcriber) *TranscribeStage {
	return &TranscribeStage{transcriber: t}
}

// SetTranscriber installs the speech-to-text backend. Audio requests
// fail until one is set.
func (s *TranscribeStage) SetTranscriber(t Transcriber) {
	s.transcriber = t
}

func (s *TranscribeStage) Name() string { return "transcribe" }

func (s *TranscribeStage) Execute(ctx context.Context, pctx *Context) error {
	if len(pctx.AudioInput) == 0 {
		return nil
	}
	if s.transcriber == nil {
		return fmt.Errorf("no transcriber configured")
	}

	text, err := s.transcriber.Transcribe(ctx, pctx.AudioInput, pctx.SourceLang)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	pctx.Transcript = text
	return nil
}

// TranslateStage runs the coordinator over the effective text
type TranslateStage struct {
	coordinator *coordinator.Coordinator
}

// NewTranslateStage creates the translation stage
func NewTranslateStage(c *coordinator.Coordinator) *TranslateStage {
	return &TranslateStage{coordinator: c}
}

func (s *TranslateStage) Name() string { return "translate" }

func (s *TranslateStage) Execute(ctx context.Context, pctx *Context) error {
	text := pctx.EffectiveText()
	if text == "" {
		return fmt.Errorf("nothing to translate")
	}

	result := s.coordinator.Translate(ctx, text, pctx.SourceLang, pctx.TargetLang, pctx.Options)
	pctx.Translation = result
	if !result.Success {
		return fmt.Errorf("translation failed: %s", result.Error)
	}
	return nil
}

// SynthesizeStage turns the translation into audio. Skipped when no
// synthesizer is configured.
type SynthesizeStage struct {
	synthesizer Synthesizer
}

// NewSynthesizeStage creates the synthesis stage
func NewSynthesizeStage(s Synthesizer) *SynthesizeStage {
	return &SynthesizeStage{synthesizer: s}
}

// SetSynthesizer installs the text-to-speech backend
func (s *SynthesizeStage) SetSynthesizer(sy Synthesizer) {
	s.synthesizer = sy
}

func (s *SynthesizeStage) Name() string { return "synthesize" }

func (s *SynthesizeStage) Execute(ctx context.Context, pctx *Context) error {
	if s.synthesizer == nil || pctx.Translation == nil {
		return nil
	}

	audio, err := s.synthesizer.Synthesize(ctx, pctx.Translation.Translation, pctx.TargetLang)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}
	pctx.AudioOutput = audio
	return nil
}
