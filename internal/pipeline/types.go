// Package pipeline provides the staged execution engine for live
// speech translation: transcription, translation, synthesis
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/voxlate/voxlate/internal/translator/provider"
)

// Stage represents a pipeline stage
type Stage interface {
	// Name returns the stage name
	Name() string
	// Execute runs the stage with the given context
	Execute(ctx context.Context, pctx *Context) error
}

// Transcriber converts audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang string) (string, error)
}

// Synthesizer converts text into audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// Context holds the pipeline state during execution
type Context struct {
	// Request data
	RequestID  string
	AudioInput []byte
	Text       string
	SourceLang string
	TargetLang string
	Options    *provider.Options

	// Pipeline state
	Transcript  string
	Translation *provider.Result
	AudioOutput []byte

	// Control. Written by Cancel concurrently with stage execution.
	cancelled atomic.Bool

	// Timing
	StartTime time.Time

	// Internal state
	state map[string]interface{}
}

// NewContext creates a new pipeline context. Text may be pre-filled
// for text-only requests that skip transcription.
func NewContext(requestID, text, sourceLang, targetLang string, opts *provider.Options) *Context {
	if opts == nil {
		opts = provider.DefaultOptions()
	}
	return &Context{
		RequestID:  requestID,
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Options:    opts,
		StartTime:  time.Now(),
		state:      make(map[string]interface{}),
	}
}

// Set stores a value in the context state
func (c *Context) Set(key string, value interface{}) {
	c.state[key] = value
}

// Get retrieves a value from the context state
func (c *Context) Get(key string) (interface{}, bool) {
	val, ok := c.state[key]
	return val, ok
}

// Cancel marks the pipeline for abortion before the next stage
func (c *Context) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether the pipeline was cancelled
func (c *Context) Cancelled() bool {
	return c.cancelled.Load()
}

// ElapsedTime returns the time since the context was created
func (c *Context) ElapsedTime() time.Duration {
	return time.Since(c.StartTime)
}

// EffectiveText returns the text to translate: the transcript when
// audio was transcribed, otherwise the text given at construction
func (c *Context) EffectiveText() string {
	if c.Transcript != "" {
		return c.Transcript
	}
	return c.Text
}
