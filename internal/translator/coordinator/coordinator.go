// Package coordinator is the public entry point for translation. It
// orchestrates cache lookup, route selection, the provider attempt and
// its fallback chain, quality scoring, context tracking and history,
// emitting lifecycle events along the way. Translate never returns an
// error; the Success flag on the result communicates failure.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voxlate/voxlate/internal/translator/cache"
	"github.com/voxlate/voxlate/internal/translator/contextstore"
	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/internal/translator/quality"
	"github.com/voxlate/voxlate/internal/translator/routing"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// ErrAllServicesFailed is the terminal error message when the primary
// attempt and every fallback failed
const ErrAllServicesFailed = "All translation services failed"

// Config holds coordinator configuration
type Config struct {
	// QualityThreshold is the minimum assessed score for a result to
	// be cached
	QualityThreshold float64

	// CacheTTL is the lifetime of cached results
	CacheTTL time.Duration

	// AttemptTimeout bounds every single provider call
	AttemptTimeout time.Duration

	// HistorySize bounds the in-memory translation history ring
	HistorySize int

	// BatchSize is the chunk size for batch translation
	BatchSize int

	// BatchDelay is the pause between batch chunks
	BatchDelay time.Duration
}

// DefaultConfig returns sensible coordinator defaults
func DefaultConfig() Config {
	return Config{
		QualityThreshold: 0.8,
		CacheTTL:         time.Hour,
		AttemptTimeout:   10 * time.Second,
		HistorySize:      100,
		BatchSize:        10,
		BatchDelay:       100 * time.Millisecond,
	}
}

// Dependencies are the collaborators the coordinator orchestrates.
// Cache may be nil to disable caching.
type Dependencies struct {
	Providers *provider.Manager
	Optimizer *routing.Optimizer
	State     *routing.State
	Cache     *cache.Cache
	Contexts  *contextstore.Store
	Assessor  *quality.Assessor
}

// Coordinator orchestrates translation requests
type Coordinator struct {
	config    Config
	providers *provider.Manager
	optimizer *routing.Optimizer
	state     *routing.State
	cache     *cache.Cache
	contexts  *contextstore.Store
	assessor  *quality.Assessor
	events    *EventBus
	logger    *logging.Logger

	history   []*provider.Result
	historyMu sync.Mutex

	destroyOnce sync.Once
}

// New creates a coordinator
func New(config Config, deps Dependencies) (*Coordinator, error) {
	if deps.Providers == nil {
		return nil, fmt.Errorf("provider manager is required")
	}
	if deps.Optimizer == nil || deps.State == nil {
		return nil, fmt.Errorf("routing optimizer and state are required")
	}
	if deps.Contexts == nil {
		return nil, fmt.Errorf("context store is required")
	}
	if deps.Assessor == nil {
		return nil, fmt.Errorf("quality assessor is required")
	}

	def := DefaultConfig()
	if config.QualityThreshold <= 0 {
		config.QualityThreshold = def.QualityThreshold
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = def.CacheTTL
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = def.AttemptTimeout
	}
	if config.HistorySize <= 0 {
		config.HistorySize = def.HistorySize
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.BatchDelay <= 0 {
		config.BatchDelay = def.BatchDelay
	}

	return &Coordinator{
		config:    config,
		providers: deps.Providers,
		optimizer: deps.Optimizer,
		state:     deps.State,
		cache:     deps.Cache,
		contexts:  deps.Contexts,
		assessor:  deps.Assessor,
		events:    NewEventBus(),
		logger:    logging.New("translation-coordinator"),
	}, nil
}

// Events returns the coordinator's event bus for subscription
func (c *Coordinator) Events() *EventBus {
	return c.events
}

// Initialize prepares every provider for use
func (c *Coordinator) Initialize(ctx context.Context) error {
	return c.providers.Initialize(ctx)
}

// Translate runs one translation request end to end. It never
// returns an error; failures are communicated through the result.
func (c *Coordinator) Translate(ctx context.Context, text, from, to string, opts *provider.Options) *provider.Result {
	if strings.TrimSpace(text) == "" {
		return provider.Failure("", "text must not be empty")
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return provider.Failure("", "source and target language are required")
	}

	if opts == nil {
		opts = provider.DefaultOptions()
	}
	from = provider.NormalizeLang(from)
	to = provider.NormalizeLang(to)

	// Cache hit short-circuits the whole flow with no side effects
	if opts.UseCache && c.cache != nil {
		service := opts.PreferredService
		if service == "" {
			service = cache.AnyService
		}
		if res, ok := c.cache.Get(text, from, to, service, opts); ok {
			c.events.Publish(Event{Type: EventTranslationComplete, Service: res.Service, Result: res})
			return res
		}
	}

	effOpts := c.resolveContext(opts)

	primary := c.optimizer.SelectProvider(from, to, effOpts)
	req := &provider.Request{Text: text, SourceLang: from, TargetLang: to, Options: effOpts}

	result := c.attempt(ctx, primary, req)
	if !result.Success {
		for _, name := range c.optimizer.FallbackOrder(text, from, to, effOpts, primary) {
			result = c.attempt(ctx, name, req)
			if result.Success {
				break
			}
		}
	}

	if !result.Success {
		failure := provider.Failure(result.Service, ErrAllServicesFailed)
		// The event keeps the last attempt's error; the result carries
		// the uniform message
		lastErr := result.Error
		if lastErr == "" {
			lastErr = ErrAllServicesFailed
		}
		c.events.Publish(Event{Type: EventTranslationError, Service: result.Service, Result: failure, Error: lastErr})
		return failure
	}

	c.finishSuccess(ctx, text, from, to, opts, effOpts, result)
	return result
}

// resolveContext merges the conversation transcript with any explicit
// context text into a copy of the options
func (c *Coordinator) resolveContext(opts *provider.Options) *provider.Options {
	if opts.ConversationID == "" {
		return opts
	}

	transcript := c.contexts.Context(opts.ConversationID)
	if transcript == "" {
		return opts
	}

	eff := *opts
	if eff.Context != "" {
		eff.Context = transcript + "\n" + eff.Context
	} else {
		eff.Context = transcript
	}
	return &eff
}

// attempt calls one provider with a bounded timeout, converts any
// panic or error into a structured failure, and folds the observation
// into routing health
func (c *Coordinator) attempt(ctx context.Context, name string, req *provider.Request) (result *provider.Result) {
	p, ok := c.providers.GetByName(name)
	if !ok {
		return provider.Failure(name, "provider not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Provider panicked", "provider", name, "panic", r)
			result = provider.Failure(name, fmt.Sprintf("provider panic: %v", r))
			c.recordHealth(name, routing.HealthUpdate{Error: result.Error})
		}
	}()

	actx, cancel := context.WithTimeout(ctx, c.config.AttemptTimeout)
	defer cancel()

	start := time.Now()
	res, err := p.Translate(actx, req)
	elapsed := float64(time.Since(start).Milliseconds())

	if err != nil {
		c.logger.Warn("Translation attempt failed", "provider", name, "error", err)
		c.recordHealth(name, routing.HealthUpdate{Error: err.Error()})
		return provider.Failure(name, err.Error())
	}
	if res == nil || !res.Success {
		msg := "provider returned no result"
		if res != nil && res.Error != "" {
			msg = res.Error
		}
		c.recordHealth(name, routing.HealthUpdate{Error: msg})
		return provider.Failure(name, msg)
	}

	up := true
	c.recordHealth(name, routing.HealthUpdate{Available: &up, ResponseTimeMs: &elapsed})

	if res.ProcessingTimeMs == 0 {
		res.ProcessingTimeMs = int64(elapsed)
	}
	if res.Service == "" {
		res.Service = name
	}
	if res.FromLanguage == "" {
		res.FromLanguage = req.SourceLang
	}
	if res.ToLanguage == "" {
		res.ToLanguage = req.TargetLang
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now()
	}
	return res
}

// recordHealth merges an observation and publishes a health-changed
// event when availability flipped
func (c *Coordinator) recordHealth(name string, update routing.HealthUpdate) {
	h, changed := c.state.UpdateServiceHealth(name, update)
	if changed {
		c.events.Publish(Event{Type: EventHealthChanged, Service: name, Health: &h})
	}
}

// finishSuccess runs the post-translation side effects: quality
// scoring, cache write, context append, quality feedback and history.
// None of them may fail the translation. The effective options carry
// the resolved conversation context for the assessor.
func (c *Coordinator) finishSuccess(ctx context.Context, text, from, to string, opts, eff *provider.Options, result *provider.Result) {
	assessment := c.assessor.Assess(ctx, quality.Sample{
		Original:   text,
		Translated: result.Translation,
		FromLang:   from,
		ToLang:     to,
		Service:    result.Service,
		Context:    eff.Context,
		Domain:     eff.Domain,
	})

	if opts.UseCache && c.cache != nil && assessment.Score >= c.config.QualityThreshold {
		c.cache.Set(text, from, to, result.Service, opts, result, c.config.CacheTTL)
	}

	if opts.ConversationID != "" {
		c.contexts.AddEntry(opts.ConversationID, contextstore.Entry{
			Original:   text,
			Translated: result.Translation,
			FromLang:   from,
			ToLang:     to,
			Timestamp:  result.Timestamp,
		})
	}

	c.state.UpdateQualityScore(result.Service, from, to, assessment.Score)
	c.appendHistory(result)
	c.events.Publish(Event{Type: EventTranslationComplete, Service: result.Service, Result: result})
}

func (c *Coordinator) appendHistory(result *provider.Result) {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	c.history = append(c.history, result)
	if len(c.history) > c.config.HistorySize {
		c.history = c.history[len(c.history)-c.config.HistorySize:]
	}
}

// TranslateBatch translates a slice of texts in fixed-size chunks
// with a short pause between chunks. Results are positionally aligned
// with the input.
func (c *Coordinator) TranslateBatch(ctx context.Context, texts []string, from, to string, opts *provider.Options) []*provider.Result {
	results := make([]*provider.Result, len(texts))

	for start := 0; start < len(texts); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = c.Translate(ctx, texts[i], from, to, opts)
			}(i)
		}
		wg.Wait()

		if end < len(texts) {
			select {
			case <-time.After(c.config.BatchDelay):
			case <-ctx.Done():
				for i := end; i < len(texts); i++ {
					results[i] = provider.Failure("", ctx.Err().Error())
				}
				return results
			}
		}
	}
	return results
}

// ServiceStatus is the GetServiceStatus payload
type ServiceStatus struct {
	Providers     []string                         `json:"providers"`
	Health        map[string]routing.ServiceHealth `json:"health"`
	Quality       map[string]map[string]float64    `json:"quality"`
	Cache         *cache.Stats                     `json:"cache,omitempty"`
	Conversations int                              `json:"conversations"`
	HistorySize   int                              `json:"historySize"`
}

// GetServiceStatus reports provider health, quality history, cache
// effectiveness and live conversation count
func (c *Coordinator) GetServiceStatus() ServiceStatus {
	status := ServiceStatus{
		Providers:     c.providers.Names(),
		Health:        c.state.HealthSnapshot(),
		Quality:       c.state.QualityMatrix(),
		Conversations: c.contexts.Len(),
	}
	if c.cache != nil {
		stats := c.cache.Stats()
		status.Cache = &stats
	}

	c.historyMu.Lock()
	status.HistorySize = len(c.history)
	c.historyMu.Unlock()
	return status
}

// GetSupportedLanguagePairs returns every "from-to" pair some
// registered provider supports
func (c *Coordinator) GetSupportedLanguagePairs() []string {
	return c.providers.SupportedLanguagePairs()
}

// GetTranslationHistory returns up to limit most recent results,
// newest first. A non-positive limit returns the full ring.
func (c *Coordinator) GetTranslationHistory(limit int) []*provider.Result {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	n := len(c.history)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*provider.Result, limit)
	for i := 0; i < limit; i++ {
		out[i] = c.history[n-1-i]
	}
	return out
}

// CreateConversation starts a conversation for context-aware
// translation and returns its ID
func (c *Coordinator) CreateConversation(from, to, domain string) string {
	return c.contexts.CreateConversation(from, to, domain)
}

// ClearContext removes one conversation, or all when id is empty
func (c *Coordinator) ClearContext(id string) {
	c.contexts.Clear(id)
}

// Destroy tears down every owned component. Idempotent.
func (c *Coordinator) Destroy() error {
	c.destroyOnce.Do(func() {
		if err := c.providers.Destroy(); err != nil {
			c.logger.Warn("Provider teardown failed", "error", err)
		}
		if c.cache != nil {
			c.cache.Stop()
		}
		c.contexts.Stop()
		c.state.Stop()
		c.logger.Info("Coordinator destroyed")
	})
	return nil
}
