package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/voxlate/voxlate/pkg/core/logging"
)

// Manager holds the closed set of translation providers, keyed by Type.
// Providers are registered at construction time; lookups never dispatch
// on free-form strings.
type Manager struct {
	providers map[Type]Provider
	logger    *logging.Logger
	mu        sync.RWMutex
	destroyed bool
}

// ManagerConfig holds per-vendor configuration. A vendor with an empty
// API key is simply not registered.
type ManagerConfig struct {
	DeepL  DeepLConfig
	Google GoogleConfig
	Azure  AzureConfig
	GPT4o  GPT4oConfig
}

// NewManager creates a manager with every configured vendor registered
func NewManager(cfg ManagerConfig) (*Manager, error) {
	logger := logging.New("provider-manager")
	m := &Manager{
		providers: make(map[Type]Provider),
		logger:    logger,
	}

	if cfg.DeepL.APIKey != "" {
		p, err := NewDeepLProvider(cfg.DeepL)
		if err != nil {
			logger.Warn("Failed to create DeepL provider", "error", err)
		} else {
			m.providers[TypeDeepL] = p
		}
	}

	if cfg.Google.APIKey != "" {
		p, err := NewGoogleProvider(cfg.Google)
		if err != nil {
			logger.Warn("Failed to create Google provider", "error", err)
		} else {
			m.providers[TypeGoogle] = p
		}
	}

	if cfg.Azure.APIKey != "" {
		p, err := NewAzureProvider(cfg.Azure)
		if err != nil {
			logger.Warn("Failed to create Azure provider", "error", err)
		} else {
			m.providers[TypeAzure] = p
		}
	}

	if cfg.GPT4o.APIKey != "" {
		p, err := NewGPT4oProvider(cfg.GPT4o)
		if err != nil {
			logger.Warn("Failed to create GPT-4o provider", "error", err)
		} else {
			m.providers[TypeGPT4o] = p
		}
	}

	if len(m.providers) == 0 {
		return nil, fmt.Errorf("no translation providers configured")
	}

	logger.Info("Provider manager initialized", "providers", len(m.providers))
	return m, nil
}

// NewManagerWith creates a manager from an explicit provider set.
// Used by tests and by callers that bring their own adapters.
func NewManagerWith(providers ...Provider) (*Manager, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no translation providers configured")
	}

	m := &Manager{
		providers: make(map[Type]Provider, len(providers)),
		logger:    logging.New("provider-manager"),
	}
	for _, p := range providers {
		t, ok := ParseType(p.Name())
		if !ok {
			return nil, fmt.Errorf("unknown provider type: %s", p.Name())
		}
		m.providers[t] = p
	}
	return m, nil
}

// Get returns a provider by type
func (m *Manager) Get(t Type) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[t]
	return p, ok
}

// GetByName returns a provider by its service name
func (m *Manager) GetByName(name string) (Provider, bool) {
	t, ok := ParseType(name)
	if !ok {
		return nil, false
	}
	return m.Get(t)
}

// Names returns registered provider names in default preference order
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for _, t := range AllTypes() {
		if _, ok := m.providers[t]; ok {
			names = append(names, string(t))
		}
	}
	return names
}

// Initialize initializes every registered provider. A provider that
// fails to initialize is logged and removed rather than failing startup.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for t, p := range m.providers {
		if err := p.Initialize(ctx); err != nil {
			m.logger.Warn("Provider initialization failed", "provider", t, "error", err)
			delete(m.providers, t)
		}
	}

	if len(m.providers) == 0 {
		return fmt.Errorf("all providers failed to initialize")
	}
	return nil
}

// SupportedLanguagePairs returns the union of "from-to" pairs across
// all registered providers
func (m *Manager) SupportedLanguagePairs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var pairs []string
	for _, t := range AllTypes() {
		p, ok := m.providers[t]
		if !ok {
			continue
		}
		langs := p.SupportedLanguages()
		for _, from := range langs {
			for _, to := range langs {
				if from == to {
					continue
				}
				pair := from + "-" + to
				if !seen[pair] {
					seen[pair] = true
					pairs = append(pairs, pair)
				}
			}
		}
	}
	return pairs
}

// Destroy tears down every provider. Idempotent.
func (m *Manager) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return nil
	}
	m.destroyed = true

	for t, p := range m.providers {
		if err := p.Destroy(); err != nil {
			m.logger.Warn("Provider destroy failed", "provider", t, "error", err)
		}
	}
	return nil
}
