package routing

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// DomainRoute is the static routing entry for one domain: exact
// language-pair overrides plus a domain default
type DomainRoute struct {
	Default string            `yaml:"default"`
	Pairs   map[string]string `yaml:"pairs"`
}

// LoadDomainRoutes reads a domain routing table from a YAML file
func LoadDomainRoutes(path string) (map[string]DomainRoute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain routes: %w", err)
	}

	var routes map[string]DomainRoute
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("failed to parse domain routes: %w", err)
	}
	return routes, nil
}

// OptimizerConfig holds routing heuristics configuration
type OptimizerConfig struct {
	// DefaultProvider is the last-resort provider name
	DefaultProvider string

	// EuropeanLanguages routes intra-European pairs to the
	// European-tuned provider
	EuropeanLanguages []string

	// CulturalLanguages routes to the LLM-backed provider when either
	// side needs cultural adaptation
	CulturalLanguages []string

	// DomainRoutes is the static per-domain routing table
	DomainRoutes map[string]DomainRoute
}

// DefaultOptimizerConfig returns the default routing heuristics
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		DefaultProvider:   string(provider.TypeGoogle),
		EuropeanLanguages: []string{"en", "de", "fr", "es", "it", "nl", "pl", "pt", "ru", "sv", "da", "fi", "cs", "ro", "hu", "bg", "el", "sk", "sl", "et", "lv", "lt"},
		CulturalLanguages: []string{"ja", "zh", "ko", "ar", "th", "vi", "hi"},
	}
}

// static fallback rankings per priority
var priorityRankings = map[provider.Priority][]string{
	provider.PriorityQuality: {"gpt4o", "deepl", "google", "azure"},
	provider.PrioritySpeed:   {"google", "azure", "deepl", "gpt4o"},
	provider.PriorityCost:    {"google", "azure", "deepl", "gpt4o"},
}

// Optimizer picks the provider for a translation request. Selection
// consults the shared State for health and quality history.
type Optimizer struct {
	config     OptimizerConfig
	state      *State
	registered map[string]bool
	european   map[string]bool
	cultural   map[string]bool
	logger     *logging.Logger
}

// NewOptimizer creates an optimizer over the given state and the set
// of registered provider names
func NewOptimizer(config OptimizerConfig, state *State, registered []string) *Optimizer {
	def := DefaultOptimizerConfig()
	if config.DefaultProvider == "" {
		config.DefaultProvider = def.DefaultProvider
	}
	if config.EuropeanLanguages == nil {
		config.EuropeanLanguages = def.EuropeanLanguages
	}
	if config.CulturalLanguages == nil {
		config.CulturalLanguages = def.CulturalLanguages
	}

	o := &Optimizer{
		config:     config,
		state:      state,
		registered: make(map[string]bool, len(registered)),
		european:   langSet(config.EuropeanLanguages),
		cultural:   langSet(config.CulturalLanguages),
		logger:     logging.New("routing-optimizer"),
	}
	for _, name := range registered {
		o.registered[name] = true
	}
	return o
}

// State returns the shared routing state
func (o *Optimizer) State() *State {
	return o.state
}

// SelectProvider picks the provider for one request. Rules are tried
// in order; the first one yielding a healthy registered provider wins.
// The one exception is an explicit PreferredService, which is honored
// even when that provider is marked unavailable so it can be observed
// healthy again.
func (o *Optimizer) SelectProvider(from, to string, opts *provider.Options) string {
	if opts == nil {
		opts = provider.DefaultOptions()
	}
	from = provider.NormalizeLang(from)
	to = provider.NormalizeLang(to)

	// 1. Explicit caller preference. Health is advisory here: honoring
	// the preference optimistically is what lets a provider marked
	// unavailable be observed healthy again.
	if opts.PreferredService != "" {
		if t, ok := provider.ParseType(opts.PreferredService); ok && o.registered[string(t)] {
			return string(t)
		}
	}

	// 2. Context-aware requests go to the LLM-backed provider
	if opts.RequiresContext || opts.Context != "" {
		if o.healthy(string(provider.TypeGPT4o)) {
			return string(provider.TypeGPT4o)
		}
	}

	// 3. Exact-pair quality history, ranked by the requested priority
	if name := o.byQualityHistory(from, to, opts.Priority); name != "" {
		return name
	}

	// 4. Static domain routing table
	if name := o.byDomainRoute(opts.Domain, from, to); name != "" {
		return name
	}

	// 5. Intra-European pairs favor the European-tuned provider
	if o.european[provider.BaseLang(from)] && o.european[provider.BaseLang(to)] {
		if o.healthy(string(provider.TypeDeepL)) {
			return string(provider.TypeDeepL)
		}
	}

	// 6. Languages needing cultural adaptation favor the LLM
	if o.cultural[provider.BaseLang(from)] || o.cultural[provider.BaseLang(to)] {
		if o.healthy(string(provider.TypeGPT4o)) {
			return string(provider.TypeGPT4o)
		}
	}

	// 7. Static priority ranking
	ranking, ok := priorityRankings[opts.Priority]
	if !ok {
		ranking = priorityRankings[provider.PriorityQuality]
	}
	for _, name := range ranking {
		if o.healthy(name) {
			return name
		}
	}

	// 8. Any healthy registered provider, else the fixed default
	for _, t := range provider.AllTypes() {
		if o.healthy(string(t)) {
			return string(t)
		}
	}
	return o.config.DefaultProvider
}

// FallbackOrder builds the candidate list tried after a failed
// attempt. The failed provider and anything marked unavailable are
// excluded. Ordering matches the request shape: short speed-priority
// texts go fastest-first, European pairs lead with the European-tuned
// provider, context-bearing requests lead with the LLM.
func (o *Optimizer) FallbackOrder(text, from, to string, opts *provider.Options, failed string) []string {
	if opts == nil {
		opts = provider.DefaultOptions()
	}
	from = provider.NormalizeLang(from)
	to = provider.NormalizeLang(to)

	var order []string
	switch {
	case opts.Priority == provider.PrioritySpeed && len(text) < 100:
		order = o.fastestFirst()
	case o.european[provider.BaseLang(from)] && o.european[provider.BaseLang(to)]:
		order = []string{"deepl", "gpt4o", "google", "azure"}
	case opts.Context != "" || opts.RequiresContext:
		order = []string{"gpt4o", "deepl", "google", "azure"}
	default:
		order = []string{"gpt4o", "deepl", "google", "azure"}
	}

	var candidates []string
	for _, name := range order {
		if name == failed || !o.healthy(name) {
			continue
		}
		candidates = append(candidates, name)
	}
	return candidates
}

// byQualityHistory applies rule 3: providers holding a quality record
// for the exact pair, ranked by the requested priority
func (o *Optimizer) byQualityHistory(from, to string, priority provider.Priority) string {
	known := o.state.PairProviders(from, to)
	if len(known) == 0 {
		return ""
	}

	switch priority {
	case provider.PrioritySpeed:
		// A zero response time means never observed, not instant
		base := indexMap(priorityRankings[provider.PrioritySpeed])
		sort.Slice(known, func(i, j int) bool {
			ti, tj := o.responseTime(known[i]), o.responseTime(known[j])
			if ti != tj {
				if ti == 0 {
					return false
				}
				if tj == 0 {
					return true
				}
				return ti < tj
			}
			return base[known[i]] < base[known[j]]
		})
	case provider.PriorityCost:
		rank := indexMap(priorityRankings[provider.PriorityCost])
		sort.Slice(known, func(i, j int) bool {
			return rank[known[i]] < rank[known[j]]
		})
	default:
		sort.Slice(known, func(i, j int) bool {
			ri, _ := o.state.QualityScore(known[i], from, to)
			rj, _ := o.state.QualityScore(known[j], from, to)
			return ri.Score > rj.Score
		})
	}

	for _, name := range known {
		if o.healthy(name) {
			return name
		}
	}
	return ""
}

// byDomainRoute applies rule 4: the static domain table, pair entry
// before domain default
func (o *Optimizer) byDomainRoute(domain, from, to string) string {
	route, ok := o.config.DomainRoutes[strings.ToLower(domain)]
	if !ok {
		return ""
	}

	if name, ok := route.Pairs[pairKey(from, to)]; ok && o.healthy(name) {
		return name
	}
	if route.Default != "" && o.healthy(route.Default) {
		return route.Default
	}
	return ""
}

// fastestFirst orders registered providers by observed response time.
// Providers without an observation sort last in static speed order.
func (o *Optimizer) fastestFirst() []string {
	names := make([]string, 0, len(o.registered))
	base := indexMap(priorityRankings[provider.PrioritySpeed])
	for name := range o.registered {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := o.responseTime(names[i]), o.responseTime(names[j])
		if ti != tj {
			if ti == 0 {
				return false
			}
			if tj == 0 {
				return true
			}
			return ti < tj
		}
		return base[names[i]] < base[names[j]]
	})
	return names
}

func (o *Optimizer) responseTime(name string) float64 {
	h, ok := o.state.Health(name)
	if !ok {
		return 0
	}
	return h.ResponseTimeMs
}

// healthy reports whether a provider is registered and not marked
// unavailable
func (o *Optimizer) healthy(name string) bool {
	return o.registered[name] && o.state.IsAvailable(name)
}

func langSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[provider.NormalizeLang(code)] = true
	}
	return set
}

func indexMap(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, name := range names {
		m[name] = i
	}
	return m
}
