// Package cache implements the two-tier TTL cache for translation
// results. Frequently re-requested entries are promoted into a smaller
// priority tier with a longer lifetime.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// hashThreshold is the text length above which the fingerprint uses a
// digest instead of the raw text
const hashThreshold = 100

// AnyService is the service-agnostic shadow key written alongside
// every entry so lookups that do not care which vendor served the
// translation can still hit
const AnyService = "any"

// Config holds cache configuration
type Config struct {
	// MaxItems bounds the standard tier. The priority tier is capped
	// at a fifth of this.
	MaxItems int

	// TTL is the default standard tier lifetime
	TTL time.Duration

	// PriorityTTL is the priority tier lifetime
	PriorityTTL time.Duration

	// SweepInterval is how often expired entries are collected
	SweepInterval time.Duration

	// PromoteAfter is the hit count that moves an entry into the
	// priority tier
	PromoteAfter int
}

// DefaultConfig returns sensible cache defaults
func DefaultConfig() Config {
	return Config{
		MaxItems:      1000,
		TTL:           time.Hour,
		PriorityTTL:   6 * time.Hour,
		SweepInterval: 10 * time.Minute,
		PromoteAfter:  3,
	}
}

type entry struct {
	result   *provider.Result
	expiry   time.Time
	hits     int
	storedAt time.Time
}

// Stats is a point-in-time snapshot of cache effectiveness
type Stats struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hitRate"`
	StandardSize int     `json:"standardSize"`
	PrioritySize int     `json:"prioritySize"`
}

// Cache is a two-tier in-memory translation cache. All methods are
// safe for concurrent use.
type Cache struct {
	config   Config
	standard map[string]*entry
	priority map[string]*entry
	hits     int64
	misses   int64
	logger   *logging.Logger
	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its background sweep
func New(config Config) *Cache {
	def := DefaultConfig()
	if config.MaxItems <= 0 {
		config.MaxItems = def.MaxItems
	}
	if config.TTL <= 0 {
		config.TTL = def.TTL
	}
	if config.PriorityTTL <= 0 {
		config.PriorityTTL = def.PriorityTTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = def.SweepInterval
	}
	if config.PromoteAfter <= 0 {
		config.PromoteAfter = def.PromoteAfter
	}

	c := &Cache{
		config:   config,
		standard: make(map[string]*entry),
		priority: make(map[string]*entry),
		logger:   logging.New("translation-cache"),
		stopCh:   make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Key builds the cache fingerprint for a translation request. Texts
// above the hash threshold are digested so keys stay bounded. The
// service component distinguishes vendor-specific entries from the
// service-agnostic shadow entry.
func Key(text, from, to, service string, opts *provider.Options) string {
	if opts == nil {
		opts = provider.DefaultOptions()
	}
	if service == "" {
		service = AnyService
	}

	textPart := text
	if len(text) > hashThreshold {
		sum := sha256.Sum256([]byte(text))
		textPart = hex.EncodeToString(sum[:])
	}

	parts := []string{
		textPart,
		provider.NormalizeLang(from),
		provider.NormalizeLang(to),
		strings.ToLower(service),
		strings.ToLower(opts.Formality),
		strconv.FormatBool(opts.PreserveFormatting),
		strings.ToLower(opts.Model),
		strings.ToLower(opts.Glossary),
	}
	return strings.Join(parts, "|")
}

// Get looks up a cached translation. For each candidate key the
// priority tier is consulted before the standard tier; a miss on the
// vendor-specific key falls back to the service-agnostic shadow key.
// Expired entries are evicted from both tiers on access.
func (c *Cache) Get(text, from, to, service string, opts *provider.Options) (*provider.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := []string{Key(text, from, to, service, opts)}
	if service != "" && !strings.EqualFold(service, AnyService) {
		keys = append(keys, Key(text, from, to, AnyService, opts))
	}

	now := time.Now()
	for _, key := range keys {
		if res, ok := c.lookup(key, now); ok {
			c.hits++
			return res, true
		}
	}

	c.misses++
	return nil, false
}

// lookup checks both tiers for one key. Caller holds the lock.
func (c *Cache) lookup(key string, now time.Time) (*provider.Result, bool) {
	if e, ok := c.priority[key]; ok {
		if now.After(e.expiry) {
			delete(c.priority, key)
			delete(c.standard, key)
			return nil, false
		}
		e.hits++
		return c.cachedClone(e), true
	}

	e, ok := c.standard[key]
	if !ok {
		return nil, false
	}
	if now.After(e.expiry) {
		delete(c.standard, key)
		delete(c.priority, key)
		return nil, false
	}

	e.hits++
	if e.hits >= c.config.PromoteAfter && len(c.priority) < c.config.MaxItems/5 {
		delete(c.standard, key)
		e.expiry = now.Add(c.config.PriorityTTL)
		c.priority[key] = e
	}
	return c.cachedClone(e), true
}

func (c *Cache) cachedClone(e *entry) *provider.Result {
	res := e.result.Clone()
	res.Cached = true
	res.Expiry = e.expiry
	return res
}

// Set stores a translation result under its vendor fingerprint and
// under the service-agnostic shadow key, both with the same TTL. A
// zero ttl means the configured default. The stored copies are
// clones; callers keep ownership of the original.
func (c *Cache) Set(text, from, to, service string, opts *provider.Options, result *provider.Result, ttl time.Duration) bool {
	if result == nil || !result.Success {
		return false
	}
	if ttl <= 0 {
		ttl = c.config.TTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	keys := []string{Key(text, from, to, service, opts)}
	if service != "" && !strings.EqualFold(service, AnyService) {
		keys = append(keys, Key(text, from, to, AnyService, opts))
	}

	for _, key := range keys {
		c.evictIfFull()
		c.standard[key] = &entry{
			result:   result.Clone(),
			expiry:   now.Add(ttl),
			storedAt: now,
		}
	}
	return true
}

// evictIfFull drops the oldest standard entry to make room for one
// more. Caller holds the lock.
func (c *Cache) evictIfFull() {
	if len(c.standard) < c.config.MaxItems {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, e := range c.standard {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey = key
			oldest = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.standard, oldestKey)
	}
}

// Stats returns current hit/miss counters and tier sizes
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:         c.hits,
		Misses:       c.misses,
		HitRate:      rate,
		StandardSize: len(c.standard),
		PrioritySize: len(c.priority),
	}
}

// Clear empties both tiers
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.standard = make(map[string]*entry)
	c.priority = make(map[string]*entry)
}

// Len returns the total number of live entries across both tiers
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.standard) + len(c.priority)
}

// Stop halts the background sweep. Idempotent.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.standard {
		if now.After(e.expiry) {
			delete(c.standard, key)
			removed++
		}
	}
	for key, e := range c.priority {
		if now.After(e.expiry) {
			delete(c.priority, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("Swept expired cache entries", "removed", removed)
	}
}
