package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/voxlate/voxlate/internal/translator/provider"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SweepInterval = time.Hour
	return cfg
}

func resultFor(text string) *provider.Result {
	return &provider.Result{
		Success:     true,
		Translation: text,
		Confidence:  0.9,
		Service:     "deepl",
		Timestamp:   time.Now(),
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	opts := provider.DefaultOptions()
	c.Set("hello", "en", "es", "deepl", opts, resultFor("hola"), 0)

	res, ok := c.Get("hello", "en", "es", "deepl", opts)
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if res.Translation != "hola" {
		t.Errorf("Expected hola, got %s", res.Translation)
	}
	if !res.Cached {
		t.Error("Expected cached flag on hit")
	}
	if res.Expiry.IsZero() {
		t.Error("Expected expiry to be set on hit")
	}
}

func TestCacheMiss(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	if _, ok := c.Get("unseen", "en", "es", "deepl", nil); ok {
		t.Error("Expected miss for unseen text")
	}

	stats := c.Stats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
}

func TestCacheServiceAgnosticFallback(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	opts := provider.DefaultOptions()
	c.Set("hello", "en", "es", "deepl", opts, resultFor("hola"), 0)

	// A lookup that does not care which vendor served the entry
	res, ok := c.Get("hello", "en", "es", AnyService, opts)
	if !ok {
		t.Fatal("Expected shadow-key hit for service-agnostic lookup")
	}
	if res.Translation != "hola" {
		t.Errorf("Expected hola, got %s", res.Translation)
	}

	// A lookup for a different vendor still falls through to the
	// shadow entry
	if _, ok := c.Get("hello", "en", "es", "google", opts); !ok {
		t.Error("Expected other-vendor lookup to hit the shadow entry")
	}
}

func TestCacheOptionsAffectKey(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	formal := &provider.Options{Formality: "formal"}
	casual := &provider.Options{Formality: "casual"}

	c.Set("hello", "en", "de", "deepl", formal, resultFor("Guten Tag"), 0)

	if _, ok := c.Get("hello", "en", "de", "deepl", casual); ok {
		t.Error("Expected different formality to miss")
	}
	if _, ok := c.Get("hello", "en", "de", "deepl", formal); !ok {
		t.Error("Expected same formality to hit")
	}
}

func TestCacheLongTextHashedKey(t *testing.T) {
	long := strings.Repeat("a", 500)
	key := Key(long, "en", "es", "deepl", nil)
	if strings.Contains(key, long) {
		t.Error("Expected long text to be digested in the key")
	}

	c := New(testConfig())
	defer c.Stop()

	c.Set(long, "en", "es", "deepl", nil, resultFor("translated"), 0)
	if _, ok := c.Get(long, "en", "es", "deepl", nil); !ok {
		t.Error("Expected hit for long text")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	c.Set("hello", "en", "es", "deepl", nil, resultFor("hola"), 10*time.Millisecond)
	before := c.Len()
	if before == 0 {
		t.Fatal("Expected entries after Set")
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("hello", "en", "es", "deepl", nil); ok {
		t.Error("Expected expired entry to miss")
	}
	if c.Len() >= before {
		t.Errorf("Expected lazy eviction to shrink cache, had %d now %d", before, c.Len())
	}
}

func TestCachePromotion(t *testing.T) {
	cfg := testConfig()
	cfg.PromoteAfter = 2
	c := New(cfg)
	defer c.Stop()

	c.Set("hello", "en", "es", "deepl", nil, resultFor("hola"), 0)

	c.Get("hello", "en", "es", "deepl", nil)
	c.Get("hello", "en", "es", "deepl", nil)

	stats := c.Stats()
	if stats.PrioritySize != 1 {
		t.Errorf("Expected 1 priority entry after repeated hits, got %d", stats.PrioritySize)
	}

	// Promoted entries still resolve
	if _, ok := c.Get("hello", "en", "es", "deepl", nil); !ok {
		t.Error("Expected hit from priority tier")
	}
}

func TestCacheEviction(t *testing.T) {
	cfg := testConfig()
	cfg.MaxItems = 4
	c := New(cfg)
	defer c.Stop()

	c.Set("one", "en", "es", "deepl", nil, resultFor("uno"), 0)
	time.Sleep(time.Millisecond)
	c.Set("two", "en", "es", "deepl", nil, resultFor("dos"), 0)
	time.Sleep(time.Millisecond)
	c.Set("three", "en", "es", "deepl", nil, resultFor("tres"), 0)

	stats := c.Stats()
	if stats.StandardSize > 4 {
		t.Errorf("Expected standard tier bounded at 4, got %d", stats.StandardSize)
	}

	// The newest entry must survive eviction
	if _, ok := c.Get("three", "en", "es", "deepl", nil); !ok {
		t.Error("Expected newest entry to survive eviction")
	}
}

func TestCacheIgnoresFailures(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	if c.Set("hello", "en", "es", "deepl", nil, provider.Failure("deepl", "boom"), 0) {
		t.Error("Expected Set to refuse failed results")
	}
	if _, ok := c.Get("hello", "en", "es", "deepl", nil); ok {
		t.Error("Expected failed results not to be cached")
	}
}

func TestCacheStats(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	c.Set("hello", "en", "es", "deepl", nil, resultFor("hola"), 0)
	c.Get("hello", "en", "es", "deepl", nil)
	c.Get("missing", "en", "es", "deepl", nil)

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", stats.HitRate)
	}
}

func TestCacheClear(t *testing.T) {
	c := New(testConfig())
	defer c.Stop()

	c.Set("hello", "en", "es", "deepl", nil, resultFor("hola"), 0)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d entries", c.Len())
	}
}
