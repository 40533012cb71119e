package routing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voxlate/voxlate/internal/translator/provider"
)

var allProviders = []string{"gpt4o", "deepl", "google", "azure"}

func newTestOptimizer(state *State) *Optimizer {
	return NewOptimizer(DefaultOptimizerConfig(), state, allProviders)
}

func TestSelectPreferredService(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	opts := provider.DefaultOptions()
	opts.PreferredService = "azure"
	if got := o.SelectProvider("en", "ko", opts); got != "azure" {
		t.Errorf("Expected preferred azure, got %s", got)
	}
}

func TestSelectPreferredServiceOptimisticRetry(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	s.UpdateServiceHealth("azure", HealthUpdate{Error: "down"})

	// An explicit preference is still honored so the provider gets a
	// chance to be observed healthy again
	opts := provider.DefaultOptions()
	opts.PreferredService = "azure"
	if got := o.SelectProvider("en", "ko", opts); got != "azure" {
		t.Errorf("Expected preferred provider despite advisory health, got %s", got)
	}

	opts.PreferredService = "unknown-vendor"
	if got := o.SelectProvider("en", "ko", opts); got == "unknown-vendor" {
		t.Error("Expected unregistered preference to be ignored")
	}
}

func TestSelectContextRequests(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	opts := provider.DefaultOptions()
	opts.Context = "Earlier we discussed the contract."
	if got := o.SelectProvider("en", "es", opts); got != "gpt4o" {
		t.Errorf("Expected context request routed to gpt4o, got %s", got)
	}

	opts = provider.DefaultOptions()
	opts.RequiresContext = true
	if got := o.SelectProvider("en", "es", opts); got != "gpt4o" {
		t.Errorf("Expected requiresContext routed to gpt4o, got %s", got)
	}
}

func TestSelectQualityHistoryWins(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	s.UpdateQualityScore("azure", "en", "es", 0.95)
	s.UpdateQualityScore("deepl", "en", "es", 0.80)

	if got := o.SelectProvider("en", "es", provider.DefaultOptions()); got != "azure" {
		t.Errorf("Expected best historical provider azure, got %s", got)
	}
}

func TestSelectQualityHistorySpeedRanking(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	slow, fast := 500.0, 80.0
	s.UpdateQualityScore("deepl", "en", "es", 0.95)
	s.UpdateQualityScore("google", "en", "es", 0.85)
	s.UpdateServiceHealth("deepl", HealthUpdate{ResponseTimeMs: &slow})
	s.UpdateServiceHealth("google", HealthUpdate{ResponseTimeMs: &fast})

	opts := provider.DefaultOptions()
	opts.Priority = provider.PrioritySpeed
	if got := o.SelectProvider("en", "es", opts); got != "google" {
		t.Errorf("Expected fastest known provider google, got %s", got)
	}
}

func TestSelectQualityHistorySpeedUnmeasuredSortsLast(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	measured := 50.0
	s.UpdateQualityScore("gpt4o", "en", "ja", 0.95)
	s.UpdateQualityScore("google", "en", "ja", 0.6)
	s.UpdateServiceHealth("gpt4o", HealthUpdate{ResponseTimeMs: &measured})

	// google has no response-time observation; that must not rank it
	// ahead of a provider measured at 50ms
	opts := provider.DefaultOptions()
	opts.Priority = provider.PrioritySpeed
	if got := o.SelectProvider("en", "ja", opts); got != "gpt4o" {
		t.Errorf("Expected measured gpt4o over unmeasured google, got %s", got)
	}
}

func TestSelectDomainRoute(t *testing.T) {
	s := NewState("")
	defer s.Stop()

	cfg := DefaultOptimizerConfig()
	cfg.DomainRoutes = map[string]DomainRoute{
		"medical": {
			Default: "deepl",
			Pairs:   map[string]string{"en-ja": "gpt4o"},
		},
	}
	o := NewOptimizer(cfg, s, allProviders)

	opts := provider.DefaultOptions()
	opts.Domain = "medical"
	if got := o.SelectProvider("en", "ja", opts); got != "gpt4o" {
		t.Errorf("Expected pair override gpt4o, got %s", got)
	}
	if got := o.SelectProvider("en", "es", opts); got != "deepl" {
		t.Errorf("Expected domain default deepl, got %s", got)
	}
}

func TestSelectEuropeanPair(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	if got := o.SelectProvider("de", "fr", provider.DefaultOptions()); got != "deepl" {
		t.Errorf("Expected European pair routed to deepl, got %s", got)
	}
}

func TestSelectCulturalLanguage(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	if got := o.SelectProvider("en", "ja", provider.DefaultOptions()); got != "gpt4o" {
		t.Errorf("Expected cultural-adaptation pair routed to gpt4o, got %s", got)
	}
}

func TestSelectPriorityRanking(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	// en-sw matches no heuristic set, so the static ranking decides
	opts := provider.DefaultOptions()
	opts.Priority = provider.PrioritySpeed
	if got := o.SelectProvider("en", "sw", opts); got != "google" {
		t.Errorf("Expected speed ranking to pick google, got %s", got)
	}

	opts.Priority = provider.PriorityQuality
	if got := o.SelectProvider("en", "sw", opts); got != "gpt4o" {
		t.Errorf("Expected quality ranking to pick gpt4o, got %s", got)
	}
}

func TestSelectLastResort(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	for _, name := range allProviders {
		s.UpdateServiceHealth(name, HealthUpdate{Error: "down"})
	}

	if got := o.SelectProvider("en", "es", provider.DefaultOptions()); got != "google" {
		t.Errorf("Expected fixed default google when everything is down, got %s", got)
	}
}

func TestFallbackOrderExcludesFailedAndUnhealthy(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	s.UpdateServiceHealth("azure", HealthUpdate{Error: "down"})

	order := o.FallbackOrder("hello", "en", "sw", provider.DefaultOptions(), "gpt4o")
	for _, name := range order {
		if name == "gpt4o" {
			t.Error("Expected failed provider excluded from fallback order")
		}
		if name == "azure" {
			t.Error("Expected unhealthy provider excluded from fallback order")
		}
	}
	if len(order) != 2 {
		t.Errorf("Expected 2 candidates, got %v", order)
	}
}

func TestFallbackOrderShortSpeedText(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	slow, fast := 400.0, 90.0
	s.UpdateServiceHealth("gpt4o", HealthUpdate{ResponseTimeMs: &slow})
	s.UpdateServiceHealth("azure", HealthUpdate{ResponseTimeMs: &fast})

	opts := provider.DefaultOptions()
	opts.Priority = provider.PrioritySpeed
	order := o.FallbackOrder("hi", "en", "sw", opts, "")
	if len(order) == 0 || order[0] != "azure" {
		t.Errorf("Expected fastest provider first, got %v", order)
	}
}

func TestFallbackOrderEuropeanPair(t *testing.T) {
	s := NewState("")
	defer s.Stop()
	o := newTestOptimizer(s)

	order := o.FallbackOrder("hello", "en", "es", provider.DefaultOptions(), "google")
	if len(order) == 0 || order[0] != "deepl" {
		t.Errorf("Expected deepl first for European pair, got %v", order)
	}
}

func TestLoadDomainRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	content := `medical:
  default: deepl
  pairs:
    en-ja: gpt4o
legal:
  default: gpt4o
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write routes file: %v", err)
	}

	routes, err := LoadDomainRoutes(path)
	if err != nil {
		t.Fatalf("LoadDomainRoutes failed: %v", err)
	}
	if routes["medical"].Default != "deepl" {
		t.Errorf("Expected medical default deepl, got %s", routes["medical"].Default)
	}
	if routes["medical"].Pairs["en-ja"] != "gpt4o" {
		t.Errorf("Expected en-ja override gpt4o, got %s", routes["medical"].Pairs["en-ja"])
	}
	if routes["legal"].Default != "gpt4o" {
		t.Errorf("Expected legal default gpt4o, got %s", routes["legal"].Default)
	}
}

func TestLoadDomainRoutesMissingFile(t *testing.T) {
	if _, err := LoadDomainRoutes("/nonexistent/routes.yaml"); err == nil {
		t.Error("Expected error for missing routes file")
	}
}
