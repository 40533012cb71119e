package provider

import (
	"context"
	"testing"
)

type mockProvider struct {
	name          string
	initCalls     int
	initErr       error
	destroyCalls  int
	translateFunc func(ctx context.Context, req *Request) (*Result, error)
	languages     []string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Initialize(ctx context.Context) error {
	m.initCalls++
	return m.initErr
}

func (m *mockProvider) Translate(ctx context.Context, req *Request) (*Result, error) {
	if m.translateFunc != nil {
		return m.translateFunc(ctx, req)
	}
	return &Result{Success: true, Translation: "ok", Service: m.name}, nil
}

func (m *mockProvider) SupportedLanguages() []string {
	if m.languages != nil {
		return m.languages
	}
	return []string{"en", "es"}
}

func (m *mockProvider) Destroy() error {
	m.destroyCalls++
	return nil
}

func TestNewManagerNoProviders(t *testing.T) {
	_, err := NewManager(ManagerConfig{})
	if err == nil {
		t.Error("Expected error when no providers are configured")
	}
}

func TestNewManagerRegistersConfigured(t *testing.T) {
	m, err := NewManager(ManagerConfig{
		DeepL:  DeepLConfig{APIKey: "key-a"},
		Google: GoogleConfig{APIKey: "key-b"},
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, ok := m.Get(TypeDeepL); !ok {
		t.Error("Expected deepl to be registered")
	}
	if _, ok := m.Get(TypeGoogle); !ok {
		t.Error("Expected google to be registered")
	}
	if _, ok := m.Get(TypeAzure); ok {
		t.Error("Expected azure to be absent without an API key")
	}
}

func TestManagerNamesOrder(t *testing.T) {
	m, err := NewManagerWith(
		&mockProvider{name: "azure"},
		&mockProvider{name: "gpt4o"},
		&mockProvider{name: "deepl"},
	)
	if err != nil {
		t.Fatalf("NewManagerWith failed: %v", err)
	}

	names := m.Names()
	expected := []string{"gpt4o", "deepl", "azure"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d names, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected names[%d]=%s, got %s", i, name, names[i])
		}
	}
}

func TestManagerGetByName(t *testing.T) {
	mock := &mockProvider{name: "gpt4o"}
	m, err := NewManagerWith(mock)
	if err != nil {
		t.Fatalf("NewManagerWith failed: %v", err)
	}

	p, ok := m.GetByName("gpt-4o")
	if !ok {
		t.Fatal("Expected gpt-4o alias to resolve")
	}
	if p != mock {
		t.Error("Expected the registered mock back")
	}

	if _, ok := m.GetByName("nonexistent"); ok {
		t.Error("Expected lookup of unknown name to fail")
	}
}

func TestManagerInitializeDropsFailing(t *testing.T) {
	good := &mockProvider{name: "deepl"}
	bad := &mockProvider{name: "google", initErr: context.DeadlineExceeded}

	m, err := NewManagerWith(good, bad)
	if err != nil {
		t.Fatalf("NewManagerWith failed: %v", err)
	}

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if good.initCalls != 1 {
		t.Errorf("Expected 1 init call, got %d", good.initCalls)
	}
	if _, ok := m.Get(TypeGoogle); ok {
		t.Error("Expected failing provider to be removed")
	}
	if _, ok := m.Get(TypeDeepL); !ok {
		t.Error("Expected healthy provider to remain")
	}
}

func TestManagerInitializeAllFail(t *testing.T) {
	bad := &mockProvider{name: "deepl", initErr: context.DeadlineExceeded}
	m, err := NewManagerWith(bad)
	if err != nil {
		t.Fatalf("NewManagerWith failed: %v", err)
	}

	if err := m.Initialize(context.Background()); err == nil {
		t.Error("Expected error when every provider fails to initialize")
	}
}

func TestManagerSupportedLanguagePairs(t *testing.T) {
	m, err := NewManagerWith(&mockProvider{name: "deepl", languages: []string{"en", "de"}})
	if err != nil {
		t.Fatalf("NewManagerWith failed: %v", err)
	}

	pairs := m.SupportedLanguagePairs()
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d: %v", len(pairs), pairs)
	}
	seen := map[string]bool{}
	for _, p := range pairs {
		seen[p] = true
	}
	if !seen["en-de"] || !seen["de-en"] {
		t.Errorf("Expected en-de and de-en, got %v", pairs)
	}
}

func TestManagerDestroyIdempotent(t *testing.T) {
	mock := &mockProvider{name: "azure"}
	m, err := NewManagerWith(mock)
	if err != nil {
		t.Fatalf("NewManagerWith failed: %v", err)
	}

	if err := m.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := m.Destroy(); err != nil {
		t.Fatalf("Second Destroy failed: %v", err)
	}
	if mock.destroyCalls != 1 {
		t.Errorf("Expected 1 destroy call, got %d", mock.destroyCalls)
	}
}
