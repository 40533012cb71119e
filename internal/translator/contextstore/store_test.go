package contextstore

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SweepInterval = time.Hour
	return cfg
}

func TestCreateConversation(t *testing.T) {
	s := New(testConfig())
	defer s.Stop()

	id := s.CreateConversation("en", "es", "medical")
	if id == "" {
		t.Fatal("Expected non-empty conversation ID")
	}

	conv, ok := s.Get(id)
	if !ok {
		t.Fatal("Expected conversation to exist")
	}
	if conv.Domain != "medical" {
		t.Errorf("Expected domain medical, got %s", conv.Domain)
	}
	if conv.SourceLang != "en" || conv.TargetLang != "es" {
		t.Errorf("Expected en/es, got %s/%s", conv.SourceLang, conv.TargetLang)
	}
}

func TestCreateConversationDefaultDomain(t *testing.T) {
	s := New(testConfig())
	defer s.Stop()

	id := s.CreateConversation("en", "fr", "")
	conv, _ := s.Get(id)
	if conv.Domain != "general" {
		t.Errorf("Expected default domain general, got %s", conv.Domain)
	}
}

func TestAddEntryWindow(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHistory = 5
	s := New(cfg)
	defer s.Stop()

	id := s.CreateConversation("en", "es", "general")
	for i := 0; i < 7; i++ {
		s.AddEntry(id, Entry{
			Original:   fmt.Sprintf("text %d", i),
			Translated: fmt.Sprintf("texto %d", i),
			FromLang:   "en",
			ToLang:     "es",
		})
	}

	conv, _ := s.Get(id)
	if len(conv.Entries) != 5 {
		t.Fatalf("Expected window of 5 entries, got %d", len(conv.Entries))
	}
	if conv.Entries[0].Original != "text 2" {
		t.Errorf("Expected oldest retained entry to be text 2, got %s", conv.Entries[0].Original)
	}
	if conv.Entries[4].Original != "text 6" {
		t.Errorf("Expected newest entry to be text 6, got %s", conv.Entries[4].Original)
	}
}

func TestAddEntryUnknownConversation(t *testing.T) {
	s := New(testConfig())
	defer s.Stop()

	// Must not panic or create a conversation
	s.AddEntry("no-such-id", Entry{Original: "hello"})
	if s.Len() != 0 {
		t.Errorf("Expected no conversations, got %d", s.Len())
	}
}

func TestContextTranscript(t *testing.T) {
	s := New(testConfig())
	defer s.Stop()

	id := s.CreateConversation("en", "es", "legal")
	s.AddEntry(id, Entry{Original: "hello", Translated: "hola", FromLang: "en", ToLang: "es"})
	s.AddEntry(id, Entry{Original: "adios", Translated: "goodbye", FromLang: "es", ToLang: "en"})

	ctx := s.Context(id)
	if !strings.Contains(ctx, "legal") {
		t.Error("Expected transcript header to carry the domain")
	}
	if !strings.Contains(ctx, "en -> es") {
		t.Error("Expected transcript header to carry the language pair")
	}
	if !strings.Contains(ctx, "hello") || !strings.Contains(ctx, "hola") {
		t.Error("Expected transcript to contain both sides of the exchange")
	}
}

func TestContextEmpty(t *testing.T) {
	s := New(testConfig())
	defer s.Stop()

	if got := s.Context("missing"); got != "" {
		t.Errorf("Expected empty context for unknown conversation, got %q", got)
	}

	id := s.CreateConversation("en", "es", "general")
	if got := s.Context(id); got != "" {
		t.Errorf("Expected empty context for conversation without entries, got %q", got)
	}
}

func TestClear(t *testing.T) {
	s := New(testConfig())
	defer s.Stop()

	a := s.CreateConversation("en", "es", "general")
	b := s.CreateConversation("en", "fr", "general")

	s.Clear(a)
	if _, ok := s.Get(a); ok {
		t.Error("Expected cleared conversation to be gone")
	}
	if _, ok := s.Get(b); !ok {
		t.Error("Expected other conversation to survive")
	}

	s.Clear("")
	if s.Len() != 0 {
		t.Errorf("Expected all conversations cleared, got %d", s.Len())
	}
}

func TestSweepIdle(t *testing.T) {
	cfg := testConfig()
	cfg.Expiration = 10 * time.Millisecond
	s := New(cfg)
	defer s.Stop()

	s.CreateConversation("en", "es", "general")
	time.Sleep(25 * time.Millisecond)
	s.sweep()

	if s.Len() != 0 {
		t.Errorf("Expected idle conversation to be swept, got %d", s.Len())
	}
}
