// Package contextstore tracks conversation history so context-aware
// providers can see the recent exchange. Conversations hold a bounded
// window of entries and expire after a period of inactivity.
package contextstore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxlate/voxlate/pkg/core/logging"
)

// Config holds context store configuration
type Config struct {
	// MaxHistory bounds the number of entries kept per conversation
	MaxHistory int

	// Expiration is how long an idle conversation survives
	Expiration time.Duration

	// SweepInterval is how often idle conversations are collected
	SweepInterval time.Duration
}

// DefaultConfig returns sensible context store defaults
func DefaultConfig() Config {
	return Config{
		MaxHistory:    10,
		Expiration:    30 * time.Minute,
		SweepInterval: 15 * time.Minute,
	}
}

// Entry is one translated exchange within a conversation
type Entry struct {
	Original   string    `json:"original"`
	Translated string    `json:"translated"`
	FromLang   string    `json:"fromLang"`
	ToLang     string    `json:"toLang"`
	Timestamp  time.Time `json:"timestamp"`
}

// Conversation is a live translation session
type Conversation struct {
	ID         string    `json:"id"`
	SourceLang string    `json:"sourceLang"`
	TargetLang string    `json:"targetLang"`
	Domain     string    `json:"domain"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
	Entries    []Entry   `json:"entries"`
}

// Store keeps conversations in memory. All methods are safe for
// concurrent use.
type Store struct {
	config        Config
	conversations map[string]*Conversation
	logger        *logging.Logger
	mu            sync.Mutex
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// New creates a store and starts its idle sweep
func New(config Config) *Store {
	if config.MaxHistory <= 0 {
		config.MaxHistory = DefaultConfig().MaxHistory
	}
	if config.Expiration <= 0 {
		config.Expiration = DefaultConfig().Expiration
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultConfig().SweepInterval
	}

	s := &Store{
		config:        config,
		conversations: make(map[string]*Conversation),
		logger:        logging.New("context-store"),
		stopCh:        make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// CreateConversation starts a new conversation and returns its ID
func (s *Store) CreateConversation(sourceLang, targetLang, domain string) string {
	if domain == "" {
		domain = "general"
	}

	conv := &Conversation{
		ID:         uuid.New().String(),
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Domain:     domain,
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	s.logger.Debug("Created conversation", "id", conv.ID, "domain", domain)
	return conv.ID
}

// AddEntry appends a translated exchange to a conversation. Entries
// beyond the history window are dropped oldest-first. Unknown
// conversation IDs are ignored.
func (s *Store) AddEntry(id string, e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return
	}

	conv.Entries = append(conv.Entries, e)
	if len(conv.Entries) > s.config.MaxHistory {
		conv.Entries = conv.Entries[len(conv.Entries)-s.config.MaxHistory:]
	}
	conv.LastActive = time.Now()
}

// Get returns a copy of a conversation
func (s *Store) Get(id string) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, false
	}

	cp := *conv
	cp.Entries = make([]Entry, len(conv.Entries))
	copy(cp.Entries, conv.Entries)
	return &cp, true
}

// Context renders a conversation as a transcript suitable for feeding
// a context-aware provider. Returns the empty string for unknown or
// empty conversations.
func (s *Store) Context(id string) string {
	conv, ok := s.Get(id)
	if !ok || len(conv.Entries) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Conversation (%s, %s -> %s):\n", conv.Domain, conv.SourceLang, conv.TargetLang)
	for _, e := range conv.Entries {
		fmt.Fprintf(&b, "[%s] %s -> %s\n  %s\n  %s\n",
			e.Timestamp.Format("15:04:05"), e.FromLang, e.ToLang, e.Original, e.Translated)
	}
	return b.String()
}

// Clear removes one conversation, or every conversation when id is empty
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.conversations = make(map[string]*Conversation)
		return
	}
	delete(s.conversations, id)
}

// Len returns the number of live conversations
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// Stop halts the idle sweep. Idempotent.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.config.Expiration)
	removed := 0
	for id, conv := range s.conversations {
		if conv.LastActive.Before(cutoff) {
			delete(s.conversations, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Swept idle conversations", "removed", removed)
	}
}
