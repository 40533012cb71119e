package coordinator

import (
	"sync"
	"time"

	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/internal/translator/routing"
)

// EventType names a coordinator lifecycle event
type EventType string

const (
	EventTranslationComplete EventType = "translation-complete"
	EventTranslationError    EventType = "translation-error"
	EventHealthChanged       EventType = "health-changed"
)

// Event carries one lifecycle notification. Fields beyond Type and
// Timestamp are populated depending on the event.
type Event struct {
	Type      EventType              `json:"type"`
	Service   string                 `json:"service,omitempty"`
	Result    *provider.Result       `json:"result,omitempty"`
	Health    *routing.ServiceHealth `json:"health,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler receives events. Handlers run synchronously on the
// publishing goroutine and must not block.
type Handler func(Event)

// EventBus is a typed observer list for coordinator events
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers a handler for one event type
func (b *EventBus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type
func (b *EventBus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers an event to matching handlers
func (b *EventBus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	typed := b.handlers[evt.Type]
	all := b.all
	b.mu.RUnlock()

	for _, h := range typed {
		h(evt)
	}
	for _, h := range all {
		h(evt)
	}
}
