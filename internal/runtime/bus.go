package runtime

import "sync"

// Topics published by the runtime.
const (
	// TopicPaused is published when the runtime pauses.
	TopicPaused = "runtime.paused"

	// TopicResumed is published when the runtime resumes.
	TopicResumed = "runtime.resumed"

	// TopicModeChanged is published after a mode switch with a ModeChange
	// payload.
	TopicModeChanged = "mode.changed"

	// TopicError is published with an error payload when dispatch or a
	// background worker fails.
	TopicError = "runtime.error"
)

// ModeChange is the payload of TopicModeChanged.
type ModeChange struct {
	From string
	To   string
}

// Handler receives the payload of a published topic.
type Handler func(payload any)

// Bus is a minimal synchronous publish/subscribe hub. Handlers run on the
// publisher's goroutine; a panicking handler does not take the publisher
// down.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

// Publish delivers the payload to every handler subscribed to the topic.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		safeCall(h, payload)
	}
}

func safeCall(h Handler, payload any) {
	defer func() {
		_ = recover()
	}()
	h(payload)
}
