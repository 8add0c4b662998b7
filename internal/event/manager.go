package event

import (
	"sync"

	"github.com/bethropolis/tempo/internal/logger"
)

// Handler receives dispatched events. The return value reports whether the
// event was consumed; consumed events are not passed to later handlers.
type Handler func(e Event) bool

// SubscriptionID identifies a handler for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Manager handles event subscriptions and dispatching. Dispatch is
// synchronous: handlers run on the dispatching goroutine, in subscription order.
type Manager struct {
	mu       sync.RWMutex
	handlers map[Type][]subscription
	nextID   SubscriptionID
}

// NewManager creates a new event manager.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[Type][]subscription),
	}
}

// Subscribe adds a handler for a specific event type.
func (m *Manager) Subscribe(eventType Type, handler Handler) SubscriptionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.handlers[eventType] = append(m.handlers[eventType], subscription{id: id, handler: handler})
	logger.DebugTagf("event", "Handler %d subscribed to %v", id, eventType)
	return id
}

// SubscribeAll adds one handler for several event types and returns one ID per type.
func (m *Manager) SubscribeAll(handler Handler, types ...Type) []SubscriptionID {
	ids := make([]SubscriptionID, 0, len(types))
	for _, t := range types {
		ids = append(ids, m.Subscribe(t, handler))
	}
	return ids
}

// Unsubscribe removes a handler. It reports whether the ID was found.
func (m *Manager) Unsubscribe(id SubscriptionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for t, subs := range m.handlers {
		for i, s := range subs {
			if s.id != id {
				continue
			}
			// Copy so in-flight dispatches keep their snapshot intact.
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(m.handlers, t)
			} else {
				m.handlers[t] = next
			}
			logger.DebugTagf("event", "Handler %d unsubscribed from %v", id, t)
			return true
		}
	}
	return false
}

// Dispatch sends an event to all handlers registered for its type. A nil
// manager drops the event, so actions can run without a bus.
func (m *Manager) Dispatch(eventType Type, data interface{}) {
	if m == nil {
		return
	}
	e := Event{Type: eventType, Data: data}

	m.mu.RLock()
	subs := m.handlers[eventType]
	m.mu.RUnlock()

	if len(subs) == 0 {
		return
	}
	logger.DebugTagf("event", "Dispatching %v to %d handler(s)", eventType, len(subs))

	// subs is never mutated in place, so handlers may (un)subscribe freely.
	for _, s := range subs {
		if s.handler(e) {
			break
		}
	}
}

// HandlerCount returns the number of handlers registered for eventType.
func (m *Manager) HandlerCount(eventType Type) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[eventType])
}
