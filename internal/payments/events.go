package payments

import "sync"

// Event is delivered to listeners once per successful dispatch. Params holds
// the original request and Result whatever the gateway returned.
type Event struct {
	Operation string
	Gateway   string
	Params    any
	Result    any
}

type EventHandler func(Event)

// Subscription identifies a registered handler so it can be removed later.
// Go funcs are not comparable, so removal goes through the handle returned
// by On instead of handler identity.
type Subscription struct {
	event string
	id    uint64
}

type listener struct {
	id      uint64
	handler EventHandler
}

// EventBus is a synchronous in-process observer list: handlers run in
// registration order on the emitting goroutine, and a panicking handler
// propagates to the emitter's caller. It is not a durable queue.
type EventBus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string][]listener
}

func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[string][]listener)}
}

// On registers a handler for the named event and returns its subscription.
func (b *EventBus) On(event string, handler EventHandler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[event] = append(b.listeners[event], listener{id: b.nextID, handler: handler})
	return &Subscription{event: event, id: b.nextID}
}

// Off removes the handler registered under sub. Unknown subscriptions are
// ignored.
func (b *EventBus) Off(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[sub.event]
	for i, l := range current {
		if l.id == sub.id {
			b.listeners[sub.event] = append(current[:i:i], current[i+1:]...)
			return
		}
	}
}

// Emit calls every handler currently registered for the event, in
// registration order.
func (b *EventBus) Emit(event string, evt Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.listeners[event]))
	for _, l := range b.listeners[event] {
		handlers = append(handlers, l.handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(evt)
	}
}
