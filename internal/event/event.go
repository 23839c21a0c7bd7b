package event

import "sync"

// Kind names a lifecycle event.
type Kind string

// Request lifecycle kinds.
const (
	KindLogin    Kind = "login"
	KindResponse Kind = "response"
	KindClose    Kind = "close"
	KindError    Kind = "error"
	KindAbort    Kind = "abort"
	KindFinish   Kind = "finish"
)

// Response stream kinds.
const (
	KindData    Kind = "data"
	KindAborted Kind = "aborted"
	KindEnd     Kind = "end"
)

// Event is implemented by every concrete event value.
type Event interface {
	// Kind returns the event kind used for dispatch.
	Kind() Kind
}

// Handler receives an emitted event.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Emitter dispatches events to handlers subscribed by kind.
// The zero value is ready to use.
type Emitter struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Kind][]subscription
}

// On subscribes handler to events of the given kind.
// The returned function removes the subscription; calling it more than once is harmless.
func (e *Emitter) On(kind Kind, handler Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[Kind][]subscription)
	}

	e.nextID++
	id := e.nextID
	e.handlers[kind] = append(e.handlers[kind], subscription{id: id, handler: handler})

	return func() {
		e.off(kind, id)
	}
}

// Emit delivers ev to every handler subscribed to its kind and returns how many were called.
// Handlers run on the caller's goroutine without the emitter lock held,
// so they may subscribe or unsubscribe freely.
func (e *Emitter) Emit(ev Event) int {
	e.mu.RLock()
	subscriptions := make([]subscription, len(e.handlers[ev.Kind()]))
	copy(subscriptions, e.handlers[ev.Kind()])
	e.mu.RUnlock()

	for _, s := range subscriptions {
		s.handler(ev)
	}

	return len(subscriptions)
}

// ListenerCount returns the number of handlers subscribed to kind.
func (e *Emitter) ListenerCount(kind Kind) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.handlers[kind])
}

func (e *Emitter) off(kind Kind, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subscriptions := e.handlers[kind]
	for i, s := range subscriptions {
		if s.id == id {
			e.handlers[kind] = append(subscriptions[:i:i], subscriptions[i+1:]...)

			return
		}
	}
}
