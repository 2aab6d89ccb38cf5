package integration

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// EventKind identifies a registry lifecycle event
type EventKind int

const (
	EventSystemRegistered EventKind = iota + 1
	EventSystemUnregistered
	EventSystemConnected
	EventSystemError
)

// String returns the wire name of the event kind
func (k EventKind) String() string {
	switch k {
	case EventSystemRegistered:
		return "system_registered"
	case EventSystemUnregistered:
		return "system_unregistered"
	case EventSystemConnected:
		return "system_connected"
	case EventSystemError:
		return "system_error"
	default:
		return "unknown"
	}
}

/* Event is implemented by every payload the bus carries
 * Each kind has exactly one payload type
 */
type Event interface {
	Kind() EventKind
}

// SystemRegistered is emitted after Register stores a system
type SystemRegistered struct {
	ID     string
	System System
}

func (SystemRegistered) Kind() EventKind { return EventSystemRegistered }

// SystemUnregistered is emitted by every Unregister call, even for unknown ids
type SystemUnregistered struct {
	ID string
}

func (SystemUnregistered) Kind() EventKind { return EventSystemUnregistered }

// SystemConnected is emitted when a dispatch succeeds
type SystemConnected struct {
	ID     string
	Result json.RawMessage
}

func (SystemConnected) Kind() EventKind { return EventSystemConnected }

// SystemError is emitted when a dispatch fails after exhausting its attempts
type SystemError struct {
	ID  string
	Err error
}

func (SystemError) Kind() EventKind { return EventSystemError }

// Handler receives events of the kind it was subscribed to
type Handler func(Event)

// Subscription identifies one On registration so it can be removed with Off
type Subscription struct {
	kind EventKind
	id   uint64
}

type listener struct {
	id      uint64
	handler Handler
}

/* Bus is an in-process publish/subscribe fan-out
 * Delivery is synchronous and in subscription order; a panicking handler
 * is logged and does not stop delivery to the handlers after it
 */
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[EventKind][]listener
	logger    zerolog.Logger
}

// NewBus creates an empty bus
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		listeners: make(map[EventKind][]listener),
		logger:    logger,
	}
}

// On registers handler for kind
func (b *Bus) On(kind EventKind, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[kind] = append(b.listeners[kind], listener{id: b.nextID, handler: handler})
	return Subscription{kind: kind, id: b.nextID}
}

// Off removes the registration; unknown subscriptions are ignored
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[sub.kind]
	for i, l := range current {
		if l.id == sub.id {
			b.listeners[sub.kind] = append(current[:i:i], current[i+1:]...)
			return
		}
	}
}

// Subscribe registers a handler typed by the event payload it expects
func Subscribe[E Event](b *Bus, fn func(E)) Subscription {
	var zero E
	return b.On(zero.Kind(), func(e Event) {
		if ev, ok := e.(E); ok {
			fn(ev)
		}
	})
}

// emit delivers to a snapshot so handlers may call On/Off without deadlocking
func (b *Bus) emit(e Event) {
	b.mu.Lock()
	snapshot := make([]listener, len(b.listeners[e.Kind()]))
	copy(snapshot, b.listeners[e.Kind()])
	b.mu.Unlock()

	for _, l := range snapshot {
		b.deliver(e, l)
	}
}

func (b *Bus) deliver(e Event, l listener) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event", e.Kind().String()).
				Interface("panic", r).
				Msg("event listener failed")
		}
	}()
	l.handler(e)
}
