package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

/* Registry maps caller-chosen ids to external systems
 * Uses pointer semantics as it's an API, not data
 * It is constructed once and passed to every consumer; there is no package-level instance
 */
type Registry struct {
	mu        sync.RWMutex
	systems   map[string]System
	order     []string
	transport Transport
	bus       *Bus
	logger    zerolog.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used by the registry and its bus
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry dispatching through transport
func NewRegistry(transport Transport, opts ...Option) *Registry {
	r := &Registry{
		systems:   make(map[string]System),
		transport: transport,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.bus = NewBus(r.logger)
	return r
}

// Bus returns the event bus the registry publishes on
func (r *Registry) Bus() *Bus {
	return r.bus
}

/* Register stores system under id, replacing any previous entry
 * A replaced entry keeps its position in List
 * Only the presence of APIURL is checked
 */
func (r *Registry) Register(id string, system System) error {
	if system.Config.APIURL == "" {
		return fmt.Errorf("registering %s: %w", id, ErrMissingAPIURL)
	}

	r.mu.Lock()
	if _, exists := r.systems[id]; !exists {
		r.order = append(r.order, id)
	}
	r.systems[id] = system
	r.mu.Unlock()

	r.logger.Debug().Str("system_id", id).Str("kind", system.Kind.String()).Msg("system registered")
	r.bus.emit(SystemRegistered{ID: id, System: system})
	return nil
}

// Unregister removes id if present; the event is emitted either way
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	if _, exists := r.systems[id]; exists {
		delete(r.systems, id)
		for i, existing := range r.order {
			if existing == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	r.bus.emit(SystemUnregistered{ID: id})
}

// Get retrieves a system by id
func (r *Registry) Get(id string) (System, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	system, ok := r.systems[id]
	return system, ok
}

// Entry pairs a system with its registry id
type Entry struct {
	ID     string
	System System
}

// Entries returns every system with its id, in registration order
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, Entry{ID: id, System: r.systems[id]})
	}
	return entries
}

// List returns every system in registration order
func (r *Registry) List() []System {
	entries := r.Entries()
	systems := make([]System, 0, len(entries))
	for _, e := range entries {
		systems = append(systems, e.System)
	}
	return systems
}

// Len returns the number of registered systems
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.systems)
}

/* Dispatch performs one logical call to the system registered under id
 * Unknown and inactive systems fail before any network activity
 */
func (r *Registry) Dispatch(ctx context.Context, id string, payload any) (json.RawMessage, error) {
	system, ok := r.Get(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	if !system.Active {
		return nil, &InactiveError{ID: id}
	}

	result, err := r.transport.Send(ctx, system.Config, payload)
	if err != nil {
		r.logger.Warn().Err(err).Str("system_id", id).Msg("dispatch failed")
		r.bus.emit(SystemError{ID: id, Err: err})
		return nil, err
	}

	r.bus.emit(SystemConnected{ID: id, Result: result})
	return result, nil
}

/* SendWebhook notifies the system's webhook URL about event
 * Absent systems and systems without a webhook URL are ignored
 * Delivery failures are logged, never returned
 */
func (r *Registry) SendWebhook(ctx context.Context, id, event string, data any) {
	system, ok := r.Get(id)
	if !ok || system.Config.WebhookURL == "" {
		return
	}

	if err := r.transport.Notify(ctx, system.Config, event, data); err != nil {
		r.logger.Error().Err(err).Str("system_id", id).Str("event", event).Msg("sending webhook")
	}
}
