package xcqrs

import (
	"slices"
	"sync"
)

// Registry maps type names to handlers: one owner per command or query type,
// an ordered subscriber list per event type.
//
// Entries are never removed individually; Clear resets everything at once.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]CommandHandler
	queries  map[string]QueryHandler
	events   map[string][]EventHandler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: map[string]CommandHandler{},
		queries:  map[string]QueryHandler{},
		events:   map[string][]EventHandler{},
	}
}

// RegisterCommand binds h to typ. A second registration for the same type fails
// and leaves the existing binding untouched.
func (r *Registry) RegisterCommand(typ string, h CommandHandler) error {
	if typ == "" {
		return ErrInvalidMessageType
	}
	if h == nil {
		return ErrNilHandler
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[typ]; ok {
		return &DuplicateRegistrationError{Kind: KindCommand, Type: typ}
	}
	r.commands[typ] = h
	return nil
}

// RegisterQuery binds h to typ under the same single-owner rule as commands.
func (r *Registry) RegisterQuery(typ string, h QueryHandler) error {
	if typ == "" {
		return ErrInvalidMessageType
	}
	if h == nil {
		return ErrNilHandler
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queries[typ]; ok {
		return &DuplicateRegistrationError{Kind: KindQuery, Type: typ}
	}
	r.queries[typ] = h
	return nil
}

// RegisterEvent appends h to the subscribers of typ.
func (r *Registry) RegisterEvent(typ string, h EventHandler) error {
	if typ == "" {
		return ErrInvalidMessageType
	}
	if h == nil {
		return ErrNilHandler
	}
	r.mu.Lock()
	r.events[typ] = append(r.events[typ], h)
	r.mu.Unlock()
	return nil
}

func (r *Registry) Command(typ string) (CommandHandler, bool) {
	r.mu.RLock()
	h, ok := r.commands[typ]
	r.mu.RUnlock()
	return h, ok
}

func (r *Registry) Query(typ string) (QueryHandler, bool) {
	r.mu.RLock()
	h, ok := r.queries[typ]
	r.mu.RUnlock()
	return h, ok
}

// Events returns a copy of the subscribers of typ in registration order.
func (r *Registry) Events(typ string) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.events[typ])
}

// Clear drops every binding of every kind.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.commands = map[string]CommandHandler{}
	r.queries = map[string]QueryHandler{}
	r.events = map[string][]EventHandler{}
	r.mu.Unlock()
}

// Counts returns the number of command handlers, query handlers and event
// bindings (summed over all event types).
func (r *Registry) Counts() (commands, queries, events int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, hs := range r.events {
		events += len(hs)
	}
	return len(r.commands), len(r.queries), events
}

// Types lists the registered type names per kind, sorted.
func (r *Registry) Types() HandlerTypes {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return HandlerTypes{
		Commands: sortedKeys(r.commands),
		Queries:  sortedKeys(r.queries),
		Events:   sortedKeys(r.events),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
