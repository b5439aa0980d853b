package xcqrs

import (
	"maps"
	"time"
)

// Kind tells the three envelope families apart.
type Kind string

const (
	KindCommand Kind = "command"
	KindQuery   Kind = "query"
	KindEvent   Kind = "event"
)

// Metadata is an open bag for headers/tracing/tenancy/etc.
type Metadata map[string]any

// Message is the header shared by every envelope. Envelopes are built by the bus
// and must be treated as read-only by handlers and middleware.
type Message struct {
	// ID is a unique message identifier assigned by the bus.
	ID string
	// Type is the routing key the handler was registered under.
	Type string
	// CreatedAt is the construction timestamp (from the injected clock).
	CreatedAt time.Time
	// Metadata is a private copy of what the caller passed in; nil when none was given.
	Metadata Metadata
}

// Envelope is implemented by Command, Query and Event.
type Envelope interface {
	Header() Message
	Kind() Kind
}

// Command is a write intent directed at exactly one handler.
type Command struct {
	Message
	Data        any
	AggregateID string
}

// Query is a read intent directed at exactly one handler.
type Query struct {
	Message
	Params any
}

// Event is a fact broadcast to zero or more subscribers. Version is carried as
// given; ordering and gaps are the caller's concern.
type Event struct {
	Message
	Data        any
	AggregateID string
	Version     int64
}

func (c Command) Header() Message { return c.Message }
func (c Command) Kind() Kind      { return KindCommand }

func (q Query) Header() Message { return q.Message }
func (q Query) Kind() Kind      { return KindQuery }

func (e Event) Header() Message { return e.Message }
func (e Event) Kind() Kind      { return KindEvent }

var (
	_ Envelope = Command{}
	_ Envelope = Query{}
	_ Envelope = Event{}
)

// Get returns the metadata value stored under key.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// String returns the metadata value under key when it holds a string.
func (m Metadata) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func copyMetadata(m Metadata) Metadata {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}

func (b *Bus) header(typ string, meta Metadata) Message {
	return Message{
		ID:        b.newID(),
		Type:      typ,
		CreatedAt: b.clock.Now(),
		Metadata:  copyMetadata(meta),
	}
}
