package events

import "time"

// Kind identifies an event type as a namespaced string, e.g.
// "user_input.transcript_final".
type Kind string

// Event is the immutable value delivered to orchestration observers. Events
// are created once, never mutated, and safe to hand across goroutines.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and creation time shared by every event. Embed it and
// construct it through NewBase.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
