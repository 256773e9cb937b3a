// Package feed broadcasts orderbook snapshots to subscribers after
// every committed book mutation.
package feed

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/engine"
	"github.com/opinix/opinix/internal/metrics"
)

// Event is one broadcast message: an event name carrying the sequence
// number, plus the full global snapshot. It serializes as the wire
// shape ["event_orderbook_<n>", {...}].
type Event struct {
	Name     string
	Snapshot domain.Snapshot
}

// MarshalJSON encodes the event as a two-element JSON array.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Name, e.Snapshot})
}

// Sink receives published events. Deliver must not block: slow
// consumers are the sink's problem, never the matching engine's.
type Sink interface {
	Deliver(Event)
}

// Publisher builds a global snapshot after each mutation and fans it
// out to every attached sink. One mutex serializes snapshot building,
// sequence assignment, and fan-out, so sequence numbers are strictly
// increasing and every sink observes events in publish order.
type Publisher struct {
	registry *engine.Registry
	mu       sync.Mutex
	seq      uint64
	sinks    []Sink
}

// NewPublisher creates a Publisher over the given registry.
func NewPublisher(registry *engine.Registry) *Publisher {
	return &Publisher{registry: registry}
}

// Attach registers a sink. Sinks attached mid-stream receive only
// subsequent events.
func (p *Publisher) Attach(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, s)
}

// Publish builds the current global snapshot, assigns the next sequence
// number, and delivers the event to every sink. Exactly one event is
// published per committed order placement, even when the order produced
// several trades.
func (p *Publisher) Publish() Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	evt := Event{
		Name:     fmt.Sprintf("event_orderbook_%d", p.seq),
		Snapshot: p.registry.Snapshot(),
	}
	for _, s := range p.sinks {
		s.Deliver(evt)
	}
	metrics.EventsPublished.Inc()
	return evt
}

// ResetSequence restarts numbering from zero. Used by the reset
// endpoint together with ledger and registry resets.
func (p *Publisher) ResetSequence() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq = 0
}
