// Package events publishes domain events (orders placed, catalog changes,
// registrations) to a RabbitMQ topic exchange.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher sends one event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Envelope is the wire shape of every event.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func newEnvelope(routingKey string, payload any) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      routingKey,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Encode wraps payload in an Envelope and marshals it.
func Encode(routingKey string, payload any) ([]byte, error) {
	return json.Marshal(newEnvelope(routingKey, payload))
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, routingKey string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, newEnvelope(routingKey, payload))
	return nil
}

// Published returns a copy of the recorded events.
func (r *Recorder) Published() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the routing keys of the recorded events in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Published() {
		out = append(out, e.Type)
	}
	return out
}
