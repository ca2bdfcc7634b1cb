// Package events carries lifecycle and diagnostic notifications out of the
// engine and the inference controller without touching the token stream.
package events

// Event is a named notification with optional key/value fields.
type Event struct {
	Name   string
	RunID  string
	Fields map[string]any
}

// Names published by this module.
const (
	SpawnStart      = "spawn_start"
	SpawnReady      = "spawn_ready"
	SpawnExit       = "spawn_exit"
	SpawnStop       = "spawn_stop"
	ModelLoaded     = "model_loaded"
	Diagnostic      = "diagnostic"
	GenerationEnded = "generation_ended"
)

// Publisher receives events. Implementations should be lightweight and
// non-blocking; Publish must not panic.
type Publisher interface {
	Publish(Event)
}

// Noop drops events.
type Noop struct{}

func (Noop) Publish(Event) {}

// Multi fans an event out to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}

// OrNoop returns p, or Noop when p is nil.
func OrNoop(p Publisher) Publisher {
	if p == nil {
		return Noop{}
	}
	return p
}
