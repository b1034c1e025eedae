package event

// Recorder accumulates every event it is subscribed to, in delivery order.
// The battle journal and tests use it to capture a session's stream.
type Recorder struct {
	events []Event
}

// Attach subscribes r to all events on bus.
func (r *Recorder) Attach(bus *Bus) int {
	return bus.Subscribe(r.record)
}

func (r *Recorder) record(e Event) {
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events of kind k, in order.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many recorded events have kind k.
func (r *Recorder) Count(k Kind) int {
	return len(r.OfKind(k))
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.events = nil
}
