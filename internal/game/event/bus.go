package event

// Listener receives every published event.
type Listener func(Event)

type subscription struct {
	handle   int
	kinds    map[Kind]bool // nil means all kinds
	listener Listener
}

// Bus delivers events to listeners strictly in publish order.
//
// An event published from inside a listener is queued and delivered after the
// current event has reached every listener, so all listeners observe one
// global order. Listeners are called in subscription order.
//
// Not safe for concurrent use; a battle session serializes access through its loop.
type Bus struct {
	subs        []subscription
	nextHandle  int
	seq         int64
	queue       []Event
	dispatching bool
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers listener for all events and returns a handle for Unsubscribe.
// A nil listener is ignored and returns -1.
func (b *Bus) Subscribe(listener Listener) int {
	return b.subscribe(nil, listener)
}

// SubscribeKinds registers listener for the given kinds only.
func (b *Bus) SubscribeKinds(listener Listener, kinds ...Kind) int {
	set := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return b.subscribe(set, listener)
}

func (b *Bus) subscribe(kinds map[Kind]bool, listener Listener) int {
	if listener == nil {
		return -1
	}
	h := b.nextHandle
	b.nextHandle++
	b.subs = append(b.subs, subscription{handle: h, kinds: kinds, listener: listener})
	return h
}

// Unsubscribe removes the listener registered under handle. Unknown handles are ignored.
func (b *Bus) Unsubscribe(handle int) {
	for i, s := range b.subs {
		if s.handle == handle {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish stamps e with the next sequence number and delivers it.
//
// Postcondition: Returns the assigned sequence number.
func (b *Bus) Publish(e Event) int64 {
	b.seq++
	e.Seq = b.seq
	b.queue = append(b.queue, e)
	if b.dispatching {
		return e.Seq
	}
	b.dispatching = true
	defer func() { b.dispatching = false }()
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		for _, s := range b.snapshot() {
			if s.kinds == nil || s.kinds[next.Kind] {
				s.listener(next)
			}
		}
	}
	return e.Seq
}

// LastSeq returns the sequence number of the most recently published event.
func (b *Bus) LastSeq() int64 { return b.seq }

func (b *Bus) snapshot() []subscription {
	out := make([]subscription, len(b.subs))
	copy(out, b.subs)
	return out
}
