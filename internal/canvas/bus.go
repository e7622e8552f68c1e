package canvas

// EventType identifies a physical input event category.
type EventType string

const (
	EventPointerDown EventType = "pointer.down"
	EventPointerMove EventType = "pointer.move"
	EventPointerUp   EventType = "pointer.up"
	EventKeyDown     EventType = "key.down"
	EventKeyUp       EventType = "key.up"
)

// Bus fans one physical event out to every subscriber of its type,
// synchronously and in subscription order. It is an explicit ordered callback
// list, not a queue: dispatch for one event completes before the next event
// is emitted, so consumers never observe interleaved deliveries.
type Bus struct {
	nextID      int
	subscribers map[EventType][]subscriber
}

type subscriber struct {
	id int
	fn func(*Event)
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[EventType][]subscriber)}
}

// Subscribe registers a handler for an event type and returns its
// unsubscribe function.
func (b *Bus) Subscribe(t EventType, fn func(*Event)) func() {
	b.nextID++
	id := b.nextID
	b.subscribers[t] = append(b.subscribers[t], subscriber{id: id, fn: fn})
	return func() {
		subs := b.subscribers[t]
		for i, s := range subs {
			if s.id == id {
				b.subscribers[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers the event to all current subscribers of its type, in
// subscription order. Exactly one Emit call corresponds to one physical
// event; consumers must early-return when the event is irrelevant to them.
func (b *Bus) Emit(t EventType, ev *Event) {
	subs := b.subscribers[t]
	// Iterate a snapshot so a handler unsubscribing mid-dispatch cannot
	// skip the next subscriber.
	snapshot := make([]subscriber, len(subs))
	copy(snapshot, subs)
	for _, s := range snapshot {
		s.fn(ev)
	}
}
