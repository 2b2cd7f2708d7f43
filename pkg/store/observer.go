package store

import "time"

// EventKind identifies what happened to a store.
type EventKind uint8

const (
	// EventSkip is a write that resolved to an identical value.
	EventSkip EventKind = iota + 1

	// EventCommit is a write that changed the value; it is emitted after the
	// notification pass completes.
	EventCommit

	// EventSubscribe is a new subscription.
	EventSubscribe

	// EventUnsubscribe is a removed subscription.
	EventUnsubscribe

	// EventDestroy is a Destroy call.
	EventDestroy

	// EventListenerPanic is a listener that panicked during notification.
	EventListenerPanic
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSkip:
		return "skip"
	case EventCommit:
		return "commit"
	case EventSubscribe:
		return "subscribe"
	case EventUnsubscribe:
		return "unsubscribe"
	case EventDestroy:
		return "destroy"
	case EventListenerPanic:
		return "listener_panic"
	default:
		return "unknown"
	}
}

// Event describes a single store operation.
type Event struct {
	// Store and StoreID identify the store.
	Store   string
	StoreID uint64

	Kind EventKind

	// Subscription is the subscription token for subscribe, unsubscribe and
	// listener panic events.
	Subscription uint64

	// Subscribers is the subscription count after a subscribe, unsubscribe
	// or destroy.
	Subscribers int

	// Listeners is the number of listeners invoked by a commit, or the
	// number cleared by a destroy.
	Listeners int

	// Panics is the number of listeners that panicked during a commit.
	Panics int

	// Start and Duration time the notification pass of a commit.
	Start    time.Time
	Duration time.Duration

	// Err is the *ListenerPanicError of a listener panic event.
	Err error
}

// Observer receives store events. Observers are called synchronously on the
// goroutine that performed the operation and must not block.
type Observer interface {
	ObserveStore(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// ObserveStore calls f(ev).
func (f ObserverFunc) ObserveStore(ev Event) {
	f(ev)
}

// observerEntry gives an observer an identity for removal.
type observerEntry struct {
	id  uint64
	obs Observer
}

// AddObserver registers obs and returns a function that removes it.
func (s *Store[T]) AddObserver(obs Observer) (remove func()) {
	if obs == nil {
		return func() {}
	}
	entry := &observerEntry{id: nextID(), obs: obs}

	s.mu.Lock()
	s.observers = append(s.observers, entry)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.observers {
			if existing == entry {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// emit stamps ev with the store's identity and delivers it to observers.
func (s *Store[T]) emit(ev Event) {
	s.mu.Lock()
	if len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	observers := make([]*observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	ev.Store = s.name
	ev.StoreID = s.id
	for _, entry := range observers {
		entry.obs.ObserveStore(ev)
	}
}
