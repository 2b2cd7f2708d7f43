package store

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Listener observes a single state transition.
type Listener[T any] func(next, prev T)

// Subscriber is a listener with a stable identity.
// Attaching a Subscriber whose ID is already attached is a no-op, which lets
// long-lived owners (components, sessions) subscribe from code that runs many
// times without piling up duplicate entries.
type Subscriber[T any] interface {
	// ID returns the subscriber's stable identifier.
	ID() uint64

	// StoreChanged is called with the new and the previous value.
	StoreChanged(next, prev T)
}

// Unsubscribe removes the subscription it was returned for.
// Calling it more than once is safe; only the first call has an effect.
type Unsubscribe func()

// subscription is one entry in a store's listener set.
type subscription[T any] struct {
	// id is the capability token handed out by Subscribe/Attach.
	id uint64

	// key is the Subscriber ID for keyed entries.
	key   uint64
	keyed bool

	fn Listener[T]

	// active is cleared on removal so that an in-flight notification pass
	// skips entries removed by an earlier listener.
	active atomic.Bool
}

// Store is a mutable state cell with an ordered set of listeners.
// The zero value is not usable; create stores with New or NewFunc.
type Store[T any] struct {
	id   uint64
	name string

	// mu protects state, version, subs and observers.
	mu        sync.Mutex
	state     T
	version   uint64
	subs      []*subscription[T]
	observers []*observerEntry

	equal     func(a, b T) bool
	logger    *slog.Logger
	propagate bool
}

// New creates a store holding initial.
func New[T any](initial T, opts ...Option) *Store[T] {
	o := applyOptions(opts)

	s := &Store[T]{
		id:        nextID(),
		name:      o.name,
		state:     initial,
		logger:    o.logger,
		propagate: o.propagate,
	}
	if s.name == "" {
		s.name = fmt.Sprintf("store-%d", s.id)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if o.equal != nil {
		eq, ok := o.equal.(func(a, b T) bool)
		if !ok {
			panic(fmt.Sprintf("store %q: WithEqual function has type %T, want func(%T, %T) bool",
				s.name, o.equal, initial, initial))
		}
		s.equal = eq
	}
	for _, obs := range o.observers {
		s.observers = append(s.observers, &observerEntry{id: nextID(), obs: obs})
	}

	return s
}

// NewFunc creates a store whose initial value is produced by calling init
// once, immediately.
func NewFunc[T any](init func() T, opts ...Option) *Store[T] {
	return New(init(), opts...)
}

// ID returns the store's process-unique identifier.
func (s *Store[T]) ID() uint64 {
	return s.id
}

// Name returns the store's name, set with WithName or generated from its ID.
func (s *Store[T]) Name() string {
	return s.name
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the value with v and notifies listeners, unless v is identical
// to the current value.
func (s *Store[T]) Set(v T) {
	next, prev, subs, changed := s.swap(func(T) T { return v })
	s.finish(next, prev, subs, changed)
}

// Update replaces the value with fn(current) and notifies listeners, unless
// the result is identical to the current value.
//
// fn runs without the store locked, so it may read the store. If another
// write commits while fn runs, fn is called again with the newer value;
// it should have no side effects.
func (s *Store[T]) Update(fn func(prev T) T) {
	for {
		s.mu.Lock()
		current, version := s.state, s.version
		s.mu.Unlock()

		next, prev, subs, changed, ok := s.commitIf(version, fn(current))
		if ok {
			s.finish(next, prev, subs, changed)
			return
		}
	}
}

// Subscribe adds fn to the listener set.
// Every call creates a new subscription, even for the same function.
func (s *Store[T]) Subscribe(fn Listener[T]) Unsubscribe {
	if fn == nil {
		return func() {}
	}

	sub := &subscription[T]{id: nextID(), fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	total := len(s.subs)
	s.mu.Unlock()

	s.emit(Event{Kind: EventSubscribe, Subscription: sub.id, Subscribers: total})
	return s.unsubscriber(sub)
}

// Attach adds sub to the listener set keyed by sub.ID().
// If a subscriber with the same ID is already attached, the set is left
// unchanged and the returned Unsubscribe removes the existing entry.
func (s *Store[T]) Attach(sub Subscriber[T]) Unsubscribe {
	if sub == nil {
		return func() {}
	}
	key := sub.ID()

	s.mu.Lock()
	for _, existing := range s.subs {
		if existing.keyed && existing.key == key {
			s.mu.Unlock()
			return s.unsubscriber(existing)
		}
	}
	entry := &subscription[T]{id: nextID(), key: key, keyed: true, fn: sub.StoreChanged}
	entry.active.Store(true)
	s.subs = append(s.subs, entry)
	total := len(s.subs)
	s.mu.Unlock()

	s.emit(Event{Kind: EventSubscribe, Subscription: entry.id, Subscribers: total})
	return s.unsubscriber(entry)
}

// Attached reports whether a Subscriber with the given ID is attached.
func (s *Store[T]) Attached(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.keyed && sub.key == id {
			return true
		}
	}
	return false
}

// Len returns the number of active subscriptions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Destroy removes every subscription. The current value is kept, and the
// store accepts new writes and subscriptions afterwards.
func (s *Store[T]) Destroy() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.active.Store(false)
	}

	s.logger.Debug("store destroyed", "store", s.name, "cleared", len(subs))
	s.emit(Event{Kind: EventDestroy, Subscribers: 0, Listeners: len(subs)})
}

// unsubscriber returns an idempotent remover for sub.
func (s *Store[T]) unsubscriber(sub *subscription[T]) Unsubscribe {
	return func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}

		s.mu.Lock()
		for i, existing := range s.subs {
			if existing == sub {
				// Preserve insertion order for the remaining entries.
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
		total := len(s.subs)
		s.mu.Unlock()

		s.emit(Event{Kind: EventUnsubscribe, Subscription: sub.id, Subscribers: total})
	}
}

// finish runs the notification pass for a committed write, or reports the
// skip.
func (s *Store[T]) finish(next, prev T, subs []*subscription[T], changed bool) {
	if !changed {
		s.emit(Event{Kind: EventSkip})
		return
	}
	s.notify(subs, next, prev)
}

// swap commits the resolved value under the lock and snapshots the listeners.
func (s *Store[T]) swap(resolve func(T) T) (next, prev T, subs []*subscription[T], changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev = s.state
	next = resolve(prev)
	return s.commitLocked(prev, next)
}

// commitIf commits next if no write has committed since version was read.
// ok is false when the caller must resolve again.
func (s *Store[T]) commitIf(version uint64, next T) (_, prev T, subs []*subscription[T], changed, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return next, prev, nil, false, false
	}
	next, prev, subs, changed = s.commitLocked(s.state, next)
	return next, prev, subs, changed, true
}

// commitLocked stores next unless it is identical to prev. s.mu must be held.
func (s *Store[T]) commitLocked(prev, next T) (_, _ T, subs []*subscription[T], changed bool) {
	if s.same(prev, next) {
		return next, prev, nil, false
	}

	s.state = next
	s.version++
	subs = make([]*subscription[T], len(s.subs))
	copy(subs, s.subs)
	return next, prev, subs, true
}

// notify invokes each listener that is still subscribed, in insertion order.
func (s *Store[T]) notify(subs []*subscription[T], next, prev T) {
	start := time.Now()
	invoked, panics := 0, 0

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		invoked++
		if !s.invoke(sub, next, prev) {
			panics++
		}
	}

	s.emit(Event{
		Kind:      EventCommit,
		Listeners: invoked,
		Panics:    panics,
		Start:     start,
		Duration:  time.Since(start),
	})
}

// invoke runs one listener, recovering a panic unless panics propagate.
// It reports whether the listener returned normally.
func (s *Store[T]) invoke(sub *subscription[T], next, prev T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := newListenerPanicError(s.name, sub.id, r)
			s.logger.Error("store listener panicked",
				"store", s.name,
				"subscription", sub.id,
				"panic", err.Value,
			)
			s.emit(Event{Kind: EventListenerPanic, Subscription: sub.id, Err: err})
			if s.propagate {
				panic(err)
			}
			ok = false
		}
	}()

	sub.fn(next, prev)
	return true
}

// Equal reports whether a write of b over a would be skipped, using the
// store's WithEqual function or Identical.
func (s *Store[T]) Equal(a, b T) bool {
	return s.same(a, b)
}

// same reports whether a and b are identical under the store's equality.
func (s *Store[T]) same(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return Identical(a, b)
}
