package hooks

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/component"
	"github.com/vango-dev/vstore/pkg/store"
)

// Slice is the value a component reads from a store, with the store's write
// operations attached.
type Slice[T any] struct {
	// Value is the store value this render should use.
	Value T

	store *store.Store[T]
}

// Set writes v to the store.
func (s Slice[T]) Set(v T) {
	s.store.Set(v)
}

// Update writes fn(current) to the store.
func (s Slice[T]) Update(fn func(prev T) T) {
	s.store.Update(fn)
}

// Store returns the store the slice was read from.
func (s Slice[T]) Store() *store.Store[T] {
	return s.store
}

var subscriberIDs uint64

// =============================================================================
// External-store subscription
// =============================================================================

// syncBinding is the per-component state behind UseSyncStore. Like
// directBinding it is attached as a keyed Subscriber, so every render can
// re-attach without adding entries.
type syncBinding[T any] struct {
	id    uint64
	owner *component.Owner

	mu       sync.Mutex
	store    *store.Store[T]
	snapshot T
	detach   store.Unsubscribe
}

// UseSyncStore returns the store's current value and re-renders the
// component when it changes.
//
// The component subscribes on its first render, re-subscribes on a later
// render if the store was destroyed in between, and unsubscribes when its
// owner is disposed. Notifications that leave the store equal to the value
// the component last rendered are ignored, and multiple changes before the
// next Flush produce one re-render.
func UseSyncStore[T any](o *component.Owner, s *store.Store[T]) Slice[T] {
	mustOwner(o, "UseSyncStore")

	b := component.Slot(o, func() *syncBinding[T] {
		b := &syncBinding[T]{
			id:    atomic.AddUint64(&subscriberIDs, 1),
			owner: o,
		}
		o.OnCleanup(b.release)
		return b
	})
	b.bind(s)

	value := s.Get()
	b.mu.Lock()
	b.snapshot = value
	b.mu.Unlock()

	o.AfterRender(b.checkTearing)
	o.SetDebugValue(debugLabel(s), value)

	return Slice[T]{Value: value, store: s}
}

// bind attaches to s, detaching from a previous store. Attaching again to
// the same store is a no-op unless the store was destroyed.
func (b *syncBinding[T]) bind(s *store.Store[T]) {
	b.mu.Lock()
	old, switched := b.detach, b.store != s
	b.store = s
	b.mu.Unlock()

	if switched && old != nil {
		old()
	}
	detach := s.Attach(b)

	b.mu.Lock()
	b.detach = detach
	b.mu.Unlock()
}

// ID implements store.Subscriber.
func (b *syncBinding[T]) ID() uint64 {
	return b.id
}

// StoreChanged implements store.Subscriber. It dirties the component if the
// store moved away from its snapshot.
func (b *syncBinding[T]) StoreChanged(_, _ T) {
	if b.stale() {
		b.owner.Invalidate()
	}
}

// checkTearing runs after render: a write between the render's read and the
// commit leaves the snapshot stale, so render again.
func (b *syncBinding[T]) checkTearing() {
	if b.stale() {
		b.owner.Invalidate()
	}
}

func (b *syncBinding[T]) stale() bool {
	b.mu.Lock()
	s, snapshot := b.store, b.snapshot
	b.mu.Unlock()

	if s == nil {
		return false
	}
	return !s.Equal(snapshot, s.Get())
}

func (b *syncBinding[T]) release() {
	b.mu.Lock()
	detach := b.detach
	b.detach = nil
	b.store = nil
	b.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// =============================================================================
// Direct subscription
// =============================================================================

// directBinding is the per-component state behind UseStore. It is attached to
// the store as a keyed Subscriber, so re-attaching on every render keeps a
// single subscription.
type directBinding[T any] struct {
	id    uint64
	owner *component.Owner

	mu     sync.Mutex
	store  *store.Store[T]
	slice  T
	detach store.Unsubscribe
}

// UseStore returns a component-local copy of the store's value. Every change
// the store reports refreshes the copy from the store and re-renders the
// component.
//
// Unlike UseSyncStore, the returned value is the copy taken at the last
// notification rather than a fresh read at render time.
func UseStore[T any](o *component.Owner, s *store.Store[T]) Slice[T] {
	mustOwner(o, "UseStore")

	d := component.Slot(o, func() *directBinding[T] {
		d := &directBinding[T]{
			id:    atomic.AddUint64(&subscriberIDs, 1),
			owner: o,
		}
		o.OnCleanup(d.release)
		return d
	})
	d.bind(s)

	d.mu.Lock()
	value := d.slice
	d.mu.Unlock()

	o.SetDebugValue(debugLabel(s), value)
	return Slice[T]{Value: value, store: s}
}

// ID implements store.Subscriber.
func (d *directBinding[T]) ID() uint64 {
	return d.id
}

// StoreChanged implements store.Subscriber. The copy is the store's current
// value, which is newer than next when an earlier listener wrote to the store
// during this pass.
func (d *directBinding[T]) StoreChanged(_, _ T) {
	d.mu.Lock()
	s := d.store
	if s != nil {
		d.slice = s.Get()
	}
	d.mu.Unlock()

	d.owner.Invalidate()
}

// bind attaches to s. Attaching again to the same store is a no-op unless
// the store was destroyed, in which case the copy is refreshed because
// changes made while detached were never delivered.
func (d *directBinding[T]) bind(s *store.Store[T]) {
	d.mu.Lock()
	old, switched := d.detach, d.store != s
	if switched || !s.Attached(d.id) {
		d.store = s
		d.slice = s.Get()
	}
	d.mu.Unlock()

	if switched && old != nil {
		old()
	}
	detach := s.Attach(d)

	d.mu.Lock()
	d.detach = detach
	d.mu.Unlock()
}

func (d *directBinding[T]) release() {
	d.mu.Lock()
	detach := d.detach
	d.detach = nil
	d.store = nil
	d.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// =============================================================================
// Component-scoped stores
// =============================================================================

// UseLocalStore returns a store created on the component's first render and
// destroyed when the component unmounts. init runs once.
func UseLocalStore[T any](o *component.Owner, init func() T, opts ...store.Option) *store.Store[T] {
	mustOwner(o, "UseLocalStore")

	return component.Slot(o, func() *store.Store[T] {
		s := store.NewFunc(init, opts...)
		o.OnCleanup(s.Destroy)
		return s
	})
}

// mustOwner panics with a coded *errors.VStoreError when a hook cannot run.
func mustOwner(o *component.Owner, hook string) {
	if o == nil {
		panic(errors.New(errors.CodeHookWithoutOwner).
			WithDetail(fmt.Sprintf("%s was called with a nil owner.", hook)).
			WithSuggestion("Call hooks from a render function and pass the *component.Owner it receives."))
	}
	if o.IsDisposed() {
		panic(errors.New(errors.CodeHookOnDisposedOwner).
			WithDetail(fmt.Sprintf("%s was called on owner %q after it was disposed.", hook, o.Name())))
	}
}

func debugLabel(s interface{ Name() string }) string {
	return "store:" + s.Name()
}
