package component

import (
	"sync"
	"sync/atomic"
)

// Owner represents a component scope.
// When an Owner is disposed, its children are disposed first (last created
// first), then its cleanups run in reverse registration order.
//
// Owners form a hierarchy that mirrors the component tree.
type Owner struct {
	id   uint64
	name string

	// parent is nil for a root Owner.
	parent   *Owner
	children []*Owner

	// component is the component rendered in this scope, nil for plain scopes.
	component *Component

	cleanups []func()

	// afterRender are commit-phase callbacks registered during the current
	// render. They run once, after the render function returns.
	afterRender []func()

	// Hook slot storage for stable identity across renders.
	hookSlots   []any
	hookSlotIdx int

	// debugValues collects the current render's values; published holds
	// those of the last completed render and is read under debugMu.
	debugValues []DebugValue
	debugMu     sync.Mutex
	published   []DebugValue

	// disposed is read by Invalidate, which may run off the UI goroutine.
	disposed atomic.Bool
}

// DebugValue is a labelled value a hook exposes for inspection.
type DebugValue struct {
	Label string
	Value any
}

// NewOwner creates a new Owner with the given parent.
// If parent is nil, creates a root Owner.
func NewOwner(parent *Owner, name string) *Owner {
	o := &Owner{
		id:     nextID(),
		name:   name,
		parent: parent,
	}
	if parent != nil {
		parent.children = append(parent.children, o)
	}
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Name returns the name the Owner was created with.
func (o *Owner) Name() string {
	return o.name
}

// Parent returns the parent Owner, or nil if this is a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// Component returns the component rendered in this scope, or nil.
func (o *Owner) Component() *Component {
	return o.component
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// Invalidate schedules a re-render of the component rendered in this scope.
// It is a no-op for plain scopes and disposed owners.
func (o *Owner) Invalidate() {
	if o.disposed.Load() || o.component == nil {
		return
	}
	o.component.MarkDirty()
}

// OnCleanup registers a cleanup function to run when this Owner is disposed.
// If the Owner is already disposed, fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if fn == nil {
		return
	}
	if o.disposed.Load() {
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
}

// AfterRender registers fn to run once the current render completes.
func (o *Owner) AfterRender(fn func()) {
	if fn == nil || o.disposed.Load() {
		return
	}
	o.afterRender = append(o.afterRender, fn)
}

// SetDebugValue records a labelled value for inspection. Values are reset at
// the start of every render, so hooks call it on each render.
func (o *Owner) SetDebugValue(label string, value any) {
	o.debugValues = append(o.debugValues, DebugValue{Label: label, Value: value})
}

// DebugValues returns the values recorded during the last completed render.
// Safe for concurrent use.
func (o *Owner) DebugValues() []DebugValue {
	o.debugMu.Lock()
	defer o.debugMu.Unlock()
	out := make([]DebugValue, len(o.published))
	copy(out, o.published)
	return out
}

// Dispose disposes this Owner and all its children.
// After disposal, the Owner cannot be used.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	children := o.children
	o.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	cleanups := o.cleanups
	o.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.afterRender = nil
	o.hookSlots = nil
}

func (o *Owner) removeChild(child *Owner) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// beginRender resets per-render state.
func (o *Owner) beginRender() {
	o.hookSlotIdx = 0
	o.debugValues = o.debugValues[:0]
}

// endRender publishes the render's debug values and runs the commit-phase
// callbacks registered during the render.
func (o *Owner) endRender() {
	o.debugMu.Lock()
	o.published = append(o.published[:0], o.debugValues...)
	o.debugMu.Unlock()

	callbacks := o.afterRender
	o.afterRender = nil
	for _, fn := range callbacks {
		if o.disposed.Load() {
			return
		}
		fn()
	}
}

// =============================================================================
// Hook Slot Storage for Stable Identity
// =============================================================================

// Slot returns the value stored in the next hook slot, creating it with
// init on the first render.
//
// Hooks must be called in the same order on every render; Slot panics if
// the stored value has a different type than T.
func Slot[T any](o *Owner, init func() T) T {
	idx := o.hookSlotIdx
	o.hookSlotIdx++

	if idx < len(o.hookSlots) {
		stored := o.hookSlots[idx]
		if stored == nil {
			var zero T
			return zero
		}
		v, ok := stored.(T)
		if !ok {
			var zero T
			panic("component: hook order changed in " + o.describe() +
				": slot holds " + typeName(stored) + ", want " + typeName(zero))
		}
		return v
	}

	v := init()
	o.hookSlots = append(o.hookSlots, v)
	return v
}

func (o *Owner) describe() string {
	if o.name != "" {
		return o.name
	}
	return "anonymous owner"
}
