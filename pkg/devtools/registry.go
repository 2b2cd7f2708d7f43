package devtools

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/component"
	"github.com/vango-dev/vstore/pkg/store"
)

// DefaultSendBuffer is the number of frames queued per stream client before
// the client is dropped as too slow.
const DefaultSendBuffer = 64

// StoreInfo describes a registered store.
type StoreInfo struct {
	Name        string `json:"name"`
	ID          uint64 `json:"id"`
	Type        string `json:"type"`
	Subscribers int    `json:"subscribers"`
	Value       string `json:"value"`
}

// ComponentInfo describes a registered component and the debug values its
// hooks recorded during its last render.
type ComponentInfo struct {
	Name    string      `json:"name"`
	ID      uint64      `json:"id"`
	Renders int         `json:"renders"`
	Values  []DebugInfo `json:"values"`
}

// DebugInfo is one labelled debug value.
type DebugInfo struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Registry tracks the stores and components exposed by the inspector.
type Registry struct {
	mu         sync.RWMutex
	stores     map[string]*entry
	components map[uint64]*component.Component

	logger     *slog.Logger
	sendBuffer int
	now        func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithSendBuffer sets how many frames a stream client may have queued.
func WithSendBuffer(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.sendBuffer = n
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		stores:     make(map[string]*entry),
		components: make(map[uint64]*component.Component),
		sendBuffer: DefaultSendBuffer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// entry is a registered store with its type erased.
type entry struct {
	name   string
	id     uint64
	typ    string
	len    func() int
	value  func() string
	listen func(fn func(next, prev string)) store.Unsubscribe

	hub         *hub
	dropObserve func()
}

func (e *entry) info() StoreInfo {
	return StoreInfo{
		Name:        e.name,
		ID:          e.id,
		Type:        e.typ,
		Subscribers: e.len(),
		Value:       e.value(),
	}
}

// Register exposes s under its name. It returns a function that removes the
// store from the registry and closes its streams.
func Register[T any](r *Registry, s *store.Store[T]) (unregister func(), err error) {
	var zero T
	e := &entry{
		name:  s.Name(),
		id:    s.ID(),
		typ:   fmt.Sprintf("%T", zero),
		len:   s.Len,
		value: func() string { return render(s.Get()) },
		listen: func(fn func(next, prev string)) store.Unsubscribe {
			return s.Subscribe(func(next, prev T) {
				fn(render(next), render(prev))
			})
		},
	}
	e.hub = newHub(e, r.sendBuffer, r.now, r.logger)

	r.mu.Lock()
	if _, exists := r.stores[e.name]; exists {
		r.mu.Unlock()
		return nil, errors.New(errors.CodeDuplicateStore).
			WithDetail(fmt.Sprintf("A store named %q is already registered", e.name)).
			WithSuggestion("Give the store a unique name with store.WithName")
	}
	r.stores[e.name] = e
	r.mu.Unlock()

	e.dropObserve = s.AddObserver(store.ObserverFunc(func(ev store.Event) {
		if ev.Kind == store.EventDestroy {
			e.hub.destroyed()
		}
	}))

	r.logger.Debug("devtools store registered", "store", e.name, "type", e.typ)

	var once sync.Once
	return func() {
		once.Do(func() { r.unregister(e) })
	}, nil
}

// MustRegister is like Register but panics if the name is taken.
func MustRegister[T any](r *Registry, s *store.Store[T]) func() {
	unregister, err := Register(r, s)
	if err != nil {
		panic(err)
	}
	return unregister
}

func (r *Registry) unregister(e *entry) {
	r.mu.Lock()
	if r.stores[e.name] == e {
		delete(r.stores, e.name)
	}
	r.mu.Unlock()

	e.dropObserve()
	e.hub.close()
}

// Stores returns the registered stores sorted by name.
func (r *Registry) Stores() []StoreInfo {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.stores))
	for _, e := range r.stores {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	out := make([]StoreInfo, len(entries))
	for i, e := range entries {
		out[i] = e.info()
	}
	return out
}

// Store returns the named store.
func (r *Registry) Store(name string) (StoreInfo, bool) {
	e := r.lookup(name)
	if e == nil {
		return StoreInfo{}, false
	}
	return e.info(), true
}

func (r *Registry) lookup(name string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stores[name]
}

// AddComponent exposes c's debug values. The component is removed from the
// registry when it unmounts. Call it from the UI goroutine.
func (r *Registry) AddComponent(c *component.Component) {
	r.mu.Lock()
	r.components[c.ID()] = c
	r.mu.Unlock()

	c.Owner().OnCleanup(func() {
		r.mu.Lock()
		delete(r.components, c.ID())
		r.mu.Unlock()
	})
}

// Components returns the registered components ordered by ID.
func (r *Registry) Components() []ComponentInfo {
	r.mu.RLock()
	comps := make([]*component.Component, 0, len(r.components))
	for _, c := range r.components {
		comps = append(comps, c)
	}
	r.mu.RUnlock()

	sort.Slice(comps, func(i, j int) bool { return comps[i].ID() < comps[j].ID() })

	out := make([]ComponentInfo, len(comps))
	for i, c := range comps {
		values := c.Owner().DebugValues()
		info := ComponentInfo{
			Name:    c.Owner().Name(),
			ID:      c.ID(),
			Renders: c.Renders(),
			Values:  make([]DebugInfo, len(values)),
		}
		for j, v := range values {
			info.Values[j] = DebugInfo{Label: v.Label, Value: render(v.Value)}
		}
		out[i] = info
	}
	return out
}

// Close unregisters every store and closes all streams.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.stores))
	for _, e := range r.stores {
		entries = append(entries, e)
	}
	r.stores = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.dropObserve()
		e.hub.close()
	}
}

// render is the debug rendering of a store value.
func render(v any) string {
	return fmt.Sprintf("%+v", v)
}
