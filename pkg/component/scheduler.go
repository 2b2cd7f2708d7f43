package component

import (
	"fmt"
	"log/slog"
	"sync"
)

// DefaultMaxPasses bounds the number of render passes a single Flush runs.
const DefaultMaxPasses = 100

// Scheduler collects dirty components and re-renders them on Flush.
type Scheduler struct {
	mu sync.Mutex

	// dirty is the render queue in first-marked order; queued dedups it.
	dirty  []*Component
	queued map[uint64]bool

	// tasks are functions dispatched to the UI goroutine.
	tasks []func()

	maxPasses int
	logger    *slog.Logger
	onRender  func(c *Component)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxPasses sets how many render passes Flush runs before giving up with
// ErrRenderLoop.
func WithMaxPasses(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxPasses = n
		}
	}
}

// WithLogger sets the scheduler logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// OnRender registers a callback invoked after every component render.
func OnRender(fn func(c *Component)) Option {
	return func(s *Scheduler) {
		s.onRender = fn
	}
}

// NewScheduler creates a scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		queued:    make(map[uint64]bool),
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Mount creates a component under parent, renders it once and returns it.
// parent may be nil for a root component.
func (s *Scheduler) Mount(parent *Owner, name string, render RenderFunc) *Component {
	owner := NewOwner(parent, name)
	c := &Component{owner: owner, render: render, sched: s}
	owner.component = c

	owner.OnCleanup(func() { s.forget(c) })

	if parent != nil && parent.disposed.Load() {
		owner.Dispose()
		return c
	}
	_ = c.Render()
	return c
}

// Dispatch queues fn to run on the UI goroutine at the start of the next
// Flush pass. Safe for concurrent use.
func (s *Scheduler) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
}

// Pending returns the number of queued components and tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty) + len(s.tasks)
}

// Flush runs dispatched tasks and re-renders dirty components until nothing
// is left to do. Each component renders at most once per pass; components
// marked dirty while a pass runs are rendered in the next pass.
func (s *Scheduler) Flush() error {
	for pass := 0; ; pass++ {
		tasks, dirty := s.drain()
		if len(tasks) == 0 && len(dirty) == 0 {
			return nil
		}
		if pass >= s.maxPasses {
			s.logger.Error("render loop did not settle",
				"passes", pass,
				"pending", len(dirty),
			)
			return fmt.Errorf("%w after %d passes", ErrRenderLoop, pass)
		}

		for _, task := range tasks {
			task()
		}
		for _, c := range dirty {
			if c.owner.disposed.Load() {
				continue
			}
			if err := c.Render(); err != nil {
				return fmt.Errorf("render %s: %w", c, err)
			}
		}
	}
}

// enqueue adds c to the render queue unless it is already queued.
func (s *Scheduler) enqueue(c *Component) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.ID()
	if s.queued[id] {
		return
	}
	s.queued[id] = true
	s.dirty = append(s.dirty, c)
}

// drain takes the queued work for one pass.
func (s *Scheduler) drain() ([]func(), []*Component) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, dirty := s.tasks, s.dirty
	s.tasks, s.dirty = nil, nil
	for _, c := range dirty {
		delete(s.queued, c.ID())
	}
	return tasks, dirty
}

// forget drops c from the render queue.
func (s *Scheduler) forget(c *Component) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.ID()
	if !s.queued[id] {
		return
	}
	delete(s.queued, id)
	for i, queued := range s.dirty {
		if queued == c {
			s.dirty = append(s.dirty[:i], s.dirty[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) rendered(c *Component) {
	if s.onRender != nil {
		s.onRender(c)
	}
}
