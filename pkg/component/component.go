package component

import (
	"fmt"
	"sync/atomic"
)

// RenderFunc renders a component within its Owner scope.
type RenderFunc func(o *Owner)

// Component is a renderable unit bound to a Scheduler.
type Component struct {
	owner  *Owner
	render RenderFunc
	sched  *Scheduler

	// renders is read by inspectors off the UI goroutine.
	renders atomic.Int64
}

// ID returns the component's identifier, which is its Owner's ID.
func (c *Component) ID() uint64 {
	return c.owner.id
}

// Owner returns the component's scope.
func (c *Component) Owner() *Owner {
	return c.owner
}

// Renders returns how many times the component has rendered.
func (c *Component) Renders() int {
	return int(c.renders.Load())
}

// MarkDirty schedules a re-render on the component's scheduler.
// Repeated calls before the next Flush result in a single render.
func (c *Component) MarkDirty() {
	if c.sched == nil {
		return
	}
	c.sched.enqueue(c)
}

// Render runs the render function, then the commit-phase callbacks the render
// registered.
func (c *Component) Render() error {
	if c.owner.disposed.Load() {
		return ErrDisposed
	}

	c.owner.beginRender()
	c.render(c.owner)
	c.renders.Add(1)
	c.owner.endRender()

	if c.sched != nil {
		c.sched.rendered(c)
	}
	return nil
}

// Unmount disposes the component's scope and its children.
func (c *Component) Unmount() {
	c.owner.Dispose()
}

// String returns the component name and ID for logs.
func (c *Component) String() string {
	return fmt.Sprintf("%s#%d", c.owner.describe(), c.owner.id)
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
