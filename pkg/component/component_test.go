package component

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMountRendersOnce(t *testing.T) {
	sched := NewScheduler()
	renders := 0
	c := sched.Mount(nil, "root", func(*Owner) { renders++ })

	if renders != 1 || c.Renders() != 1 {
		t.Errorf("expected 1 render on mount, got %d (component says %d)", renders, c.Renders())
	}
	if sched.Pending() != 0 {
		t.Errorf("mount should not leave work queued, got %d", sched.Pending())
	}
}

func TestFlushDeduplicatesDirtyMarks(t *testing.T) {
	sched := NewScheduler()
	c := sched.Mount(nil, "root", func(*Owner) {})

	c.MarkDirty()
	c.MarkDirty()
	c.MarkDirty()
	if sched.Pending() != 1 {
		t.Fatalf("expected 1 queued component, got %d", sched.Pending())
	}

	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c.Renders() != 2 {
		t.Errorf("expected 2 renders (mount + 1 flush), got %d", c.Renders())
	}
}

func TestFlushRendersInMarkOrder(t *testing.T) {
	var order []string
	sched := NewScheduler(OnRender(func(c *Component) {
		order = append(order, c.Owner().Name())
	}))
	a := sched.Mount(nil, "a", func(*Owner) {})
	b := sched.Mount(nil, "b", func(*Owner) {})
	order = nil

	b.MarkDirty()
	a.MarkDirty()
	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if strings.Join(order, ",") != "b,a" {
		t.Errorf("expected render order b,a, got %v", order)
	}
}

func TestFlushRunsFollowUpPasses(t *testing.T) {
	sched := NewScheduler()
	var second *Component
	first := sched.Mount(nil, "first", func(o *Owner) {
		if second != nil {
			second.MarkDirty()
		}
	})
	second = sched.Mount(nil, "second", func(*Owner) {})

	first.MarkDirty()
	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if second.Renders() != 2 {
		t.Errorf("component dirtied during flush should render in the same Flush, got %d renders", second.Renders())
	}
}

func TestFlushRenderLoop(t *testing.T) {
	var logs bytes.Buffer
	sched := NewScheduler(WithMaxPasses(3), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	var self *Component
	self = sched.Mount(nil, "loop", func(o *Owner) {
		if self != nil {
			self.MarkDirty()
		}
	})
	self.MarkDirty()

	err := sched.Flush()
	if !errors.Is(err, ErrRenderLoop) {
		t.Fatalf("expected ErrRenderLoop, got %v", err)
	}
	if !strings.Contains(logs.String(), "render loop did not settle") {
		t.Errorf("expected loop to be logged, got %q", logs.String())
	}
}

func TestDispatchRunsOnFlush(t *testing.T) {
	sched := NewScheduler()
	ran := false

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Dispatch(func() { ran = true })
	}()
	wg.Wait()

	if ran {
		t.Fatal("dispatched task should not run before Flush")
	}
	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !ran {
		t.Error("dispatched task should run on Flush")
	}
}

func TestUnmountDropsQueuedRender(t *testing.T) {
	sched := NewScheduler()
	c := sched.Mount(nil, "gone", func(*Owner) {})

	c.MarkDirty()
	c.Unmount()

	if sched.Pending() != 0 {
		t.Errorf("unmounted component should leave the queue, got %d", sched.Pending())
	}
	if err := c.Render(); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
	c.MarkDirty()
	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c.Renders() != 1 {
		t.Errorf("unmounted component should not re-render, got %d", c.Renders())
	}
}

func TestMountUnderDisposedParent(t *testing.T) {
	sched := NewScheduler()
	parent := NewOwner(nil, "parent")
	parent.Dispose()

	renders := 0
	c := sched.Mount(parent, "child", func(*Owner) { renders++ })
	if renders != 0 {
		t.Errorf("component under disposed parent should not render, got %d", renders)
	}
	if !c.Owner().IsDisposed() {
		t.Error("component under disposed parent should be disposed")
	}
}

func TestAfterRenderRunsOncePerRender(t *testing.T) {
	sched := NewScheduler()
	var events []string
	c := sched.Mount(nil, "root", func(o *Owner) {
		events = append(events, "render")
		o.AfterRender(func() { events = append(events, "commit") })
	})

	c.MarkDirty()
	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "render,commit,render,commit"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestOwnerInvalidate(t *testing.T) {
	sched := NewScheduler()
	c := sched.Mount(nil, "root", func(*Owner) {})

	c.Owner().Invalidate()
	if sched.Pending() != 1 {
		t.Errorf("Invalidate should queue the component, got %d", sched.Pending())
	}

	plain := NewOwner(nil, "plain")
	plain.Invalidate()
}
