package component

import (
	"strings"
	"testing"
)

func TestOwnerHierarchy(t *testing.T) {
	root := NewOwner(nil, "root")
	child := NewOwner(root, "child")

	if child.Parent() != root {
		t.Error("child's parent should be root")
	}
	if root.Parent() != nil {
		t.Error("root should have no parent")
	}
	if root.ID() == child.ID() {
		t.Error("owner IDs must be unique")
	}
}

func TestOwnerDisposeOrder(t *testing.T) {
	root := NewOwner(nil, "root")
	first := NewOwner(root, "first")
	second := NewOwner(root, "second")

	var order []string
	root.OnCleanup(func() { order = append(order, "root-1") })
	root.OnCleanup(func() { order = append(order, "root-2") })
	first.OnCleanup(func() { order = append(order, "first") })
	second.OnCleanup(func() { order = append(order, "second") })

	root.Dispose()

	want := "second,first,root-2,root-1"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected cleanup order %s, got %s", want, got)
	}
	if !first.IsDisposed() || !second.IsDisposed() {
		t.Error("children should be disposed with their parent")
	}
}

func TestOwnerDisposeIdempotent(t *testing.T) {
	o := NewOwner(nil, "")
	calls := 0
	o.OnCleanup(func() { calls++ })

	o.Dispose()
	o.Dispose()
	if calls != 1 {
		t.Errorf("cleanup should run once, ran %d times", calls)
	}
}

func TestOwnerOnCleanupAfterDispose(t *testing.T) {
	o := NewOwner(nil, "")
	o.Dispose()

	ran := false
	o.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("cleanup registered after dispose should run immediately")
	}
}

func TestOwnerDisposeRemovesFromParent(t *testing.T) {
	root := NewOwner(nil, "root")
	child := NewOwner(root, "child")
	child.Dispose()

	calls := 0
	child.OnCleanup(func() { calls++ })
	root.Dispose()
	if calls != 1 {
		t.Errorf("expected the post-dispose cleanup to have run once, got %d", calls)
	}
}

func TestSlotStableAcrossRenders(t *testing.T) {
	sched := NewScheduler()
	var seen []*int
	c := sched.Mount(nil, "slots", func(o *Owner) {
		p := Slot(o, func() *int { return new(int) })
		*p++
		seen = append(seen, p)
	})

	c.MarkDirty()
	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 renders, got %d", len(seen))
	}
	if seen[0] != seen[1] {
		t.Error("slot should return the same value on every render")
	}
	if *seen[1] != 2 {
		t.Errorf("expected counter 2, got %d", *seen[1])
	}
}

func TestSlotTypeMismatchPanics(t *testing.T) {
	o := NewOwner(nil, "mismatch")
	o.beginRender()
	Slot(o, func() int { return 1 })

	o.beginRender()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for changed hook order")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "hook order changed in mismatch") {
			t.Errorf("unexpected panic message: %v", r)
		}
	}()
	Slot(o, func() string { return "x" })
}

func TestDebugValuesResetPerRender(t *testing.T) {
	sched := NewScheduler()
	n := 0
	c := sched.Mount(nil, "debug", func(o *Owner) {
		n++
		o.SetDebugValue("render", n)
	})

	c.MarkDirty()
	if err := sched.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	values := c.Owner().DebugValues()
	if len(values) != 1 {
		t.Fatalf("expected 1 debug value, got %d", len(values))
	}
	if values[0].Label != "render" || values[0].Value != 2 {
		t.Errorf("expected render=2, got %+v", values[0])
	}
}
