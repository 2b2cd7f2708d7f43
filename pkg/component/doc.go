// Package component is a small render runtime for component trees.
//
// It models the part of a UI framework that external stores plug into:
// component scopes (Owner) that hold hook state across renders and run
// cleanups on unmount, and a Scheduler that collects components marked dirty
// and re-renders each of them once per Flush.
//
//	sched := component.NewScheduler()
//	c := sched.Mount(nil, "counter", func(o *component.Owner) {
//	    clicks := component.Slot(o, func() *int { return new(int) })
//	    fmt.Println("clicks:", *clicks)
//	})
//
//	c.MarkDirty()
//	_ = sched.Flush() // re-renders c once
//
// # Threading
//
// Owners and components belong to the goroutine that flushes the scheduler
// (the UI goroutine). MarkDirty and Dispatch may be called from any
// goroutine; everything else must run on the UI goroutine.
package component
