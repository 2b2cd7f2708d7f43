// Package store provides an external state container for component trees.
//
// A Store holds a single value and an ordered set of listeners. Writes that
// change the value notify every listener synchronously with the new and the
// previous value; writes that resolve to an identical value are skipped
// entirely.
//
// # Usage
//
//	var Counter = store.New(0, store.WithName("counter"))
//
//	unsubscribe := Counter.Subscribe(func(next, prev int) {
//	    fmt.Println("counter:", prev, "->", next)
//	})
//	defer unsubscribe()
//
//	Counter.Update(func(n int) int { return n + 1 }) // counter: 0 -> 1
//	Counter.Set(1)                                   // identical, skipped
//
// Stores whose initial value is expensive to build can use NewFunc, which
// invokes the producer exactly once:
//
//	var Settings = store.NewFunc(loadDefaults)
//
// # Identity
//
// A write is skipped when the resolved value is identical to the current one.
// Scalars, strings, arrays and structs compare by value. Slices compare by
// backing array, length and capacity; maps, pointers and channels by
// reference. Functions are never identical. WithEqual replaces this check.
//
// # Listener Failures
//
// Each listener runs in isolation: a panic is recovered, logged and reported
// to observers as a *ListenerPanicError, and the remaining listeners still
// run. PropagatePanics restores full-stop semantics, where the first panic
// aborts the notification pass and is re-raised to the writer.
//
// # Destroy
//
// Destroy removes every listener but leaves the value in place. The store
// remains usable: writes keep updating the value and new subscriptions see
// future writes.
//
// # Thread Safety
//
// Stores are safe for concurrent use. Listeners are invoked without the
// store's lock held, so a listener may write to the store or change its
// subscriptions; a nested write runs to completion before the outer
// notification pass continues. Update calls its function without the lock
// too, so the function may read the store; if another write commits first,
// the function is called again with the newer value.
package store
