// Package hooks binds stores to components.
//
// Two adapters are provided, mirroring the two ways a component can follow an
// external store:
//
//   - UseSyncStore reads the store at render time and lets the scheduler
//     decide when to re-render. A notification only dirties the component
//     when the store no longer matches what it last rendered, and a write that
//     lands between render and commit schedules another render.
//
//   - UseStore keeps a component-local copy of the value, refreshed from the
//     store on every notification, and dirties the component on every change.
//
// Both subscribe once per component lifetime and unsubscribe when the
// component unmounts. A component rendered after its store was destroyed
// subscribes again.
//
//	var Cart = store.New([]Item{}, store.WithName("cart"))
//
//	func CartBadge(o *component.Owner) {
//	    cart := hooks.UseSyncStore(o, Cart)
//	    render(len(cart.Value))
//	}
//
// UseLocalStore creates a store scoped to a single component.
package hooks
