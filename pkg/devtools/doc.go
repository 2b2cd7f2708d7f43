// Package devtools is an HTTP inspector for stores and the components that
// read them.
//
// Stores are registered by name; the inspector serves their current values
// as JSON and streams every transition over a WebSocket:
//
//	reg := devtools.NewRegistry()
//	devtools.MustRegister(reg, cart)
//	http.ListenAndServe("localhost:7070", reg.Handler())
//
// Values are rendered with fmt's %+v verb. A stream sends one frame per
// transition:
//
//	{"type":"transition","store":"cart","next":"{Items:2}","prev":"{Items:1}","at":"..."}
//
// When the store is destroyed, clients receive a "destroy" frame and the
// connection is closed.
//
// The inspector holds a store subscription only while a stream is open, so
// the reported subscriber count matches the application's own
// subscriptions when nobody is watching.
package devtools
