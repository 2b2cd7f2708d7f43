package store

import "sync/atomic"

// idCounter is the source of store and subscription IDs.
var idCounter uint64

// nextID returns a process-unique, never reused identifier.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
