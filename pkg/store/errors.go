package store

import (
	"fmt"
	"runtime/debug"
)

// ListenerPanicError records a panic raised by a listener during a
// notification pass.
type ListenerPanicError struct {
	// Store is the name of the store being written.
	Store string

	// Subscription is the token of the panicking subscription.
	Subscription uint64

	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

func newListenerPanicError(storeName string, sub uint64, value any) *ListenerPanicError {
	return &ListenerPanicError{
		Store:        storeName,
		Subscription: sub,
		Value:        value,
		Stack:        debug.Stack(),
	}
}

// Error implements the error interface.
func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("store %q: listener %d panicked: %v", e.Store, e.Subscription, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *ListenerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
