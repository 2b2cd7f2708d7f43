package store

import "log/slog"

// Option is a functional option for configuring a store.
type Option func(*storeOptions)

// storeOptions holds store configuration collected from Options.
type storeOptions struct {
	// name identifies the store in logs, metrics and devtools.
	name string

	// equal is a func(a, b T) bool for the store's T, checked in New.
	equal any

	logger    *slog.Logger
	observers []Observer
	propagate bool
}

// WithName sets the store's name.
// Names should be unique among stores registered with the same devtools
// registry or metrics observer.
func WithName(name string) Option {
	return func(o *storeOptions) {
		o.name = name
	}
}

// WithEqual replaces the identity check that decides whether a write is
// skipped. fn must be a func(a, b T) bool for the store's T; New panics
// otherwise.
//
// Example:
//
//	todos := store.New([]Todo{}, store.WithEqual(slices.Equal[[]Todo]))
func WithEqual[T any](fn func(a, b T) bool) Option {
	return func(o *storeOptions) {
		if fn != nil {
			o.equal = fn
		}
	}
}

// WithLogger sets the logger used to report listener panics and lifecycle
// events. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithObserver registers observers for the store's lifetime.
func WithObserver(observers ...Observer) Option {
	return func(o *storeOptions) {
		for _, obs := range observers {
			if obs != nil {
				o.observers = append(o.observers, obs)
			}
		}
	}
}

// PropagatePanics makes the first panicking listener abort the notification
// pass. The panic is re-raised to the caller of Set or Update as a
// *ListenerPanicError; the new value has already been committed and the
// remaining listeners are not notified of that transition.
func PropagatePanics() Option {
	return func(o *storeOptions) {
		o.propagate = true
	}
}

// applyOptions applies the given options and returns the resulting config.
func applyOptions(opts []Option) storeOptions {
	var options storeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}
