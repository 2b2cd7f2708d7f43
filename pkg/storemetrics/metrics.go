// Package storemetrics exports store activity as Prometheus metrics.
//
// An Observer is attached to stores with store.WithObserver or
// Store.AddObserver:
//
//	obs := storemetrics.New(storemetrics.WithNamespace("myapp"))
//	cart := store.New(Cart{}, store.WithName("cart"), store.WithObserver(obs))
//
//	http.Handle("/metrics", promhttp.Handler())
//
// Metrics collected (store label is the store name):
//   - vstore_writes_total: Counter of writes by store and result (committed, skipped)
//   - vstore_notifications_total: Counter of listener invocations
//   - vstore_listener_panics_total: Counter of recovered listener panics
//   - vstore_destroys_total: Counter of Destroy calls
//   - vstore_subscribers: Gauge of active subscriptions
//   - vstore_notify_duration_seconds: Histogram of notification pass duration
package storemetrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vstore/pkg/store"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "vstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notification duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vstore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer records store events as Prometheus metrics. One Observer can be
// shared by any number of stores.
type Observer struct {
	writes        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	panics        *prometheus.CounterVec
	destroys      *prometheus.CounterVec
	subscribers   *prometheus.GaugeVec
	duration      *prometheus.HistogramVec
}

var _ store.Observer = (*Observer)(nil)

// New creates an Observer and registers its metrics.
//
// Creating a second Observer against the same registry reuses the metrics
// already registered there, so every Observer reports into the same series.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Collectors are built unregistered and registered below so that an
	// existing registration can be reused.
	factory := promauto.With(nil)

	o := &Observer{
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of store writes by result",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "result"}),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of listener invocations",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		panics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_panics_total",
			Help:        "Total number of listener panics",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		destroys: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "destroys_total",
			Help:        "Total number of store Destroy calls",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Number of active store subscriptions",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Duration of a store notification pass in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),
	}

	if config.Registry != nil {
		o.writes = register(config.Registry, o.writes)
		o.notifications = register(config.Registry, o.notifications)
		o.panics = register(config.Registry, o.panics)
		o.destroys = register(config.Registry, o.destroys)
		o.subscribers = register(config.Registry, o.subscribers)
		o.duration = register(config.Registry, o.duration)
	}
	return o
}

// register registers c, returning the collector already registered under the
// same descriptor if there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveStore implements store.Observer.
func (o *Observer) ObserveStore(e store.Event) {
	switch e.Kind {
	case store.EventSkip:
		o.writes.WithLabelValues(e.Store, "skipped").Inc()

	case store.EventCommit:
		o.writes.WithLabelValues(e.Store, "committed").Inc()
		o.notifications.WithLabelValues(e.Store).Add(float64(e.Listeners))
		o.duration.WithLabelValues(e.Store).Observe(e.Duration.Seconds())

	case store.EventSubscribe, store.EventUnsubscribe:
		o.subscribers.WithLabelValues(e.Store).Set(float64(e.Subscribers))

	case store.EventDestroy:
		o.destroys.WithLabelValues(e.Store).Inc()
		o.subscribers.WithLabelValues(e.Store).Set(0)

	case store.EventListenerPanic:
		o.panics.WithLabelValues(e.Store).Inc()
	}
}

// Writes returns the write counter for a store and result ("committed" or
// "skipped").
func (o *Observer) Writes(storeName, result string) prometheus.Counter {
	return o.writes.WithLabelValues(storeName, result)
}

// Forget removes the series recorded for a store, for stores that are
// discarded while the process keeps running.
func (o *Observer) Forget(storeName string) {
	labels := prometheus.Labels{"store": storeName}
	o.writes.DeletePartialMatch(labels)
	o.notifications.DeleteLabelValues(storeName)
	o.panics.DeleteLabelValues(storeName)
	o.destroys.DeleteLabelValues(storeName)
	o.subscribers.DeleteLabelValues(storeName)
	o.duration.DeleteLabelValues(storeName)
}
