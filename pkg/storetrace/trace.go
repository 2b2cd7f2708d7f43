// Package storetrace records store activity as OpenTelemetry spans.
//
// Each committed write becomes a span covering its notification pass, and
// each listener panic becomes a span with error status:
//
//	obs := storetrace.New(storetrace.WithTracerName("myapp"))
//	cart := store.New(Cart{}, store.WithName("cart"), store.WithObserver(obs))
//
// By default the tracer comes from the global OpenTelemetry tracer provider.
// Configure it in main() before creating stores:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
package storetrace

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vstore/pkg/store"
)

// Default tracer name for store spans.
const defaultTracerName = "vstore"

// Config configures the OpenTelemetry observer.
type Config struct {
	// TracerName is the name of the tracer (default: "vstore").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// Filter determines which events are traced.
	// If nil, commits, destroys and listener panics are traced.
	Filter func(ev store.Event) bool

	// Context is the parent context for every span (default: context.Background()).
	Context context.Context
}

// Option configures the OpenTelemetry observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ev store.Event) bool) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}

// WithContext sets the parent context for spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

func defaultConfig() Config {
	return Config{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
}

// defaultFilter traces the events that carry work or failures.
func defaultFilter(ev store.Event) bool {
	switch ev.Kind {
	case store.EventCommit, store.EventDestroy, store.EventListenerPanic:
		return true
	}
	return false
}

// Observer turns store events into spans.
type Observer struct {
	tracer trace.Tracer
	filter func(ev store.Event) bool
	ctx    context.Context
}

var _ store.Observer = (*Observer)(nil)

// New creates an Observer.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	if config.Filter == nil {
		config.Filter = defaultFilter
	}
	if config.Context == nil {
		config.Context = context.Background()
	}

	return &Observer{
		tracer: config.TracerProvider.Tracer(config.TracerName),
		filter: config.Filter,
		ctx:    config.Context,
	}
}

// ObserveStore implements store.Observer.
func (o *Observer) ObserveStore(ev store.Event) {
	if !o.filter(ev) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("vstore.store", ev.Store),
		attribute.Int64("vstore.store_id", int64(ev.StoreID)),
	}

	start, end := ev.Start, ev.Start.Add(ev.Duration)
	if start.IsZero() {
		start = time.Now()
		end = start
	}

	switch ev.Kind {
	case store.EventCommit:
		attrs = append(attrs,
			attribute.Int("vstore.listeners", ev.Listeners),
			attribute.Int("vstore.panics", ev.Panics),
		)
	case store.EventDestroy:
		attrs = append(attrs, attribute.Int("vstore.cleared", ev.Listeners))
	case store.EventSubscribe, store.EventUnsubscribe:
		attrs = append(attrs,
			attribute.Int64("vstore.subscription", int64(ev.Subscription)),
			attribute.Int("vstore.subscribers", ev.Subscribers),
		)
	case store.EventListenerPanic:
		attrs = append(attrs, attribute.Int64("vstore.subscription", int64(ev.Subscription)))
	}

	_, span := o.tracer.Start(o.ctx, spanName(ev),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)

	switch {
	case ev.Err != nil:
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	case ev.Panics > 0:
		span.SetStatus(codes.Error, fmt.Sprintf("%d listener(s) panicked", ev.Panics))
	default:
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(end))
}

func spanName(ev store.Event) string {
	return fmt.Sprintf("vstore.%s %s", ev.Kind, ev.Store)
}
