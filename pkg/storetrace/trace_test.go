package storetrace

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/vstore/pkg/store"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestObserverTracesCommits(t *testing.T) {
	sr, tp := newRecorder(t)
	obs := New(WithTracerProvider(tp))

	s := store.New(0, store.WithName("counter"), store.WithObserver(obs))
	s.Subscribe(func(int, int) {})
	s.Set(1)
	s.Set(1)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span (skips and subscribes are not traced), got %d", len(spans))
	}

	span := spans[0]
	if span.Name() != "vstore.commit counter" {
		t.Errorf("span name = %q", span.Name())
	}
	if v, ok := attr(span, "vstore.listeners"); !ok || v.AsInt64() != 1 {
		t.Errorf("vstore.listeners = %v, want 1", v.AsInt64())
	}
	if v, ok := attr(span, "vstore.store"); !ok || v.AsString() != "counter" {
		t.Errorf("vstore.store = %q, want counter", v.AsString())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", span.Status().Code)
	}
	if span.EndTime().Before(span.StartTime()) {
		t.Error("span ends before it starts")
	}
}

func TestObserverTracesPanics(t *testing.T) {
	sr, tp := newRecorder(t)
	obs := New(WithTracerProvider(tp))

	s := store.New(0, store.WithName("fragile"), store.WithObserver(obs))
	s.Subscribe(func(int, int) { panic("boom") })
	s.Set(1)

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected panic and commit spans, got %d", len(spans))
	}

	panicSpan, commit := spans[0], spans[1]
	if panicSpan.Name() != "vstore.listener_panic fragile" {
		t.Errorf("first span = %q, want the panic span", panicSpan.Name())
	}
	if panicSpan.Status().Code != codes.Error {
		t.Errorf("panic span status = %v, want Error", panicSpan.Status().Code)
	}
	if len(panicSpan.Events()) == 0 {
		t.Error("panic span should record the error as an event")
	}

	if commit.Status().Code != codes.Error {
		t.Errorf("commit span status = %v, want Error", commit.Status().Code)
	}
	if v, _ := attr(commit, "vstore.panics"); v.AsInt64() != 1 {
		t.Errorf("vstore.panics = %d, want 1", v.AsInt64())
	}
}

func TestObserverFilter(t *testing.T) {
	sr, tp := newRecorder(t)
	obs := New(
		WithTracerProvider(tp),
		WithEventFilter(func(ev store.Event) bool { return ev.Kind == store.EventSubscribe }),
	)

	s := store.New("", store.WithName("name"), store.WithObserver(obs))
	s.Subscribe(func(string, string) {})
	s.Set("x")
	s.Destroy()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected only the subscribe span, got %d", len(spans))
	}
	if v, _ := attr(spans[0], "vstore.subscribers"); v.AsInt64() != 1 {
		t.Errorf("vstore.subscribers = %d, want 1", v.AsInt64())
	}
}

func TestObserverTracesDestroy(t *testing.T) {
	sr, tp := newRecorder(t)
	obs := New(WithTracerProvider(tp), WithTracerName("test"))

	s := store.New(0, store.WithName("gone"), store.WithObserver(obs))
	s.Subscribe(func(int, int) {})
	s.Subscribe(func(int, int) {})
	s.Destroy()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "vstore.destroy gone" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if v, _ := attr(spans[0], "vstore.cleared"); v.AsInt64() != 2 {
		t.Errorf("vstore.cleared = %d, want 2", v.AsInt64())
	}
	if spans[0].InstrumentationScope().Name != "test" {
		t.Errorf("tracer name = %q, want test", spans[0].InstrumentationScope().Name)
	}
}
