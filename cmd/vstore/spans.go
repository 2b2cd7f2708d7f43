package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanRing is a span processor keeping the most recently ended spans.
type spanRing struct {
	mu    sync.Mutex
	spans []sdktrace.ReadOnlySpan
	next  int
	full  bool
}

var _ sdktrace.SpanProcessor = (*spanRing)(nil)

func newSpanRing(size int) *spanRing {
	return &spanRing{spans: make([]sdktrace.ReadOnlySpan, size)}
}

func (r *spanRing) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (r *spanRing) OnEnd(s sdktrace.ReadOnlySpan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans[r.next] = s
	r.next = (r.next + 1) % len(r.spans)
	if r.next == 0 {
		r.full = true
	}
}

func (r *spanRing) Shutdown(context.Context) error   { return nil }
func (r *spanRing) ForceFlush(context.Context) error { return nil }

// Ended returns the kept spans, oldest first.
func (r *spanRing) Ended() []sdktrace.ReadOnlySpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]sdktrace.ReadOnlySpan(nil), r.spans[:r.next]...)
	}
	out := make([]sdktrace.ReadOnlySpan, 0, len(r.spans))
	out = append(out, r.spans[r.next:]...)
	return append(out, r.spans[:r.next]...)
}

// SpanInfo is the JSON form of a recorded span.
type SpanInfo struct {
	Name       string            `json:"name"`
	Start      time.Time         `json:"start"`
	Duration   time.Duration     `json:"duration"`
	Status     string            `json:"status"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (r *spanRing) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ended := r.Ended()
	out := make([]SpanInfo, 0, len(ended))
	for _, s := range ended {
		info := SpanInfo{
			Name:     s.Name(),
			Start:    s.StartTime(),
			Duration: s.EndTime().Sub(s.StartTime()),
			Status:   s.Status().Code.String(),
		}
		for _, kv := range s.Attributes() {
			if info.Attributes == nil {
				info.Attributes = make(map[string]string)
			}
			info.Attributes[string(kv.Key)] = kv.Value.Emit()
		}
		out = append(out, info)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
