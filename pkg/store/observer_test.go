package store

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
)

// eventLog records observed events.
type eventLog struct {
	events []Event
}

func (l *eventLog) ObserveStore(ev Event) {
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	kinds := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func TestObserverEvents(t *testing.T) {
	log := &eventLog{}
	s := New(0, WithName("observed"), WithObserver(log))

	unsubscribe := s.Subscribe(func(int, int) {})
	s.Set(0)
	s.Set(1)
	unsubscribe()
	s.Subscribe(func(int, int) {})
	s.Destroy()

	want := []EventKind{EventSubscribe, EventSkip, EventCommit, EventUnsubscribe, EventSubscribe, EventDestroy}
	got := log.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	for _, ev := range log.events {
		if ev.Store != "observed" || ev.StoreID != s.ID() {
			t.Errorf("event %s not stamped with store identity: %+v", ev.Kind, ev)
		}
	}

	commit := log.events[2]
	if commit.Listeners != 1 || commit.Panics != 0 {
		t.Errorf("commit: expected 1 listener and 0 panics, got %+v", commit)
	}
	if commit.Start.IsZero() {
		t.Error("commit should carry a start time")
	}

	destroy := log.events[5]
	if destroy.Listeners != 1 || destroy.Subscribers != 0 {
		t.Errorf("destroy: expected 1 cleared and 0 remaining, got %+v", destroy)
	}
}

func TestObserverListenerPanic(t *testing.T) {
	log := &eventLog{}
	quiet := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s := New(0, WithObserver(log), WithLogger(quiet))

	s.Subscribe(func(int, int) { panic("bad listener") })
	s.Set(1)

	var panicEvent, commit *Event
	for i := range log.events {
		switch log.events[i].Kind {
		case EventListenerPanic:
			panicEvent = &log.events[i]
		case EventCommit:
			commit = &log.events[i]
		}
	}

	if panicEvent == nil {
		t.Fatal("expected a listener panic event")
	}
	var lpe *ListenerPanicError
	if !errors.As(panicEvent.Err, &lpe) {
		t.Fatalf("expected *ListenerPanicError, got %T", panicEvent.Err)
	}
	if lpe.Value != "bad listener" {
		t.Errorf("expected panic value 'bad listener', got %v", lpe.Value)
	}
	if len(lpe.Stack) == 0 {
		t.Error("expected a captured stack")
	}
	if commit == nil || commit.Panics != 1 {
		t.Errorf("expected commit with 1 panic, got %+v", commit)
	}
}

func TestAddObserverRemove(t *testing.T) {
	s := New(0)
	calls := 0
	remove := s.AddObserver(ObserverFunc(func(Event) { calls++ }))

	s.Set(1)
	if calls != 1 {
		t.Fatalf("expected 1 event, got %d", calls)
	}

	remove()
	s.Set(2)
	if calls != 1 {
		t.Errorf("removed observer should not receive events, got %d", calls)
	}
}

func TestEventKindString(t *testing.T) {
	if EventCommit.String() != "commit" {
		t.Errorf("expected 'commit', got %q", EventCommit.String())
	}
	if EventKind(0).String() != "unknown" {
		t.Errorf("expected 'unknown', got %q", EventKind(0).String())
	}
}
