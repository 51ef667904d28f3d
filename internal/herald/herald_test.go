package herald

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

type recordingAdapter struct {
	events []Event
	err    error
	closed bool
}

func (r *recordingAdapter) Announce(_ context.Context, ev Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingAdapter) Close() error {
	r.closed = true
	return nil
}

func TestAnnounceFansOut(t *testing.T) {
	a1 := &recordingAdapter{}
	a2 := &recordingAdapter{}
	h := New(a1, a2)

	h.Announce(Event{Kind: "create", BountyAddr: "b1"})

	if len(a1.events) != 1 || len(a2.events) != 1 {
		t.Fatalf("adapters got %d and %d events, want 1 each", len(a1.events), len(a2.events))
	}
}

func TestAnnounceSwallowsAdapterErrors(t *testing.T) {
	failing := &recordingAdapter{err: fmt.Errorf("network down")}
	ok := &recordingAdapter{}
	h := New(failing, ok)

	h.Announce(Event{Kind: "accept", BountyAddr: "b1"})

	if len(ok.events) != 1 {
		t.Fatal("healthy adapter should still receive the event")
	}
}

func TestNilHeraldIsSafe(t *testing.T) {
	var h *Herald
	h.Announce(Event{Kind: "create"})
	h.Close()
}

func TestCloseClosesAdapters(t *testing.T) {
	a := &recordingAdapter{}
	New(a).Close()
	if !a.closed {
		t.Error("adapter was not closed")
	}
}

func TestFormat(t *testing.T) {
	line := Format(Event{
		Kind:   "requestChange",
		Realm:  "realm-1",
		Title:  "Fix login",
		Actor:  "wallet-core",
		Detail: "please add tests",
	})
	for _, want := range []string{"realm-1", "requestChange", "Fix login", "wallet-core", "please add tests"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatted line %q missing %q", line, want)
		}
	}
}
