// Package herald announces lifecycle events to chat channels. Announcements
// fire after a transition commits and are best-effort: a delivery failure is
// logged, never surfaced to the caller that triggered the transition.
package herald

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Event describes one committed lifecycle transition.
type Event struct {
	Kind       string // activity kind, e.g. "accept", "unassignOverdue"
	Realm      string
	BoardAddr  string
	BountyAddr string
	Title      string // bounty title
	Actor      string // wallet that triggered the transition
	Detail     string // free text, e.g. reviewer comment
}

// Adapter delivers an event to one destination.
type Adapter interface {
	Announce(ctx context.Context, ev Event) error
	Close() error
}

// Herald fans events out to its adapters.
type Herald struct {
	adapters []Adapter
	timeout  time.Duration
}

// New builds a Herald over the given adapters.
func New(adapters ...Adapter) *Herald {
	return &Herald{adapters: adapters, timeout: 10 * time.Second}
}

// Announce delivers ev to every adapter. Failures are logged and swallowed.
func (h *Herald) Announce(ev Event) {
	if h == nil {
		return
	}
	for _, a := range h.adapters {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		if err := a.Announce(ctx, ev); err != nil {
			log.Printf("herald: announce %s for bounty %s: %v", ev.Kind, ev.BountyAddr, err)
		}
		cancel()
	}
}

// Close shuts down all adapters.
func (h *Herald) Close() {
	if h == nil {
		return
	}
	for _, a := range h.adapters {
		if err := a.Close(); err != nil {
			log.Printf("herald: close adapter: %v", err)
		}
	}
}

// Format renders an event as a single chat line.
func Format(ev Event) string {
	line := fmt.Sprintf("[%s] %s %q", ev.Realm, ev.Kind, ev.Title)
	if ev.Actor != "" {
		line += " by " + ev.Actor
	}
	if ev.Detail != "" {
		line += ": " + ev.Detail
	}
	return line
}
