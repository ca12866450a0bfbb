package debounce

import (
	"sync"
	"time"
)

// Group debounces independently per key, e.g. one timer per watched file.
type Group struct {
	delay time.Duration
	mu    sync.Mutex
	items map[string]*Debouncer
}

// NewGroup returns a Group whose keys all share delay.
func NewGroup(delay time.Duration) *Group {
	return &Group{delay: delay, items: make(map[string]*Debouncer)}
}

// Trigger schedules fn for key, replacing any call pending for the same key.
func (g *Group) Trigger(key string, fn func()) {
	g.mu.Lock()
	d, ok := g.items[key]
	if !ok {
		d = New(g.delay)
		g.items[key] = d
	}
	g.mu.Unlock()
	d.Trigger(func() {
		g.mu.Lock()
		if g.items[key] == d {
			delete(g.items, key)
		}
		g.mu.Unlock()
		fn()
	})
}

// Cancel drops the call pending for key. It reports whether one was dropped.
func (g *Group) Cancel(key string) bool {
	g.mu.Lock()
	d, ok := g.items[key]
	delete(g.items, key)
	g.mu.Unlock()
	return ok && d.Cancel()
}

// CancelAll drops every pending call.
func (g *Group) CancelAll() {
	g.mu.Lock()
	items := g.items
	g.items = make(map[string]*Debouncer)
	g.mu.Unlock()
	for _, d := range items {
		d.Cancel()
	}
}

// Len returns the number of keys with a pending call.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}
