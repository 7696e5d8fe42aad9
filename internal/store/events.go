// Package store holds component instances and is the only place results are
// written to.
package store

import (
	"errors"
	"slices"
	"sync"

	"github.com/Simplici0/quotecalc/internal/component"
)

// ErrUnknownComponent is returned for IDs outside the catalog.
var ErrUnknownComponent = errors.New("unknown component")

// EventType names a store change.
type EventType string

const (
	EventParamsChanged   EventType = "params-changed"
	EventEnabled         EventType = "enabled"
	EventDisabled        EventType = "disabled"
	EventCleared         EventType = "cleared"
	EventResultPublished EventType = "result-published"
)

// Event describes one change. Component is empty for EventCleared.
type Event struct {
	Type      EventType
	Component component.ID
}

// Listener receives store events. It is called after the change is applied
// and outside any store lock, so it may call back into the store.
type Listener func(Event)

type listeners struct {
	mu   sync.Mutex
	next int
	set  map[int]Listener
}

func (l *listeners) subscribe(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set == nil {
		l.set = make(map[int]Listener)
	}
	id := l.next
	l.next++
	l.set[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.set, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners) emit(ev Event) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.set))
	for id := range l.set {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, l.set[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func known(id component.ID) bool {
	_, ok := component.Lookup(id)
	return ok
}
