package tui

import "github.com/gdamore/tcell/v2"

// KeyHandler returns nil when it consumed the event.
type KeyHandler func(ev *tcell.EventKey) *tcell.EventKey

type keyEntry struct {
	id     int
	handle KeyHandler
	opaque bool
}

// keyStack dispatches key events from the most recently pushed handler
// down. An opaque handler hides everything below it: events it does not
// consume go straight to the focused primitive.
type keyStack struct {
	entries []keyEntry
	nextID  int
}

// Push adds h on top of the stack and returns the function that removes
// exactly this handler.
func (s *keyStack) Push(h KeyHandler, opaque bool) func() {
	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, keyEntry{id: id, handle: h, opaque: opaque})
	return func() { s.remove(id) }
}

func (s *keyStack) remove(id int) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *keyStack) Len() int {
	return len(s.entries)
}

func (s *keyStack) Dispatch(ev *tcell.EventKey) *tcell.EventKey {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if ev = e.handle(ev); ev == nil {
			return nil
		}
		if e.opaque {
			return ev
		}
	}
	return ev
}
