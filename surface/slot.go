package surface

import (
	"sync"

	"github.com/aouyang1/framesaver/view"
)

// Slot is one photo position on the kiosk page. It implements the view's
// image handle and binding.
type Slot struct {
	hub   *Hub
	index int

	mu     sync.Mutex
	url    string
	loaded bool
	failed bool
}

func (s *Slot) Index() int {
	return s.index
}

// Publish pushes a view field to every page. A new url restarts load tracking.
func (s *Slot) Publish(field string, value any) {
	if field == "url" {
		if url, ok := value.(string); ok {
			s.mu.Lock()
			if url != s.url {
				s.url = url
				s.loaded = false
				s.failed = false
			}
			s.mu.Unlock()
		}
	}
	s.hub.publish(MsgSlotField, s.index, field, value)
}

func (s *Slot) Error() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *Slot) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// stale reports an event for a url the slot no longer shows
func (s *Slot) stale(url string) bool {
	return url != "" && url != s.url
}

func (s *Slot) setLoaded(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(url) {
		return
	}
	s.loaded = true
	s.failed = false
}

// setFailed records a load error and reports whether the error state flipped to true
func (s *Slot) setFailed(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(url) || s.failed {
		return false
	}
	s.failed = true
	s.loaded = false
	return true
}

// Elements bundles the handles a view renders through
func (s *Slot) Elements() view.Elements {
	return view.Elements{
		Image:    s,
		Author:   s.Element("author"),
		Time:     s.Element("time"),
		Location: s.Element("location"),
		Binding:  s,
	}
}

// Element returns a styled text element of this slot
func (s *Slot) Element(name string) *Element {
	return &Element{slot: s, name: name}
}

// Element is a text element of a slot, like the time or author label
type Element struct {
	slot *Slot
	name string
}

type style struct {
	FontSize string `json:"fontSize"`
	Weight   int    `json:"fontWeight"`
}

func (e *Element) SetStyle(fontSize string, weight int) {
	e.slot.hub.publish(MsgSlotField, e.slot.index, e.name+".style", style{FontSize: fontSize, Weight: weight})
}
