// Package surface is the kiosk page side of the slideshow: it pushes slot state to
// connected browsers over websockets and turns their image events into slot state
package surface

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/framesaver/view"
)

// Message types
const (
	MsgSlotField   = "slot.field"
	MsgStateField  = "state.field"
	MsgImageLoaded = "image.loaded"
	MsgImageError  = "image.error"
)

// Message is exchanged with kiosk pages
type Message struct {
	Type      string          `json:"type"`
	Slot      int             `json:"slot"`
	Field     string          `json:"field,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type stateKey struct {
	slot  int
	field string
}

// Hub tracks connected kiosk pages and the slot state they render
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	state   map[stateKey]*Message
	slots   []*Slot

	onError func(slot int)
	onReady func()
	ready   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		state:   make(map[stateKey]*Message),
	}
}

// OnErrorChanged registers the callback fired when a slot's image starts failing
func (h *Hub) OnErrorChanged(fn func(slot int)) {
	h.mu.Lock()
	h.onError = fn
	h.mu.Unlock()
}

// OnReady registers the callback fired once, when the first page connects
func (h *Hub) OnReady(fn func()) {
	h.mu.Lock()
	h.onReady = fn
	h.mu.Unlock()
}

// Slot returns the handle for slot i, creating slots as needed
func (h *Hub) Slot(i int) *Slot {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.slots) <= i {
		h.slots = append(h.slots, &Slot{hub: h, index: len(h.slots)})
	}
	return h.slots[i]
}

// Elements returns the view handles of slot i
func (h *Hub) Elements(i int) view.Elements {
	return h.Slot(i).Elements()
}

func (h *Hub) slot(i int) (*Slot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= len(h.slots) {
		return nil, false
	}
	return h.slots[i], true
}

// Publish sets a slideshow wide field such as paused or timeLabel
func (h *Hub) Publish(field string, value any) {
	h.publish(MsgStateField, -1, field, value)
}

func (h *Hub) publish(typ string, slot int, field string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Error("unable to encode surface value", "field", field, "error", err)
		return
	}
	msg := &Message{
		Type:      typ,
		Slot:      slot,
		Field:     field,
		Value:     raw,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("unable to encode surface message", "field", field, "error", err)
		return
	}

	h.mu.Lock()
	h.state[stateKey{slot: slot, field: field}] = msg
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.send(data)
	}
}

// Snapshot returns the last published value of every field
func (h *Hub) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, 0, len(h.state))
	for _, msg := range h.state {
		out = append(out, *msg)
	}
	return out
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	replay := make([][]byte, 0, len(h.state))
	for _, msg := range h.state {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		replay = append(replay, data)
	}
	onReady := h.onReady
	h.mu.Unlock()

	for _, data := range replay {
		c.send(data)
	}
	slog.Info("kiosk page connected", "client", c.id)

	if onReady != nil {
		h.ready.Do(func() { go onReady() })
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	slog.Info("kiosk page disconnected", "client", c.id)
}

// ClientCount is the number of connected pages
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleEvent applies an image event reported by a kiosk page
func (h *Hub) HandleEvent(msg Message) error {
	s, ok := h.slot(msg.Slot)
	if !ok {
		return fmt.Errorf("unknown slot %d", msg.Slot)
	}

	var url string
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &url); err != nil {
			return fmt.Errorf("image event value is not a url, %w", err)
		}
	}

	switch msg.Type {
	case MsgImageLoaded:
		s.setLoaded(url)
	case MsgImageError:
		if s.setFailed(url) {
			h.mu.RLock()
			onError := h.onError
			h.mu.RUnlock()
			if onError != nil {
				go onError(s.index)
			}
		}
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
