package surface

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func rawString(t *testing.T, s string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestSlotImageState(t *testing.T) {
	h := NewHub()
	errs := make(chan int, 4)
	h.OnErrorChanged(func(slot int) { errs <- slot })

	s := h.Slot(1)
	s.Publish("url", "https://bucket/a.jpg?sig=1")
	if s.Error() || s.Loaded() {
		t.Fatal("new url should be neither failed nor loaded")
	}

	if err := h.HandleEvent(Message{Type: MsgImageLoaded, Slot: 1, Value: rawString(t, "https://bucket/a.jpg?sig=1")}); err != nil {
		t.Fatal(err)
	}
	if !s.Loaded() {
		t.Error("slot should be loaded")
	}

	// events for a url the slot no longer shows are ignored
	if err := h.HandleEvent(Message{Type: MsgImageError, Slot: 1, Value: rawString(t, "https://bucket/old.jpg")}); err != nil {
		t.Fatal(err)
	}
	if s.Error() {
		t.Error("stale error event should be ignored")
	}

	for range 2 {
		if err := h.HandleEvent(Message{Type: MsgImageError, Slot: 1, Value: rawString(t, "https://bucket/a.jpg?sig=1")}); err != nil {
			t.Fatal(err)
		}
	}
	if !s.Error() {
		t.Error("slot should be failed")
	}

	select {
	case slot := <-errs:
		if slot != 1 {
			t.Errorf("error callback slot = %d, want 1", slot)
		}
	case <-time.After(time.Second):
		t.Fatal("error callback not fired")
	}
	select {
	case <-errs:
		t.Error("error callback must fire only when the state flips")
	case <-time.After(50 * time.Millisecond):
	}

	s.Publish("url", "https://bucket/a.jpg?sig=2")
	if s.Error() {
		t.Error("new url should clear the error")
	}
}

func TestHandleEventErrors(t *testing.T) {
	h := NewHub()
	h.Slot(0)
	if err := h.HandleEvent(Message{Type: MsgImageLoaded, Slot: 5}); err == nil {
		t.Error("unknown slot should fail")
	}
	if err := h.HandleEvent(Message{Type: "bogus", Slot: 0}); err == nil {
		t.Error("unknown type should fail")
	}
	if err := h.HandleEvent(Message{Type: MsgImageLoaded, Slot: 0, Value: json.RawMessage(`12`)}); err == nil {
		t.Error("non string value should fail")
	}
}

func TestServeWSReplaysState(t *testing.T) {
	h := NewHub()
	var ready atomic.Int32
	readyCh := make(chan struct{}, 2)
	h.OnReady(func() {
		ready.Add(1)
		readyCh <- struct{}{}
	})
	h.Publish("paused", true)
	h.Slot(0).Publish("url", "https://bucket/a.jpg")

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	for range 2 {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatal(err)
		}

		seen := map[string]bool{}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for range 2 {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatal(err)
			}
			seen[msg.Field] = true
		}
		if !seen["paused"] || !seen["url"] {
			t.Errorf("replay = %v, want paused and url", seen)
		}
		conn.Close()
	}

	select {
	case <-readyCh:
	case <-time.After(time.Second):
		t.Fatal("ready callback not fired")
	}
	time.Sleep(50 * time.Millisecond)
	if ready.Load() != 1 {
		t.Errorf("ready fired %d times, want 1", ready.Load())
	}
}
