package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient builds a Client with a send channel but no real connection.
func mockClient(hub *Hub, familyID int64) *Client {
	return &Client{
		hub:      hub,
		conn:     nil,
		familyID: familyID,
		send:     make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(1); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	// A second unregister of the same client must not panic.
	hub.Unregister(c2)
	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToFamily(t *testing.T) {
	hub := NewHub(slog.Default())

	ours := mockClient(hub, 1)
	theirs := mockClient(hub, 2)
	hub.Register(ours)
	hub.Register(theirs)

	hub.Broadcast(1, NewMessage("calendar_event", "created", 42, nil))

	select {
	case data := <-ours.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "calendar_event_created" {
			t.Errorf("type = %q", got.Type)
		}
		if got.ID != 42 {
			t.Errorf("id = %d, want 42", got.ID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case <-theirs.send:
		t.Error("other family received the broadcast")
	default:
	}

	hub.Unregister(ours)
	hub.Unregister(theirs)
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(1, NewMessage("child", "updated", int64(i), nil))
	}
	// A full buffer drops the message instead of blocking.
	hub.Broadcast(1, NewMessage("child", "updated", 999, nil))

	count := 0
drain:
	for {
		select {
		case <-c.send:
			count++
		default:
			break drain
		}
	}
	if count != sendBufferSize {
		t.Errorf("got %d buffered messages, want %d", count, sendBufferSize)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("medication", "dose_recorded", 5, map[string]any{"child_id": float64(3)})
	if msg.Type != "medication_dose_recorded" {
		t.Errorf("type = %q", msg.Type)
	}
	if msg.Entity != "medication" || msg.Action != "dose_recorded" || msg.ID != 5 {
		t.Errorf("message = %+v", msg)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, 1)
			hub.Register(c)
			hub.Broadcast(1, NewMessage("calendar_event", "updated", 0, nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()
	if got := hub.ClientCount(1); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
