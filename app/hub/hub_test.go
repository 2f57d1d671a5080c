package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBroadcastEvent_NoSubscribersIsNoOp(t *testing.T) {
	h := NewHub()
	go h.Run()

	// Must not block, error or panic with zero clients
	for i := 0; i < 10; i++ {
		h.BroadcastEvent("content_update", map[string]interface{}{"phase": "ingested"})
	}

	if h.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", h.ClientCount())
	}
}

func TestBroadcastEvent_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	// Run loop deliberately not started; the queue fills up
	h := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 400; i++ {
			h.BroadcastEvent("content_update", map[string]interface{}{"i": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastEvent blocked on a full queue")
	}
}

func TestBroadcastEvent_DeliversToSubscriberInOrder(t *testing.T) {
	h := NewHub()
	go h.Run()

	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the connection
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	phases := []string{"ingested", "moderation_complete", "publish_complete"}
	for _, phase := range phases {
		h.BroadcastEvent("content_update", map[string]interface{}{"phase": phase})
	}

	for _, want := range phases {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read broadcast: %v", err)
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("Failed to parse broadcast: %v", err)
		}
		if msg.Type != "content_update" {
			t.Errorf("Expected type 'content_update', got '%s'", msg.Type)
		}
		if msg.Timestamp.IsZero() {
			t.Error("Expected a timestamp on the broadcast")
		}

		data, ok := msg.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("Unexpected data shape: %v", msg.Data)
		}
		if data["phase"] != want {
			t.Errorf("Expected phase '%s', got '%v'", want, data["phase"])
		}
	}
}

func TestClientCount_TracksConnections(t *testing.T) {
	h := NewHub()
	go h.Run()

	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 1 client, got %d", h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 0 clients after disconnect, got %d", h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
