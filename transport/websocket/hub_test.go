package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
	}
}

func startServer(t *testing.T, hub *Hub) (*httptest.Server, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = "default"
		}
		hub.ServeWS(w, r, sessionID)
	}))
	return server, cancel
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message %s: %v", data, err)
	}
	return message
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if hub.ClientCount("test-session") != 1 {
		t.Errorf("Expected 1 client in session, got %d", hub.ClientCount("test-session"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)
	// second unregister must not close the channel again
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	hub.BroadcastToSession(sessionID, &engine.GameState{GameSize: 4, TotalScore: 12})

	for i, c := range []*Client{client1, client2} {
		select {
		case <-c.send:
		default:
			t.Errorf("client%d did not receive the broadcast", i+1)
		}
	}
	select {
	case <-other.send:
		t.Error("Broadcast leaked to another session")
	default:
	}

	hub.unregisterClient(client1)
	if hub.ClientCount(sessionID) != 1 || !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub()
	sessionID := "broadcast-test"
	client := newTestClient(hub, sessionID)
	hub.registerClient(client)

	hub.BroadcastToSession(sessionID, &engine.GameState{GameSize: 3, TotalScore: 4, TurnsPlayed: 2})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != sessionID {
			t.Errorf("Expected sessionID %s, got %s", sessionID, message.SessionID)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %s", EventStateUpdate, message.Event)
		}
		if message.GameState.TotalScore != 4 || message.GameState.TurnsPlayed != 2 {
			t.Error("GameState not correctly transmitted")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}
}

func TestHubBroadcastTurn(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "turn-test")
	hub.registerClient(client)

	turn := &engine.TurnResult{
		Direction:  engine.Left,
		Moves:      []engine.TileMoveEvent{{TileID: 2, To: engine.Coordinates{X: 0, Y: 0}}},
		Mergers:    []engine.TileMergerEvent{{AbsorbedID: 2, IntoID: 1, NewPower: 2}},
		ScoreDelta: 4,
		Effective:  true,
	}
	hub.BroadcastTurn("turn-test", turn, &engine.GameState{TotalScore: 4}, map[string]bool{"new_high_score": false})

	data := <-client.send
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatal(err)
	}
	if message.Event != EventTurn || message.Turn == nil {
		t.Fatalf("Expected turn event, got %+v", message)
	}
	if len(message.Turn.Mergers) != 1 || message.Turn.Mergers[0].IntoID != 1 {
		t.Errorf("Unexpected mergers %+v", message.Turn.Mergers)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "slow", send: make(chan []byte, 1)}
	hub.registerClient(client)

	hub.BroadcastToSession("slow", &engine.GameState{})
	hub.BroadcastToSession("slow", &engine.GameState{})

	if hub.ClientCount("slow") != 0 {
		t.Error("Expected slow client to be dropped")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != "custom-event" {
			t.Errorf("Expected event 'custom-event', got %s", message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := NewHub()
	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	conn := dial(t, server, "ws-test")
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub()
	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	conn := dial(t, server, "msg-test")
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 })

	hub.BroadcastToSession("msg-test", &engine.GameState{GameSize: 5, TotalScore: 200})
	hub.BroadcastEvent("msg-test", "new_game", nil)

	first := readMessage(t, conn)
	if first.GameState == nil || first.GameState.TotalScore != 200 {
		t.Errorf("Unexpected first message %+v", first)
	}
	second := readMessage(t, conn)
	if second.Event != "new_game" {
		t.Errorf("Expected new_game event, got %q", second.Event)
	}
}

func TestWebSocketInboundMoves(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	var got []ClientMessage
	hub.SetMessageHandler(func(sessionID string, msg ClientMessage) error {
		if msg.Direction == "sideways" {
			return errors.New("invalid direction")
		}
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		return nil
	})

	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	conn := dial(t, server, "in-test")
	defer conn.Close()

	for _, dir := range []string{"left", "up"} {
		if err := conn.WriteJSON(ClientMessage{Action: "move", Direction: dir}); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	})
	mu.Lock()
	if got[0].Direction != "left" || got[1].Direction != "up" {
		t.Errorf("Expected inbound order left, up; got %+v", got)
	}
	mu.Unlock()

	conn.WriteJSON(ClientMessage{Action: "move", Direction: "sideways"})
	reply := readMessage(t, conn)
	if reply.Event != EventError || reply.Data != "invalid direction" {
		t.Errorf("Expected error reply, got %+v", reply)
	}

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	reply = readMessage(t, conn)
	if reply.Event != EventError {
		t.Errorf("Expected error reply for bad JSON, got %+v", reply)
	}
}

func TestHubRunStops(t *testing.T) {
	hub := NewHub()
	server, cancel := startServer(t, hub)
	defer server.Close()

	conn := dial(t, server, "stop-test")
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("stop-test") == 1 })

	cancel()
	select {
	case <-hub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.ClientCount("stop-test") != 0 {
		t.Error("Expected clients closed on stop")
	}

	// events after stop do not block
	hub.BroadcastEvent("stop-test", "late", nil)
}
