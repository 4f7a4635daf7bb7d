package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, engine.WebSocketBufferSize),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func dialSession(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, sessionID)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(sessionID) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	require.NotNil(t, hub)
	assert.NotNil(t, hub.sessions)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.Equal(t, 0, hub.ClientCount("none"))
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	first := newTestClient(hub, "ab12")
	second := newTestClient(hub, "ab12")

	hub.registerClient(first)
	hub.registerClient(second)
	assert.Equal(t, 2, hub.ClientCount("ab12"))

	hub.unregisterClient(first)
	assert.Equal(t, 1, hub.ClientCount("ab12"))
	_, open := <-first.send
	assert.False(t, open, "send channel should be closed")

	// unregistering twice is harmless
	hub.unregisterClient(first)

	hub.unregisterClient(second)
	assert.Equal(t, 0, hub.ClientCount("ab12"))
	_, exists := hub.sessions["ab12"]
	assert.False(t, exists, "empty sessions are removed")
}

func TestHubBroadcastOnlyReachesSession(t *testing.T) {
	hub := NewHub()
	watcher := newTestClient(hub, "ab12")
	other := newTestClient(hub, "cd34")
	hub.registerClient(watcher)
	hub.registerClient(other)

	state := &engine.GameState{BoardSize: engine.Easy, FlipCount: 3, MoveCount: 1}
	hub.broadcastMessage(&Message{SessionID: "ab12", GameState: state, Event: EventStateUpdate})

	select {
	case data := <-watcher.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, EventStateUpdate, msg.Event)
		require.NotNil(t, msg.GameState)
		assert.Equal(t, 3, msg.GameState.FlipCount)
	default:
		t.Fatal("watcher did not receive the broadcast")
	}

	assert.Empty(t, other.send)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "ab12", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "ab12", Event: "one"})
	hub.broadcastMessage(&Message{SessionID: "ab12", Event: "two"})

	assert.Equal(t, 0, hub.ClientCount("ab12"))
}

func TestHubEnqueueNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		// the hub is not running, so the queue fills up
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.BroadcastEvent("ab12", "flip", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastEvent blocked")
	}
	assert.Len(t, hub.broadcast, engine.WebSocketBufferSize)
}

func TestWebSocketReceivesStateUpdates(t *testing.T) {
	hub := startHub(t)
	conn := dialSession(t, hub, "ab12")

	eng, err := engine.NewEngine(&engine.GameConfig{BoardSize: engine.Easy, Seed: 1})
	require.NoError(t, err)
	_, err = eng.Flip(0)
	require.NoError(t, err)

	hub.BroadcastToSession("ab12", eng.GetState())
	msg := readMessage(t, conn)
	assert.Equal(t, "ab12", msg.SessionID)
	assert.Equal(t, EventStateUpdate, msg.Event)
	require.NotNil(t, msg.GameState)
	assert.True(t, msg.GameState.Cards[0].IsFaceUp)
	assert.NotEmpty(t, msg.GameState.Cards[0].ID)
	assert.Empty(t, msg.GameState.Cards[1].ID)

	hub.BroadcastEvent("ab12", EventVictory, map[string]int{"moves": 4})
	msg = readMessage(t, conn)
	assert.Equal(t, EventVictory, msg.Event)
	assert.Equal(t, map[string]interface{}{"moves": float64(4)}, msg.Data)
}

func TestWebSocketClientDisconnect(t *testing.T) {
	hub := startHub(t)
	conn := dialSession(t, hub, "ab12")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount("ab12") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	conn := dialSession(t, hub, "ab12")

	cancel()
	<-hub.done

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount("ab12"))
}
