package brackets

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoom(t *testing.T) {
	assert.Equal(t, "event_42", EventRoom(42))
}

func TestBroadcastToUnknownRoomIsNoop(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	// No Run goroutine needed: broadcasting only reads the room map.
	hub.BroadcastToRoom("event_1", SyncMessage{Type: MsgBracketUpdated})
}

func (h *Hub) roomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func TestHubDeliversToRoomSubscribers(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()

	room := EventRoom(7)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.NewClient(conn, room)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// NewClient registers through the hub goroutine; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.roomSize(room) == 0 {
		require.True(t, time.Now().Before(deadline), "client never registered")
		time.Sleep(5 * time.Millisecond)
	}

	sent := SyncMessage{Type: MsgBracketUpdated, Payload: "payload", Room: room}
	hub.BroadcastToRoom(room, sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got SyncMessage
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sent.Type, got.Type)
	assert.Equal(t, room, got.Room)

	// A message for another room must not reach this subscriber.
	hub.BroadcastToRoom(EventRoom(8), SyncMessage{Type: MsgBracketReset})
	hub.BroadcastToRoom(room, SyncMessage{Type: MsgEventCompleted, Room: room})

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, MsgEventCompleted, got.Type)
}
