package brackets

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types pushed to event rooms.
const (
	MsgBracketUpdated = "BRACKET_UPDATED"
	MsgBracketReset   = "BRACKET_RESET"
	MsgEventCompleted = "EVENT_COMPLETED"
)

// SyncMessage is the envelope broadcast to every subscriber of an event room
// whenever a bracket (or event) change is committed.
type SyncMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
}

// EventRoom names the hub room all viewers of an event subscribe to.
func EventRoom(eventID int) string {
	return fmt.Sprintf("event_%d", eventID)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one websocket subscriber attached to a single room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

// Hub fans committed state out to room subscribers. It is the subscribe half
// of the live sync boundary; the commit half is the conditional event update
// in the repository layer.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]struct{}),
		logger:     logger,
	}
}

// Run processes client registrations. It must be started once, before any
// client connects, and runs for the lifetime of the process.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]struct{})
			}
			h.rooms[client.room][client] = struct{}{}
			h.logger.Info("ws client joined",
				slog.String("room", client.room),
				slog.Int("clients", len(h.rooms[client.room])))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					client.close()
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
					h.logger.Info("ws client left", slog.String("room", client.room))
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom delivers message to every client in the room. Clients whose
// send buffers are full are skipped; they catch up on the next commit, and
// the final committed state always reaches everyone still connected.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("ws broadcast marshal failed",
			slog.String("room", roomID), slog.Any("error", err))
		return
	}

	for client := range clients {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- data:
			default:
				h.logger.Warn("ws client send buffer full, skipping",
					slog.String("room", roomID))
			}
		}
		client.mu.Unlock()
	}
}

// NewClient attaches an upgraded connection to a room and starts its pumps.
func (h *Hub) NewClient(conn *websocket.Conn, room string) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		room: room,
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
	return client
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump drains inbound frames, enforcing the pong deadline. Viewer
// commands arrive over the HTTP API, not the socket, so payloads are ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("ws read error",
					slog.String("room", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Batch anything already queued into the same frame,
			// newline-delimited.
			for i := len(c.send); i > 0; i-- {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
