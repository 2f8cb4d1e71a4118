package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bloxevents/event-system/brackets"
	"github.com/bloxevents/event-system/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub            *brackets.Hub
	eventService   services.EventService
	upgrader       websocket.Upgrader
	logger         *slog.Logger
	allowedOrigins map[string]struct{}
}

func NewWebSocketHandler(hub *brackets.Hub, eventService services.EventService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		eventService:   eventService,
		logger:         logger,
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		h.allowedOrigins[origin] = struct{}{}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if _, ok := h.allowedOrigins["*"]; ok {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, ok := h.allowedOrigins[origin]
	return ok
}

// ServeWs subscribes the caller to the live feed of one event. The event must
// exist; the subscription itself needs no authentication, it is read-only.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil || eventID < 1 {
		notFoundResponse(w, r)
		return
	}

	if _, err := h.eventService.Get(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Warn("ws upgrade failed",
			slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}

	h.hub.NewClient(conn, brackets.EventRoom(eventID))
}
