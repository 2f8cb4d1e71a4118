package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/bloxevents/event-system/middleware"
	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/repositories"
	"github.com/bloxevents/event-system/services"
	"github.com/go-chi/chi/v5"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func eventIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	return id, err == nil && id > 0
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}

	event, err := h.eventService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListEventsFilter{Limit: 50}

	if t := r.URL.Query().Get("type"); t != "" {
		eventType := models.EventType(t)
		filter.Type = &eventType
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.EventStatus(s)
		filter.Status = &status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if offset, err := strconv.Atoi(o); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	events, err := h.eventService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type rosterChangeInput struct {
	TeamID *int `json:"team_id"`
}

func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	h.rosterChange(w, r, h.eventService.Join)
}

func (h *EventHandler) Leave(w http.ResponseWriter, r *http.Request) {
	h.rosterChange(w, r, h.eventService.Leave)
}

func (h *EventHandler) rosterChange(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, eventID, userID int, teamID *int) (*models.Event, error),
) {
	id, ok := eventIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input rosterChangeInput
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	event, err := op(r.Context(), id, userID, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) DrawGiveaway(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	event, err := h.eventService.DrawGiveaway(r.Context(), id, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.eventService.Delete(r.Context(), id, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

const maxBannerSize = 5 << 20 // 5MB

func (h *EventHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	contentType := r.Header.Get("Content-Type")
	switch contentType {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
	default:
		badRequestResponse(w, r, errors.New("banner must be a png, jpeg, webp or gif image"))
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBannerSize)
	event, err := h.eventService.UploadBanner(r.Context(), id, userID, contentType, body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
