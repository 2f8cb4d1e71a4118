package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bloxevents/event-system/middleware"
	"github.com/bloxevents/event-system/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

// Generate godoc
// @Summary Generate the event bracket
// @Tags brackets
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Success 201 {object} map[string]interface{}
// @Router /events/{eventID}/bracket [post]
func (h *BracketHandler) Generate(w http.ResponseWriter, r *http.Request) {
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

	event, err := h.bracketService.Generate(r.Context(), id, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type advanceInput struct {
	Round      int    `json:"round"`
	MatchIndex int    `json:"match_index"`
	LoserID    string `json:"loser_id"`
}

// Advance godoc
// @Summary Record a match outcome and propagate the winner
// @Tags brackets
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param input body advanceInput true "Match result"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/bracket/advance [post]
func (h *BracketHandler) Advance(w http.ResponseWriter, r *http.Request) {
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

	var input advanceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.LoserID) == "" {
		badRequestResponse(w, r, errors.New("loser_id is required"))
		return
	}

	event, err := h.bracketService.Advance(r.Context(), id, userID, input.Round, input.MatchIndex, input.LoserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reset godoc
// @Summary Discard the bracket and reopen the event
// @Tags brackets
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/bracket [delete]
func (h *BracketHandler) Reset(w http.ResponseWriter, r *http.Request) {
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

	event, err := h.bracketService.Reset(r.Context(), id, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Layout godoc
// @Summary Compute render geometry for the event bracket
// @Tags brackets
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/bracket/layout [get]
func (h *BracketHandler) Layout(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}

	layout, err := h.bracketService.Layout(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"layout": layout}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
