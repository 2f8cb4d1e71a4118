package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/bloxevents/event-system/middleware"
	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/services"
	"github.com/go-chi/chi/v5"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(teamService services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func teamIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "teamID"))
	return id, err == nil && id > 0
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := teamIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}

	team, err := h.teamService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type memberInput struct {
	UserID int `json:"user_id"`
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.memberChange(w, r, h.teamService.AddMember)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.memberChange(w, r, h.teamService.RemoveMember)
}

func (h *TeamHandler) memberChange(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, teamID, actorID, userID int) (*models.Team, error),
) {
	id, ok := teamIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input memberInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID < 1 {
		badRequestResponse(w, r, errors.New("user_id is required"))
		return
	}

	team, err := op(r.Context(), id, actorID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := teamIDParam(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.teamService.Delete(r.Context(), id, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
