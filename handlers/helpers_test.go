package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bloxevents/event-system/brackets"
	"github.com/bloxevents/event-system/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"title":"Obby Cup"}`, ""},
		{"empty body", ``, "body must not be empty"},
		{"malformed", `{"title":`, "badly-formed JSON"},
		{"wrong type", `{"title":7}`, `incorrect JSON type for field "title"`},
		{"unknown key", `{"nope":1}`, "unknown key"},
		{"trailing value", `{"title":"x"}{"title":"y"}`, "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst payload
			err := readJSON(w, r, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Obby Cup", dst.Title)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	err := writeJSON(w, http.StatusCreated, jsonResponse{"ok": true}, http.Header{"X-Custom": []string{"v"}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "v", w.Header().Get("X-Custom"))
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{services.ErrEventNotFound, http.StatusNotFound},
		{services.ErrTeamNotFound, http.StatusNotFound},
		{services.ErrBracketAlreadyGenerated, http.StatusConflict},
		{services.ErrEventConflict, http.StatusConflict},
		{services.ErrAlreadyJoined, http.StatusConflict},
		{services.ErrInsufficientParticipants, http.StatusBadRequest},
		{services.ErrBracketNotGenerated, http.StatusBadRequest},
		{services.ErrNotTournament, http.StatusBadRequest},
		{brackets.ErrInvalidAdvance, http.StatusBadRequest},
		{services.ErrAuthInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/events/1/bracket", nil)
			w := httptest.NewRecorder()
			mapServiceErrorToHTTP(w, r, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
