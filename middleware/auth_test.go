package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloxevents/event-system/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	var gotUserID int
	var gotRole models.UserRole
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotUserID, err = GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotRole, err = GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))

	valid := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 42,
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{
			"wrong secret",
			"Bearer " + signToken(t, []byte("other"), jwt.MapClaims{"user_id": 42, "role": "member"}),
			http.StatusUnauthorized,
		},
		{
			"expired token",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"user_id": 42,
				"role":    "member",
				"exp":     time.Now().Add(-time.Hour).Unix(),
			}),
			http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	assert.Equal(t, 42, gotUserID)
	assert.Equal(t, models.RoleAdmin, gotRole)
}

func TestContextAccessorsWithoutClaims(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := GetUserIDFromContext(r.Context())
	assert.Error(t, err)
	_, err = GetUserRoleFromContext(r.Context())
	assert.Error(t, err)
}

func TestGetUserIDRejectsBadClaims(t *testing.T) {
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := GetUserIDFromContext(r.Context())
		assert.Error(t, err)
	}))

	for _, claims := range []jwt.MapClaims{
		{"role": "member"},            // missing user_id
		{"user_id": "42"},             // wrong type
		{"user_id": 0},                // out of range
		{"user_id": -3},               // out of range
		{"user_id": 1.5, "role": "x"}, // not an integer
	} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
