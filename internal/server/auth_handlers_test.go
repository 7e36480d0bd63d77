package server

import (
	"net/http"
	"testing"

	"hearth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	_, app, _ := newTestServer(t)

	signup := map[string]any{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "Str0ngPassw0rd!",
	}

	resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeJSON(t, resp, &created)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "newuser", created.User.Username)
	assert.False(t, created.User.IsAdmin)

	// Duplicate email conflicts.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/signup", "", signup)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Login with the right and wrong password.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "newuser@example.com",
		"password": "Str0ngPassw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &login)
	assert.NotEmpty(t, login.Token)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "newuser@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	_, app, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing fields", map[string]any{"username": "x"}},
		{"weak password", map[string]any{
			"username": "newuser", "email": "n@example.com", "password": "short",
		}},
		{"bad email", map[string]any{
			"username": "newuser", "email": "not-an-email", "password": "Str0ngPassw0rd!",
		}},
		{"bad username", map[string]any{
			"username": "_bad", "email": "n@example.com", "password": "Str0ngPassw0rd!",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestOAuthFindOrCreate(t *testing.T) {
	_, app, db := newTestServer(t)

	payload := map[string]any{
		"email":  "oauth.user@example.com",
		"name":   "OAuth User",
		"avatar": "https://example.com/avatar.png",
	}

	resp := doRequest(t, app, http.MethodPost, "/api/auth/oauth", "", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeJSON(t, resp, &first)
	assert.NotEmpty(t, first.Token)
	assert.NotEmpty(t, first.User.Username)
	assert.Equal(t, "https://example.com/avatar.png", first.User.Avatar)

	// The second call finds the same account instead of creating another.
	resp = doRequest(t, app, http.MethodPost, "/api/auth/oauth", "", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second struct {
		User models.User `json:"user"`
	}
	decodeJSON(t, resp, &second)
	assert.Equal(t, first.User.ID, second.User.ID)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "oauth.user@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuthRequired(t *testing.T) {
	s, app, db := newTestServer(t)
	user, token := createUserWithToken(t, s, db, "profileuser", false)

	resp := doRequest(t, app, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/users/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	decodeJSON(t, resp, &me)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, "profileuser", me.Username)
}

func TestUpdateMyProfile(t *testing.T) {
	s, app, db := newTestServer(t)
	_, token := createUserWithToken(t, s, db, "profileuser", false)
	createUserWithToken(t, s, db, "takenname", false)

	resp := doRequest(t, app, http.MethodPut, "/api/users/me", token, map[string]any{
		"avatar": "https://example.com/new-avatar.png",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.User
	decodeJSON(t, resp, &updated)
	assert.Equal(t, "https://example.com/new-avatar.png", updated.Avatar)

	resp = doRequest(t, app, http.MethodPut, "/api/users/me", token, map[string]any{
		"username": "takenname",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
