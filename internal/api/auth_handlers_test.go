package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner/internal/auth"
	"travel-planner/internal/models"
	"travel-planner/internal/store"
)

func doPost(s *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestServer(t, &fakeStore{})

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing email", `{"password":"hunter2hunter2"}`, "email"},
		{"malformed email", `{"email":"nope","password":"hunter2hunter2"}`, "email"},
		{"no domain dot", `{"email":"a@b","password":"hunter2hunter2"}`, "email"},
		{"short password", `{"email":"a@example.com","password":"short"}`, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doPost(s, "/api/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.field, resp.Field)
		})
	}
}

func TestRegisterSuccess(t *testing.T) {
	st := &fakeStore{
		createUser: func(_ context.Context, email, hash string) (models.User, error) {
			assert.Equal(t, "a@example.com", email)
			assert.True(t, auth.CheckPassword(hash, "hunter2hunter2"))
			return models.User{ID: testUserID, Email: email}, nil
		},
	}
	s, _ := newTestServer(t, st)

	rec := doPost(s, "/api/auth/register", `{"email":"A@Example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "a@example.com", resp.User.Email)

	// Issued token must pass the middleware.
	uid, err := auth.UserIDFromToken(resp.Token, []byte(testConfig().JWTSecret))
	require.NoError(t, err)
	assert.Equal(t, testUserID, uid)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	st := &fakeStore{
		createUser: func(_ context.Context, email, hash string) (models.User, error) {
			return models.User{}, store.ErrEmailTaken
		},
	}
	s, _ := newTestServer(t, st)

	rec := doPost(s, "/api/auth/register", `{"email":"a@example.com","password":"hunter2hunter2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already registered")
}

func TestLoginOutcomes(t *testing.T) {
	hash, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	st := &fakeStore{
		getUserByEmail: func(_ context.Context, email string) (models.User, error) {
			if email != "a@example.com" {
				return models.User{}, store.ErrNotFound
			}
			return models.User{ID: testUserID, Email: email, PasswordHash: hash}, nil
		},
	}
	s, _ := newTestServer(t, st)

	rec := doPost(s, "/api/auth/login", `{"email":"a@example.com","password":"hunter2hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// Wrong password and unknown account produce the same generic response.
	recWrong := doPost(s, "/api/auth/login", `{"email":"a@example.com","password":"wrong-password"}`)
	recUnknown := doPost(s, "/api/auth/login", `{"email":"b@example.com","password":"hunter2hunter2"}`)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, strings.TrimSpace(recWrong.Body.String()), strings.TrimSpace(recUnknown.Body.String()))
}
