package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner/internal/auth"
	"travel-planner/internal/config"
	"travel-planner/internal/models"
	"travel-planner/internal/store"
)

const (
	testUserID  = "b7a9c9a0-1111-4b5e-9c3d-2f6a8e4d7c10"
	otherUserID = "c8b0d0b1-2222-4c6f-8d4e-3f7b9f5e8d21"
	testJobID   = "123e4567-e89b-12d3-a456-426614174000"
	testPlanID  = "456e7890-e89b-12d3-a456-426614174001"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:          "test-secret",
		AccessTokenTTL:     time.Hour,
		GenerationEstimate: 40 * time.Second,
	}
}

func newTestServer(t *testing.T, st Store) (*Server, string) {
	t.Helper()
	cfg := testConfig()
	s := New(cfg, st, nopEnqueuer{}, nil)
	token, err := auth.GenerateToken(testUserID, []byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	require.NoError(t, err)
	return s, token
}

func doStatus(s *Server, token, jobID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/plans/generate/"+jobID+"/status", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestJobStatusUnauthenticated(t *testing.T) {
	s, _ := newTestServer(t, &fakeStore{})

	for _, id := range []string{testJobID, "not-a-uuid"} {
		rec := doStatus(s, "", id)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "id=%s", id)
	}

	// A garbage token is just as unauthenticated as no token.
	rec := doStatus(s, "garbage.token.here", testJobID)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJobStatusMalformedID(t *testing.T) {
	s, token := newTestServer(t, &fakeStore{})

	malformed := []string{
		"not-a-uuid",
		"123e4567e89b12d3a456426614174000",       // no dashes
		"123e4567-e89b-12d3-a456-42661417400",    // short last group
		"123e4567-e89b-12d3-a456-4266141740000",  // long last group
		"123e4567-e89b-02d3-a456-426614174000",   // version 0
		"123e4567-e89b-62d3-a456-426614174000",   // version 6
		"123e4567-e89b-12d3-1456-426614174000",   // bad variant nibble
		"123e4567-e89b-12d3-c456-426614174000",   // bad variant nibble
		"g23e4567-e89b-12d3-a456-426614174000",   // non-hex character
		"123e4567-e89b-12d3-a456_426614174000",   // wrong separator
	}
	for _, id := range malformed {
		rec := doStatus(s, token, id)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id=%s", id)
		assert.Contains(t, rec.Body.String(), "malformed", "id=%s", id)
	}
}

func TestJobStatusMissingID(t *testing.T) {
	s, _ := newTestServer(t, &fakeStore{})

	// An empty path segment never matches the route, so exercise the handler
	// guard directly.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobID", "")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	s.handleJobStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing")
	assert.NotContains(t, rec.Body.String(), "malformed")
}

func TestJobStatusNotFound(t *testing.T) {
	st := &fakeStore{
		getJob: func(_ context.Context, id, userID string) (models.GenerationJob, error) {
			return models.GenerationJob{}, store.ErrNotFound
		},
	}
	s, token := newTestServer(t, st)

	rec := doStatus(s, token, testJobID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestJobStatusOwnedByOtherUserIsNotFound(t *testing.T) {
	jobs := map[string]models.GenerationJob{
		testJobID: {ID: testJobID, UserID: otherUserID, Status: models.StatusProcessing},
	}
	st := &fakeStore{
		getJob: func(_ context.Context, id, userID string) (models.GenerationJob, error) {
			job, ok := jobs[id]
			if !ok || job.UserID != userID {
				return models.GenerationJob{}, store.ErrNotFound
			}
			return job, nil
		},
	}
	s, token := newTestServer(t, st)

	rec := doStatus(s, token, testJobID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestJobStatusProcessingBody(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{
		getJob: func(_ context.Context, id, userID string) (models.GenerationJob, error) {
			return models.GenerationJob{
				ID:        testJobID,
				UserID:    testUserID,
				Status:    models.StatusProcessing,
				CreatedAt: now.Add(-10 * time.Second), // 25% of the 40s estimate
			}, nil
		},
	}
	s, token := newTestServer(t, st)
	s.now = func() time.Time { return now }

	rec := doStatus(s, token, testJobID)
	require.Equal(t, http.StatusOK, rec.Code)
	want := fmt.Sprintf(`{"job_id":"%s","status":"processing","progress":25}`, testJobID)
	assert.Equal(t, want, strings.TrimSpace(rec.Body.String()))
}

func TestJobStatusCompletedBody(t *testing.T) {
	planID := testPlanID
	st := &fakeStore{
		getJob: func(_ context.Context, id, userID string) (models.GenerationJob, error) {
			return models.GenerationJob{
				ID:        testJobID,
				UserID:    testUserID,
				Status:    models.StatusCompleted,
				PlanID:    &planID,
				CreatedAt: time.Now().Add(-time.Minute),
			}, nil
		},
	}
	s, token := newTestServer(t, st)

	rec := doStatus(s, token, testJobID)
	require.Equal(t, http.StatusOK, rec.Code)
	want := fmt.Sprintf(`{"job_id":"%s","status":"completed","progress":100,"plan_id":"%s"}`, testJobID, testPlanID)
	assert.Equal(t, want, strings.TrimSpace(rec.Body.String()))
}

func TestJobStatusFailedBody(t *testing.T) {
	msg := "AI service temporarily unavailable"
	st := &fakeStore{
		getJob: func(_ context.Context, id, userID string) (models.GenerationJob, error) {
			return models.GenerationJob{
				ID:           testJobID,
				UserID:       testUserID,
				Status:       models.StatusFailed,
				ErrorMessage: &msg,
				CreatedAt:    time.Now().Add(-time.Minute),
			}, nil
		},
	}
	s, token := newTestServer(t, st)

	rec := doStatus(s, token, testJobID)
	require.Equal(t, http.StatusOK, rec.Code)
	want := fmt.Sprintf(`{"job_id":"%s","status":"failed","progress":0,"error_message":"%s"}`, testJobID, msg)
	assert.Equal(t, want, strings.TrimSpace(rec.Body.String()))
}

func TestJobStatusFailureClasses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"transient lookup failure", fmt.Errorf("dial tcp: %w", store.ErrTransient), http.StatusServiceUnavailable},
		{"unexpected failure", fmt.Errorf("scan job: corrupt row"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := &fakeStore{
				getJob: func(_ context.Context, id, userID string) (models.GenerationJob, error) {
					return models.GenerationJob{}, tc.err
				},
			}
			s, token := newTestServer(t, st)

			rec := doStatus(s, token, testJobID)
			assert.Equal(t, tc.code, rec.Code)
			assert.NotContains(t, rec.Body.String(), "corrupt row")
		})
	}
}
