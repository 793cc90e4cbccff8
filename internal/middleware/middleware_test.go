package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]*models.User

func (r staticResolver) UserFromToken(_ context.Context, token string) (*models.User, error) {
	user, ok := r[token]
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	return user, nil
}

func TestAuth(t *testing.T) {
	worker := &models.User{ID: uuid.New(), Username: "worker", Role: models.RoleWorker}
	resolver := staticResolver{"good": worker}

	var seen *models.User
	h := Auth(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, worker.ID, seen.ID)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(user *models.User) int {
		req := httptest.NewRequest(http.MethodGet, "/api/shifts", nil)
		if user != nil {
			req = req.WithContext(WithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&models.User{Role: models.RoleWorker}))
	assert.Equal(t, http.StatusNoContent, serve(&models.User{Role: models.RoleManager}))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	h := Logger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"message":"inside"`)
	assert.Contains(t, out, `"status":418`)
}
