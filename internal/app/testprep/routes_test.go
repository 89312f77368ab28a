package testprep

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/testprep/internal/config"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/health"
	customjwt "github.com/magabrotheeeer/testprep/internal/lib/jwt"
	"github.com/magabrotheeeer/testprep/internal/models"
	authservice "github.com/magabrotheeeer/testprep/internal/services/auth"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newRouter(t *testing.T) (http.Handler, *customjwt.Maker) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	maker := customjwt.NewMaker("routes-secret", time.Hour)

	r := chi.NewRouter()
	RegisterRoutes(r, logger, config.RateLimit{RPS: 1000, Burst: 1000}, Services{
		Auth:         authservice.NewAuthService(nil, maker, nil, nil, logger),
		Dependencies: map[string]health.Pinger{"postgres": okPinger{}},
	})
	return r, maker
}

func TestRoutes(t *testing.T) {
	router, maker := newRouter(t)

	student, err := maker.GenerateToken("u1", models.RoleStudent)
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "grading requires token", method: http.MethodPost, path: "/api/v1/questions/check-answers", wantStatus: http.StatusUnauthorized},
		{name: "history requires token", method: http.MethodGet, path: "/api/v1/subscriptions/history", wantStatus: http.StatusUnauthorized},
		{name: "tariff creation is admin only", method: http.MethodPost, path: "/api/v1/tariffs", token: student, wantStatus: http.StatusForbidden},
		{name: "promo list is admin only", method: http.MethodGet, path: "/api/v1/promos", token: student, wantStatus: http.StatusForbidden},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nope", token: student, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
