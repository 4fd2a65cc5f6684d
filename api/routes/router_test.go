package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenloop-app/greenloop-backend/pkg/config"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config: &config.Config{App: config.AppConfig{Env: "test"}},
		Logger: logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.Disabled, Output: io.Discard}),
	})
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env := rec.Header().Get("X-GreenLoop-Env"); env != "test" {
		t.Fatalf("expected env header test, got %q", env)
	}
}

func TestAPIRequiresActorIdentity(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers, got %d", rec.Code)
	}
}

func TestAPIRejectsInvalidActorRole(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil)
	req.Header.Set("X-Actor-Id", uuid.NewString())
	req.Header.Set("X-Actor-Role", "plumber")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown role, got %d", rec.Code)
	}
}

func TestRoleGuardedRoutes(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{name: "courier list needs delivery role", method: http.MethodGet, path: "/api/v1/orders/courier", role: "customer", want: http.StatusForbidden},
		{name: "deduct needs admin role", method: http.MethodPost, path: "/api/v1/rewards/deduct", role: "delivery", want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("X-Actor-Id", uuid.NewString())
			req.Header.Set("X-Actor-Role", tc.role)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	req.Header.Set("X-Actor-Id", uuid.NewString())
	req.Header.Set("X-Actor-Role", "customer")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
