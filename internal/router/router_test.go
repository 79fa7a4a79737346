package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"edulearn/internal/cache"
	"edulearn/internal/catalog"
	"edulearn/internal/database"
	"edulearn/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func testDeps() Deps {
	reg := prometheus.NewRegistry()
	cat := catalog.NewService(&database.FakeDB{})
	return Deps{
		DB:        &database.FakeDB{},
		Cache:     &cache.FakeCache{},
		Resources: cat,
		Events:    cat,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
	}
}

func TestSetupRoutes(t *testing.T) {
	e := echo.New()
	Setup(e, testDeps())

	got := map[string]struct{}{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = struct{}{}
	}

	expected := []string{
		http.MethodGet + " /metrics",
		http.MethodGet + " /swagger/*",
		http.MethodGet + " /api/ping",
		http.MethodPost + " /api/auth/signup",
		http.MethodPost + " /api/auth/signin",
		http.MethodPost + " /api/auth/signout",
		http.MethodGet + " /api/auth/session",
		http.MethodGet + " /api/auth/:provider/login",
		http.MethodGet + " /api/auth/:provider/callback",
		http.MethodGet + " /api/users/me/api-key",
		http.MethodPut + " /api/users/me/api-key",
		http.MethodDelete + " /api/users/me/api-key",
		http.MethodGet + " /api/tokens/status",
		http.MethodGet + " /api/tokens/usage",
		http.MethodPost + " /api/chat",
		http.MethodGet + " /api/resources",
		http.MethodGet + " /api/resources/:id",
		http.MethodPost + " /api/resources",
		http.MethodPost + " /api/resources/:id/approve",
		http.MethodPost + " /api/resources/:id/reject",
		http.MethodDelete + " /api/resources/:id",
		http.MethodGet + " /api/events",
		http.MethodGet + " /api/events/:id",
		http.MethodPost + " /api/events",
		http.MethodPost + " /api/events/:id/approve",
		http.MethodPost + " /api/events/:id/reject",
		http.MethodDelete + " /api/events/:id",
		http.MethodPost + " /api/events/:id/register",
		http.MethodGet + " /api/events/:id/registration",
		http.MethodGet + " /api/models",
		http.MethodGet + " /api/admin/users",
		http.MethodPatch + " /api/admin/users/:id/admin",
		http.MethodPost + " /api/admin/models/sync",
		http.MethodGet + " /api/admin/models/sync",
	}

	for _, k := range expected {
		_, ok := got[k]
		require.True(t, ok, "missing route %s", k)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	e := echo.New()
	Setup(e, testDeps())

	for _, target := range []struct{ method, path string }{
		{http.MethodGet, "/api/tokens/status"},
		{http.MethodPost, "/api/chat"},
		{http.MethodPost, "/api/events/1/register"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodPut, "/api/users/me/api-key"},
	} {
		req := httptest.NewRequest(target.method, target.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, target.path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := echo.New()
	d := testDeps()
	d.Metrics.Chat(metrics.OutcomeOK)
	Setup(e, d)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `edulearn_chat_requests_total{outcome="ok"} 1`)
}
