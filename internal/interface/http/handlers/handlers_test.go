package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_HeaderAndBearer(t *testing.T) {
	auth := NewAPIKeyAuth("X-API-Key", []string{"secret", ""})
	protected := auth.Middleware(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
	req.Header.Set("X-API-Key", "wrong")
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
	req.Header.Set("X-API-Key", "secret")
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer secret")
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompositeHealthChecker_AggregatesResults(t *testing.T) {
	checker := NewCompositeHealthChecker("v1.0.0")
	checker.AddCheck("postgres", func(context.Context) error { return nil })
	checker.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.Equal(t, "v1.0.0", status.Version)
	require.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["postgres"].Healthy)
	assert.False(t, status.Checks["redis"].Healthy)
	assert.Contains(t, status.Checks["redis"].Message, "connection refused")
}

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("v1.0.0").Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)
}

func TestCompositeHealthChecker_RemoveCheck(t *testing.T) {
	checker := NewCompositeHealthChecker("v1.0.0")
	checker.AddCheck("redis", func(context.Context) error { return errors.New("down") })
	checker.RemoveCheck("redis")

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
}

func TestRequestSizeLimit_RejectsDeclaredOversize(t *testing.T) {
	limited := RequestSizeLimitMiddleware(8)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 64
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
