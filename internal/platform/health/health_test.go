package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"infusesecret/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func serve(t *testing.T, h *Handler) map[string]interface{} {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(nil) })

	r := gin.New()
	r.GET("/health", h.HealthCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheckOK(t *testing.T) {
	h := NewHealthHandler(pingFunc(func(context.Context) error { return nil }), "memory", "1.0.0")
	h.now = func() time.Time { return time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC) }

	body := serve(t, h)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "InfuseSecret API is running", body["message"])
	assert.Equal(t, "2026-02-14T08:00:00Z", body["timestamp"])

	db := body["database"].(map[string]interface{})
	assert.Equal(t, "healthy", db["status"])
	assert.Equal(t, "memory", db["driver"])
	assert.NotContains(t, db, "error")
}

func TestHealthCheckDegraded(t *testing.T) {
	h := NewHealthHandler(pingFunc(func(context.Context) error {
		return errors.New("server selection timeout: mongodb://secret@10.0.0.1")
	}), "mongo", "1.0.0")

	body := serve(t, h)
	assert.Equal(t, "degraded", body["status"])

	db := body["database"].(map[string]interface{})
	assert.Equal(t, "unhealthy", db["status"])
	assert.Equal(t, "database unavailable", db["error"])
}

func TestHealthCheckWithoutDatabase(t *testing.T) {
	body := serve(t, NewHealthHandler(nil, "", ""))
	assert.Equal(t, "degraded", body["status"])
}
