package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/shalom-ministry/internal/config"
	"github.com/deppfellow/shalom-ministry/internal/server"
)

func newHealthServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: config.EnvTest},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
	}
}

func checkHealth(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)
	require.NoError(t, h.CheckHealth(c))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestCheckHealth_AllHealthy(t *testing.T) {
	h := NewHealthHandlerWithChecks(newHealthServer(), time.Second,
		HealthCheck{Name: "database", Required: true, Ping: func(context.Context) error { return nil }},
	)

	status, body := checkHealth(t, h)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, config.EnvTest, body["environment"])
}

func TestCheckHealth_OptionalFailureStaysUp(t *testing.T) {
	h := NewHealthHandlerWithChecks(newHealthServer(), time.Second,
		HealthCheck{Name: "database", Required: true, Ping: func(context.Context) error { return nil }},
		HealthCheck{Name: "log_store", Ping: func(context.Context) error { return errors.New("no route to host") }},
	)

	status, body := checkHealth(t, h)

	assert.Equal(t, http.StatusOK, status)
	checks := body["checks"].(map[string]any)
	logStore := checks["log_store"].(map[string]any)
	assert.Equal(t, "unhealthy", logStore["status"])
	assert.Equal(t, "no route to host", logStore["error"])
}

func TestCheckHealth_RequiredFailureIs503(t *testing.T) {
	h := NewHealthHandlerWithChecks(newHealthServer(), time.Second,
		HealthCheck{Name: "database", Required: true, Ping: func(context.Context) error { return errNotConnected }},
	)

	status, body := checkHealth(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestCheckHealth_PingGetsDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHealthHandlerWithChecks(newHealthServer(), 50*time.Millisecond,
		HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}},
	)

	checkHealth(t, h)
	assert.True(t, hasDeadline)
}

func TestNewHealthHandler_DatabaseWithoutPoolIsUnhealthy(t *testing.T) {
	status, body := checkHealth(t, NewHealthHandler(newHealthServer()))

	assert.Equal(t, http.StatusServiceUnavailable, status)
	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks, "database")
	assert.Contains(t, checks, "log_store")
	assert.NotContains(t, checks, "redis")
}
