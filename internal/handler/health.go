package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/shalom-ministry/internal/middleware"
	"github.com/deppfellow/shalom-ministry/internal/server"
)

// HealthCheck is one dependency probed by GET /status. A failing required
// check turns the whole answer into 503; an optional one is only reported.
type HealthCheck struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

var errNotConnected = errors.New("not connected")

// HealthHandler reports whether the service and its dependencies are up.
type HealthHandler struct {
	Handler
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthHandler probes the dependencies enabled in the observability
// config: the database (required), Redis and the log store (optional).
func NewHealthHandler(s *server.Server) *HealthHandler {
	obs := s.Config.Observability

	var checks []HealthCheck
	if obs.HasCheck("database") {
		checks = append(checks, HealthCheck{Name: "database", Required: true, Ping: func(ctx context.Context) error {
			if s.DB == nil {
				return errNotConnected
			}
			return s.DB.Ping(ctx)
		}})
	}
	if obs.HasCheck("redis") && s.Redis != nil {
		checks = append(checks, HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}})
	}
	if obs.HasCheck("log_store") {
		checks = append(checks, HealthCheck{Name: "log_store", Ping: func(ctx context.Context) error {
			if s.LogStore == nil {
				return errNotConnected
			}
			return s.LogStore.Ping(ctx)
		}})
	}

	return NewHealthHandlerWithChecks(s, obs.HealthChecks.Timeout, checks...)
}

func NewHealthHandlerWithChecks(s *server.Server, timeout time.Duration, checks ...HealthCheck) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{
		Handler: NewHandler(s),
		checks:  checks,
		timeout: timeout,
	}
}

// CheckHealth answers 200 when every required check passes, 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{}, len(h.checks))
	healthy := true

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		checkStart := time.Now()
		err := check.Ping(ctx)
		elapsed := time.Since(checkStart)
		cancel()

		if err == nil {
			checks[check.Name] = map[string]interface{}{
				"status":        "healthy",
				"response_time": elapsed.String(),
			}
			logger.Debug().Str("check", check.Name).Dur("response_time", elapsed).Msg("health check passed")
			continue
		}

		checks[check.Name] = map[string]interface{}{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}
		if check.Required {
			healthy = false
		}

		logger.Error().
			Err(err).
			Str("check", check.Name).
			Dur("response_time", elapsed).
			Msg("health check failed")

		h.server.LoggerService.RecordEvent("HealthCheckError", map[string]interface{}{
			"check_type":       check.Name,
			"operation":        "health_check",
			"error_type":       check.Name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
	}

	if err := c.JSON(status, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}
	return nil
}
