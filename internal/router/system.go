package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/shalom-ministry/internal/handler"
)

// registerSystemRoutes registers endpoints that are not business logic.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
}
