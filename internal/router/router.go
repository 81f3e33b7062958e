// Package router assembles the HTTP pipeline (using Echo).
//
// It registers the middlewares in a fixed order and mounts the system and
// invoice route groups.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/shalom-ministry/internal/handler"
	"github.com/deppfellow/shalom-ministry/internal/middleware"
	"github.com/deppfellow/shalom-ministry/internal/server"
	"github.com/deppfellow/shalom-ministry/internal/validation"
)

// NewRouter builds the application's Echo instance. s.ResponseLog must be set.
//
// Middleware runs in this order:
//  1. request id and panic recovery
//  2. CORS
//  3. JSON body capture (100 KB)
//  4. static files from the configured directory
//  5. access log, in development only
//  6. New Relic transaction and the request-scoped logger
//  7. security headers and gzip, in production only
//
// then the system routes and /invoices, with GlobalErrorHandler answering
// every error that comes back.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mws := middleware.NewMiddlewares(s)
	reporter := validation.NewReporter(s.ResponseLog)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.Use(
		middleware.RequestID(),
		mws.Global.Recover(),
	)

	router.Use(mws.Global.CORS())
	router.Use(mws.Global.JSONBody())
	router.Use(mws.Global.Static())

	if s.Config.IsDevelopment() {
		router.Use(mws.Global.AccessLog())
	}

	router.Use(
		mws.Tracing.NewRelicMiddleware(),
		mws.Tracing.EnhanceTracing(),
		mws.ContextEnhancer.EnhanceContext(),
	)

	if s.Config.IsProduction() {
		router.Use(
			mws.Global.Secure(),
			mws.Global.Gzip(),
		)
	}

	registerSystemRoutes(router, h)
	registerInvoiceRoutes(router.Group("/invoices", mws.RateLimit.Limit()), h, mws, reporter)

	router.HTTPErrorHandler = mws.Global.GlobalErrorHandler

	return router
}
