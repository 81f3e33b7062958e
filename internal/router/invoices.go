package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/shalom-ministry/internal/handler"
	"github.com/deppfellow/shalom-ministry/internal/middleware"
	"github.com/deppfellow/shalom-ministry/internal/model"
	"github.com/deppfellow/shalom-ministry/internal/validation"
)

// registerInvoiceRoutes mounts the invoice API. Routes that take a body
// are wrapped by the validation reporter, so a rejected body is logged
// to the response log and answered with 400 before the handler runs.
func registerInvoiceRoutes(g *echo.Group, h *handler.Handlers, mws *middleware.Middlewares, reporter *validation.Reporter) {
	g.GET("", handler.Handle(h.Invoice.ListInvoices, http.StatusOK))
	g.GET("/:id", handler.Handle(h.Invoice.GetInvoice, http.StatusOK))

	g.POST("", handler.Handle(h.Invoice.CreateInvoice, http.StatusCreated),
		reporter.Validate("createInvoice", validation.Body[model.CreateInvoiceRequest]()),
	)
	g.PUT("/:id", handler.Handle(h.Invoice.UpdateInvoice, http.StatusOK),
		reporter.Validate("updateInvoice", validation.Body[model.UpdateInvoiceRequest]()),
	)

	g.DELETE("/:id", handler.HandleNoContent(h.Invoice.DeleteInvoice, http.StatusNoContent),
		mws.Auth.RequireAuth,
	)
	g.POST("/:id/send", handler.Handle(h.Invoice.SendInvoice, http.StatusAccepted))
}
