package handler

import (
	"github.com/deppfellow/shalom-ministry/internal/server"
	"github.com/deppfellow/shalom-ministry/internal/service"
)

// Handlers groups all HTTP handlers so the router receives one value.
type Handlers struct {
	Health  *HealthHandler
	Invoice *InvoiceHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Invoice: NewInvoiceHandler(s, services.Invoices),
	}
}
