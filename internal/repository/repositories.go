package repository

import (
	"github.com/deppfellow/shalom-ministry/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Invoices *InvoiceRepository
}

// NewRepositories builds every repository on the server's connection pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Invoices: NewInvoiceRepository(s.DB.Pool),
	}
}
