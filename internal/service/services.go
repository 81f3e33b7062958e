package service

import (
	"github.com/deppfellow/shalom-ministry/internal/repository"
	"github.com/deppfellow/shalom-ministry/internal/server"
)

type Services struct {
	Auth     *AuthService
	Invoices *InvoiceService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var notifier InvoiceNotifier
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		Auth:     NewAuthService(s),
		Invoices: NewInvoiceService(repos.Invoices, notifier, s.Logger),
	}, nil
}
