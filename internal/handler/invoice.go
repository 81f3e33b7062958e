package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/shalom-ministry/internal/errs"
	"github.com/deppfellow/shalom-ministry/internal/model"
	"github.com/deppfellow/shalom-ministry/internal/server"
	"github.com/deppfellow/shalom-ministry/internal/service"
)

// InvoiceService is what the invoice routes call. *service.InvoiceService
// implements it.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *model.CreateInvoiceRequest) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, q *model.ListInvoicesQuery) (*service.InvoicePage, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, req *model.UpdateInvoiceRequest) (*model.Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
	SendInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
}

type InvoiceHandler struct {
	Handler
	invoices InvoiceService
}

func NewInvoiceHandler(s *server.Server, invoices InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		Handler:  NewHandler(s),
		invoices: invoices,
	}
}

func (h *InvoiceHandler) ListInvoices(c echo.Context, q *model.ListInvoicesQuery) (*service.InvoicePage, error) {
	return h.invoices.ListInvoices(c.Request().Context(), q)
}

func (h *InvoiceHandler) GetInvoice(c echo.Context, p *model.InvoiceIDParam) (*model.Invoice, error) {
	id, err := parseInvoiceID(p.ID)
	if err != nil {
		return nil, err
	}
	return h.invoices.GetInvoice(c.Request().Context(), id)
}

func (h *InvoiceHandler) CreateInvoice(c echo.Context, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	return h.invoices.CreateInvoice(c.Request().Context(), req)
}

func (h *InvoiceHandler) UpdateInvoice(c echo.Context, req *model.UpdateInvoiceRequest) (*model.Invoice, error) {
	id, err := parseInvoiceID(req.ID)
	if err != nil {
		return nil, err
	}
	return h.invoices.UpdateInvoice(c.Request().Context(), id, req)
}

func (h *InvoiceHandler) DeleteInvoice(c echo.Context, p *model.InvoiceIDParam) error {
	id, err := parseInvoiceID(p.ID)
	if err != nil {
		return err
	}
	return h.invoices.DeleteInvoice(c.Request().Context(), id)
}

func (h *InvoiceHandler) SendInvoice(c echo.Context, p *model.InvoiceIDParam) (*model.Invoice, error) {
	id, err := parseInvoiceID(p.ID)
	if err != nil {
		return nil, err
	}
	return h.invoices.SendInvoice(c.Request().Context(), id)
}

func parseInvoiceID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError(`"id" must be a valid GUID`, true, nil,
			[]errs.FieldError{{Field: "id", Error: "must be a valid GUID"}})
	}
	return id, nil
}
