package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deppfellow/shalom-ministry/internal/errs"
	"github.com/deppfellow/shalom-ministry/internal/model"
	"github.com/deppfellow/shalom-ministry/internal/sqlerr"
)

// InvoiceStore is the persistence the invoice service needs.
// repository.InvoiceRepository implements it.
type InvoiceStore interface {
	Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter model.InvoiceFilter) ([]model.Invoice, int, error)
	Update(ctx context.Context, inv *model.Invoice) (*model.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceNotifier queues the invoice email. job.JobService implements it.
type InvoiceNotifier interface {
	EnqueueInvoiceEmail(ctx context.Context, inv *model.Invoice) error
}

// DefaultPageSize applies when a list request has no limit.
const DefaultPageSize = 20

// InvoicePage is one page of the invoice list.
type InvoicePage struct {
	Data   []model.Invoice `json:"data"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type InvoiceService struct {
	store    InvoiceStore
	notifier InvoiceNotifier
	logger   *zerolog.Logger
}

// NewInvoiceService builds the service. notifier may be nil, in which case
// sending invoices answers 503.
func NewInvoiceService(store InvoiceStore, notifier InvoiceNotifier, logger *zerolog.Logger) *InvoiceService {
	return &InvoiceService{store: store, notifier: notifier, logger: logger}
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	dueDate, err := time.Parse(model.DateLayout, req.DueDate)
	if err != nil {
		return nil, errs.NewBadRequestError(`"dueDate" must be a date in the format 2006-01-02`, true, nil, nil)
	}

	inv := &model.Invoice{
		ID:            uuid.New(),
		Number:        strings.TrimSpace(req.Number),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.ToLower(req.CustomerEmail),
		Description:   req.Description,
		Amount:        req.Amount.Round(2),
		Currency:      strings.ToUpper(req.Currency),
		Status:        model.InvoiceStatusDraft,
		DueDate:       dueDate,
	}

	created, err := s.store.Create(ctx, inv)
	if err != nil {
		return nil, s.storeError(err, "create invoice")
	}

	s.logger.Info().
		Str("invoice_id", created.ID.String()).
		Str("number", created.Number).
		Msg("invoice created")
	return created, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "get invoice")
	}
	return inv, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, q *model.ListInvoicesQuery) (*InvoicePage, error) {
	filter := model.InvoiceFilter{Limit: q.Limit, Offset: q.Offset}
	if filter.Limit == 0 {
		filter.Limit = DefaultPageSize
	}
	if q.Status != "" {
		status := model.InvoiceStatus(q.Status)
		filter.Status = &status
	}

	invoices, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.storeError(err, "list invoices")
	}

	return &InvoicePage{
		Data:   invoices,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// UpdateInvoice applies the fields present in req. Paid and void invoices
// are frozen.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id uuid.UUID, req *model.UpdateInvoiceRequest) (*model.Invoice, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "get invoice")
	}

	if !inv.Status.Editable() {
		return nil, frozenError(inv)
	}

	if req.CustomerName != nil {
		inv.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerEmail != nil {
		inv.CustomerEmail = strings.ToLower(*req.CustomerEmail)
	}
	if req.Description != nil {
		inv.Description = *req.Description
	}
	if req.Amount != nil {
		inv.Amount = req.Amount.Round(2)
	}
	if req.Currency != nil {
		inv.Currency = strings.ToUpper(*req.Currency)
	}
	if req.Status != nil {
		inv.Status = *req.Status
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(model.DateLayout, *req.DueDate)
		if err != nil {
			return nil, errs.NewBadRequestError(`"dueDate" must be a date in the format 2006-01-02`, true, nil, nil)
		}
		inv.DueDate = dueDate
	}

	updated, err := s.store.Update(ctx, inv)
	if err != nil {
		return nil, s.storeError(err, "update invoice")
	}
	return updated, nil
}

// DeleteInvoice removes an invoice. Paid invoices are kept for the books.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return s.storeError(err, "get invoice")
	}

	if inv.Status == model.InvoiceStatusPaid {
		code := "INVOICE_PAID"
		return errs.NewConflictError(fmt.Sprintf("Invoice %s is paid and cannot be deleted", inv.Number), true, &code)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError(err, "delete invoice")
	}

	s.logger.Info().Str("invoice_id", id.String()).Msg("invoice deleted")
	return nil
}

// SendInvoice queues the invoice email and moves a draft to sent.
func (s *InvoiceService) SendInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	if s.notifier == nil {
		return nil, errs.NewServiceUnavailableError("Invoice emails are not available right now")
	}

	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "get invoice")
	}

	if !inv.Status.Editable() {
		return nil, frozenError(inv)
	}

	if err := s.notifier.EnqueueInvoiceEmail(ctx, inv); err != nil {
		s.logger.Error().Err(err).Str("invoice_id", id.String()).Msg("failed to enqueue invoice email")
		return nil, errs.NewServiceUnavailableError("Invoice emails are not available right now")
	}

	if inv.Status == model.InvoiceStatusDraft {
		inv.Status = model.InvoiceStatusSent
		if inv, err = s.store.Update(ctx, inv); err != nil {
			return nil, s.storeError(err, "mark invoice sent")
		}
	}
	return inv, nil
}

func frozenError(inv *model.Invoice) error {
	code := "INVOICE_" + errs.MakeUpperCaseWithUnderscores(string(inv.Status))
	return errs.NewConflictError(
		fmt.Sprintf("Invoice %s is %s and can no longer be changed", inv.Number, inv.Status),
		true,
		&code,
	)
}

// storeError logs unexpected failures and maps every failure for the client.
func (s *InvoiceService) storeError(err error, op string) error {
	mapped := sqlerr.HandleError(err)

	var httpErr *errs.HTTPError
	if errors.As(mapped, &httpErr) && httpErr.Status >= 500 {
		s.logger.Error().Err(err).Str("operation", op).Msg("invoice store failure")
	}
	return mapped
}
