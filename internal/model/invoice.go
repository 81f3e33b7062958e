// Package model holds the invoice domain types and the request payloads
// the invoice routes accept.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deppfellow/shalom-ministry/internal/money"
	"github.com/deppfellow/shalom-ministry/internal/validation"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
	InvoiceStatusVoid  InvoiceStatus = "void"
)

// Editable reports whether an invoice in this state may still be changed.
func (s InvoiceStatus) Editable() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent
}

// Invoice is a bill issued by the ministry.
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        InvoiceStatus   `json:"status"`
	DueDate       time.Time       `json:"dueDate"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// CreateInvoiceRequest is the body of POST /invoices.
type CreateInvoiceRequest struct {
	Number        string        `json:"number" validate:"required,max=32"`
	CustomerName  string        `json:"customerName" validate:"required,min=2,max=120"`
	CustomerEmail string        `json:"customerEmail" validate:"required,email"`
	Description   string        `json:"description" validate:"max=500"`
	Amount        *money.Amount `json:"amount" validate:"required,gt=0"`
	Currency      string        `json:"currency" validate:"required,iso4217"`
	DueDate       string        `json:"dueDate" validate:"required,datetime=2006-01-02"`
}

func (r *CreateInvoiceRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateInvoiceRequest is the body of PUT /invoices/:id. Every field is
// optional; only the ones present are changed.
type UpdateInvoiceRequest struct {
	ID            string         `json:"-" param:"id"`
	CustomerName  *string        `json:"customerName" validate:"omitempty,min=2,max=120"`
	CustomerEmail *string        `json:"customerEmail" validate:"omitempty,email"`
	Description   *string        `json:"description" validate:"omitempty,max=500"`
	Amount        *money.Amount  `json:"amount" validate:"omitempty,gt=0"`
	Currency      *string        `json:"currency" validate:"omitempty,iso4217"`
	Status        *InvoiceStatus `json:"status" validate:"omitempty,oneof=draft sent paid void"`
	DueDate       *string        `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (r *UpdateInvoiceRequest) Validate() error {
	return validation.Struct(r)
}

// ListInvoicesQuery is the query string of GET /invoices.
type ListInvoicesQuery struct {
	Status string `query:"status" json:"status" validate:"omitempty,oneof=draft sent paid void"`
	Limit  int    `query:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" json:"offset" validate:"omitempty,min=0"`
}

func (q *ListInvoicesQuery) Validate() error {
	return validation.Struct(q)
}

// InvoiceIDParam is the path parameter of the single-invoice routes.
type InvoiceIDParam struct {
	ID string `param:"id" json:"id" validate:"required,uuid"`
}

func (p *InvoiceIDParam) Validate() error {
	return validation.Struct(p)
}

// InvoiceFilter is the repository-level form of ListInvoicesQuery.
type InvoiceFilter struct {
	Status *InvoiceStatus
	Limit  int
	Offset int
}
