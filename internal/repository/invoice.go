package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/deppfellow/shalom-ministry/internal/model"
)

// Querier is the subset of pgxpool.Pool the repository uses. A pgx.Tx
// satisfies it too.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InvoiceRepository stores invoices in the invoices table.
type InvoiceRepository struct {
	db Querier
}

func NewInvoiceRepository(db Querier) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Amounts travel as text so no numeric codec is needed for decimal.Decimal.
const invoiceColumns = `id, number, customer_name, customer_email, description,
	amount::text, currency, status, due_date, created_at, updated_at`

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var (
		inv    model.Invoice
		amount string
		status string
	)
	err := row.Scan(
		&inv.ID,
		&inv.Number,
		&inv.CustomerName,
		&inv.CustomerEmail,
		&inv.Description,
		&amount,
		&inv.Currency,
		&status,
		&inv.DueDate,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	inv.Status = model.InvoiceStatus(status)
	return &inv, nil
}

// Create inserts inv and returns the stored row.
func (r *InvoiceRepository) Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO invoices (id, number, customer_name, customer_email, description, amount, currency, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)
		RETURNING `+invoiceColumns,
		inv.ID,
		inv.Number,
		inv.CustomerName,
		inv.CustomerEmail,
		inv.Description,
		inv.Amount.String(),
		inv.Currency,
		string(inv.Status),
		inv.DueDate,
	)

	created, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("inserting invoice %s: %w", inv.Number, err)
	}
	return created, nil
}

// GetByID loads one invoice. A missing row is reported as pgx.ErrNoRows
// wrapped with the table name.
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("table:invoices: get %s: %w", id, err)
	}
	return inv, nil
}

// List returns invoices ordered by due date, newest first, and the total
// number of rows matching the filter.
func (r *InvoiceRepository) List(ctx context.Context, filter model.InvoiceFilter) ([]model.Invoice, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM invoices`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting invoices: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM invoices%s ORDER BY due_date DESC, number LIMIT $%d OFFSET $%d`,
		invoiceColumns, clause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]model.Invoice, 0, filter.Limit)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing invoices: %w", err)
	}

	return invoices, total, nil
}

// Update writes every mutable column of inv and bumps updated_at.
func (r *InvoiceRepository) Update(ctx context.Context, inv *model.Invoice) (*model.Invoice, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE invoices
		SET customer_name = $2,
			customer_email = $3,
			description = $4,
			amount = $5::numeric,
			currency = $6,
			status = $7,
			due_date = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING `+invoiceColumns,
		inv.ID,
		inv.CustomerName,
		inv.CustomerEmail,
		inv.Description,
		inv.Amount.String(),
		inv.Currency,
		string(inv.Status),
		inv.DueDate,
	)

	updated, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("table:invoices: update %s: %w", inv.ID, err)
	}
	return updated, nil
}

// Delete removes an invoice. Deleting a missing invoice is pgx.ErrNoRows.
func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting invoice %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("table:invoices: delete %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}
