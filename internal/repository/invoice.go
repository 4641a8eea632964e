package repository

import (
	"context"
	"database/sql"
	"fmt"

	"invoice-dashboard/internal/domain"
)

// paidByInvoice aggregates payments before the join so an invoice with several
// payments never multiplies its amount.
const paidByInvoice = `
	SELECT invoice_id, SUM(amount) AS total_paid
	FROM payments
	GROUP BY invoice_id`

const listInvoiceRowsQuery = `
	SELECT i.invoice_id, c.name, i.amount, i.invoice_date, i.due_date,
	       COALESCE(p.total_paid, 0)
	FROM invoices i
	JOIN customers c ON c.customer_id = i.customer_id
	LEFT JOIN (` + paidByInvoice + `) p ON p.invoice_id = i.invoice_id
	ORDER BY i.due_date DESC, i.invoice_id DESC`

const customerTotalsQuery = `
	SELECT c.name, SUM(i.amount - COALESCE(p.total_paid, 0)) AS total_outstanding
	FROM customers c
	JOIN invoices i ON i.customer_id = c.customer_id
	LEFT JOIN (` + paidByInvoice + `) p ON p.invoice_id = i.invoice_id
	GROUP BY c.name
	ORDER BY total_outstanding DESC, c.name ASC`

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// ListInvoiceRows returns every invoice with its customer name and paid total,
// newest due date first.
func (r *InvoiceRepository) ListInvoiceRows(ctx context.Context) ([]domain.InvoiceRow, error) {
	rows, err := r.db.QueryContext(ctx, listInvoiceRowsQuery)
	if err != nil {
		return nil, unavailable("list invoices", err)
	}
	defer rows.Close()

	out := make([]domain.InvoiceRow, 0)
	for rows.Next() {
		var row domain.InvoiceRow
		if err := rows.Scan(
			&row.InvoiceID,
			&row.CustomerName,
			&row.Amount,
			&row.InvoiceDate,
			&row.DueDate,
			&row.TotalPaid,
		); err != nil {
			return nil, unavailable("scan invoice", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("list invoices", err)
	}
	return out, nil
}

// CustomerTotals returns the signed outstanding balance of every customer
// that has at least one invoice.
func (r *InvoiceRepository) CustomerTotals(ctx context.Context) ([]domain.CustomerOutstandingSummary, error) {
	rows, err := r.db.QueryContext(ctx, customerTotalsQuery)
	if err != nil {
		return nil, unavailable("customer totals", err)
	}
	defer rows.Close()

	out := make([]domain.CustomerOutstandingSummary, 0)
	for rows.Next() {
		var s domain.CustomerOutstandingSummary
		if err := rows.Scan(&s.CustomerName, &s.TotalOutstanding); err != nil {
			return nil, unavailable("scan customer total", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("customer totals", err)
	}
	return out, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrDataUnavailable, op, err)
}
