package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"invoice-dashboard/internal/domain"
	"invoice-dashboard/pkg/database/postgres"
)

const foreignKeyViolation = "23503"

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create stores p and returns it with the generated payment id. The invoice
// row is share-locked so it cannot disappear between the check and the insert.
func (r *PaymentRepository) Create(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	err := postgres.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var invoiceID int64
		err := tx.QueryRowContext(ctx,
			`SELECT invoice_id FROM invoices WHERE invoice_id = $1 FOR SHARE`,
			p.InvoiceID,
		).Scan(&invoiceID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInvoiceNotFound
		}
		if err != nil {
			return err
		}

		return tx.QueryRowContext(ctx,
			`INSERT INTO payments (invoice_id, amount, payment_date) VALUES ($1, $2, $3) RETURNING payment_id`,
			p.InvoiceID, p.Amount, p.PaymentDate,
		).Scan(&p.PaymentID)
	})
	if err != nil {
		return domain.Payment{}, mapWriteError("create payment", err)
	}
	return p, nil
}

// ListByInvoice returns the payments of one invoice, oldest first.
func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payment_id, invoice_id, amount, payment_date
		 FROM payments
		 WHERE invoice_id = $1
		 ORDER BY payment_date ASC, payment_id ASC`,
		invoiceID,
	)
	if err != nil {
		return nil, unavailable("list payments", err)
	}
	defer rows.Close()

	out := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.PaymentID, &p.InvoiceID, &p.Amount, &p.PaymentDate); err != nil {
			return nil, unavailable("scan payment", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("list payments", err)
	}
	return out, nil
}

func mapWriteError(op string, err error) error {
	if errors.Is(err, domain.ErrInvoiceNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return domain.ErrInvoiceNotFound
	}
	return unavailable(op, err)
}
