package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmarket/backend/internal/models"
)

type InvoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO invoices (id, user_id, number, amount, tax, total, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, inv.ID, inv.UserID, inv.Number, inv.Amount, inv.Tax, inv.Total, inv.Status, inv.DueDate).Scan(&inv.CreatedAt)
}

func (r *InvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, number, amount, tax, total, status, due_date, paid_at, created_at
		FROM invoices WHERE id = $1
	`, id).Scan(&inv.ID, &inv.UserID, &inv.Number, &inv.Amount, &inv.Tax, &inv.Total, &inv.Status, &inv.DueDate, &inv.PaidAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkPaid flips a pending invoice to paid. Conditional on status so paying
// twice cannot debit twice.
func (r *InvoiceRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE invoices SET status = 'paid', paid_at = now() WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *InvoiceRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, number, amount, tax, total, status, due_date, paid_at, created_at
		FROM invoices WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Number, &inv.Amount, &inv.Tax, &inv.Total, &inv.Status, &inv.DueDate, &inv.PaidAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &inv)
	}
	return list, rows.Err()
}
