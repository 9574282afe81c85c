package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmarket/backend/internal/models"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO payments (id, task_id, from_user_id, to_user_id, amount, markup_amount, specialist_amount, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, p.ID, p.TaskID, p.FromUserID, p.ToUserID, p.Amount, p.MarkupAmount, p.SpecialistAmount, p.Status, p.PaidAt).Scan(&p.CreatedAt)
}

// GetCompletedByTaskID returns the completed payment for a task, if any. The
// payout engine depends on at most one existing (unique index on task_id).
func (r *PaymentRepo) GetCompletedByTaskID(ctx context.Context, taskID uuid.UUID) (*models.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `
		SELECT id, task_id, from_user_id, to_user_id, amount, markup_amount, specialist_amount, status, paid_at, created_at
		FROM payments WHERE task_id = $1 AND status = 'completed'
	`, taskID))
}

func (r *PaymentRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, from_user_id, to_user_id, amount, markup_amount, specialist_amount, status, paid_at, created_at
		FROM payments WHERE from_user_id = $1 OR to_user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.TaskID, &p.FromUserID, &p.ToUserID, &p.Amount, &p.MarkupAmount, &p.SpecialistAmount, &p.Status, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
