package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmarket/backend/internal/models"
)

type AdjustmentRepo struct {
	pool *pgxpool.Pool
}

func NewAdjustmentRepo(pool *pgxpool.Pool) *AdjustmentRepo {
	return &AdjustmentRepo{pool: pool}
}

func (r *AdjustmentRepo) CreateTx(ctx context.Context, tx pgx.Tx, a *models.BalanceAdjustment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO balance_adjustments (id, user_id, admin_id, type, amount, previous_balance, new_balance, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, a.ID, a.UserID, a.AdminID, a.Type, a.Amount, a.PreviousBalance, a.NewBalance, a.Reason).Scan(&a.CreatedAt)
}

func (r *AdjustmentRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.BalanceAdjustment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, admin_id, type, amount, previous_balance, new_balance, reason, created_at
		FROM balance_adjustments WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.BalanceAdjustment
	for rows.Next() {
		var a models.BalanceAdjustment
		if err := rows.Scan(&a.ID, &a.UserID, &a.AdminID, &a.Type, &a.Amount, &a.PreviousBalance, &a.NewBalance, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
