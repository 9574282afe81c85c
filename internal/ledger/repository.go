package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/models"
)

var errInsufficientBalance = errors.New("insufficient balance")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// DebitBalance atomically deducts amount from the user's balance if it would
// not go negative. The WHERE balance >= $1 condition is the concurrency guard:
// racing debits serialize on the row and the loser sees the reduced balance.
// Call within the operation's transaction.
func (r *Repository) DebitBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $1, updated_at = now()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`, amount, userID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, errInsufficientBalance
	}
	return newBalance, err
}

// CreditBalance adds amount to the user's balance and returns the new balance.
func (r *Repository) CreditBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING balance
	`, amount, userID).Scan(&newBalance)
	return newBalance, err
}

// InsertTransaction appends a ledger entry inside the given transaction.
func (r *Repository) InsertTransaction(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, task_id, type, amount, description, month, year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, t.ID, t.UserID, t.TaskID, t.Type, t.Amount, t.Description, t.Month, t.Year).Scan(&t.CreatedAt)
}

// GetBalance reads the user's current balance.
func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	return balance, err
}

// ListByUserID returns the user's transaction history, newest first.
func (r *Repository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, task_id, type, amount, description, month, year, created_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.TaskID, &t.Type, &t.Amount, &t.Description, &t.Month, &t.Year, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
