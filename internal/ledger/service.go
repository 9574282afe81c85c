// Package ledger guards the money invariant: a user's balance always equals
// the signed sum of their transactions, and never goes negative. Every
// balance mutation in the system pairs a conditional UPDATE with an
// append-only transaction row inside the caller's pgx transaction.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/models"
)

// ErrInsufficientBalance is returned when a debit would make the balance negative.
var ErrInsufficientBalance = errInsufficientBalance

// Entry describes the transaction row recorded alongside a balance mutation.
type Entry struct {
	Type        string
	Description string
	TaskID      *uuid.UUID
}

type Service interface {
	// Debit deducts amount from the user's balance and records a transaction,
	// returning the new balance and the recorded entry. Fails with
	// ErrInsufficientBalance (and writes nothing) on shortfall.
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e Entry) (decimal.Decimal, *models.Transaction, error)
	// Credit adds amount to the user's balance and records a transaction.
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e Entry) (decimal.Decimal, *models.Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e Entry) (decimal.Decimal, *models.Transaction, error) {
	newBalance, err := s.repo.DebitBalance(ctx, tx, userID, amount)
	if err != nil {
		return decimal.Zero, nil, err
	}
	t := newTransaction(userID, amount, e)
	if err := s.repo.InsertTransaction(ctx, tx, t); err != nil {
		return decimal.Zero, nil, err
	}
	return newBalance, t, nil
}

func (s *service) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e Entry) (decimal.Decimal, *models.Transaction, error) {
	newBalance, err := s.repo.CreditBalance(ctx, tx, userID, amount)
	if err != nil {
		return decimal.Zero, nil, err
	}
	t := newTransaction(userID, amount, e)
	if err := s.repo.InsertTransaction(ctx, tx, t); err != nil {
		return decimal.Zero, nil, err
	}
	return newBalance, t, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func newTransaction(userID uuid.UUID, amount decimal.Decimal, e Entry) *models.Transaction {
	now := time.Now()
	return &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      e.TaskID,
		Type:        e.Type,
		Amount:      amount,
		Description: e.Description,
		Month:       int(now.Month()),
		Year:        now.Year(),
	}
}
