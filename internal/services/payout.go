package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/models"
	"github.com/taskmarket/backend/internal/notify"
)

var payoutShare = decimal.NewFromFloat(0.5)

// PayoutService credits the specialist their commission once a task is
// completed. The split is a fixed 50% of the pre-markup task value; the other
// half stays with the platform.
type PayoutService struct {
	begin    TxBeginner
	tasks    TaskStore
	users    UserStore
	payments PaymentStore
	ledger   Ledger
	notify   Notify
}

func NewPayoutService(begin TxBeginner, tasks TaskStore, users UserStore, payments PaymentStore, l Ledger, n Notify) *PayoutService {
	return &PayoutService{begin: begin, tasks: tasks, users: users, payments: payments, ledger: l, notify: n}
}

// PayoutResult reports a completed specialist payout.
type PayoutResult struct {
	Amount      decimal.Decimal
	Transaction *models.Transaction
	NewBalance  decimal.Decimal
}

// ProcessSpecialistPayout pays the assigned specialist for a completed task.
// Callable by the specialist themselves or an admin. The completed→paid_out
// conditional update is the double-payout guard: the second caller affects no
// row and gets ErrAlreadyPaidOut.
func (s *PayoutService) ProcessSpecialistPayout(ctx context.Context, taskID, actingUserID uuid.UUID) (*PayoutResult, error) {
	actor, err := s.users.GetByID(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actingUserID)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if task.SpecialistID == nil {
		return nil, fmt.Errorf("%w: task has no specialist", ErrPayoutPrecondition)
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleSpecialist:
		if *task.SpecialistID != actor.ID {
			return nil, fmt.Errorf("%w: not the assigned specialist", ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("%w: payouts are for specialists and admins", ErrForbidden)
	}
	switch task.Status {
	case models.TaskStatusCompleted:
	case models.TaskStatusPaidOut:
		return nil, fmt.Errorf("%w: task %s", ErrAlreadyPaidOut, taskID)
	default:
		return nil, fmt.Errorf("%w: task %s is %s, not completed", ErrPayoutPrecondition, taskID, task.Status)
	}

	payment, err := s.payments.GetCompletedByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: no completed payment for task %s", ErrPayoutPrecondition, taskID)
	}

	commission := payment.SpecialistAmount.Mul(payoutShare).Round(2)

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.tasks.TransitionStatus(ctx, tx, taskID, models.TaskStatusCompleted, models.TaskStatusPaidOut)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrAlreadyPaidOut, taskID)
	}

	newBalance, txn, err := s.ledger.Credit(ctx, tx, *task.SpecialistID, commission, ledger.Entry{
		Type:        models.TransactionPayout,
		Description: fmt.Sprintf("commission for task %q", task.Title),
		TaskID:      &task.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.notify(ctx, tx, notify.DeliverArgs{
		UserID:  *task.SpecialistID,
		TaskID:  &task.ID,
		Event:   models.NotifyPayoutSent,
		Message: fmt.Sprintf("commission of %s credited for task %q", commission.StringFixed(2), task.Title),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &PayoutResult{Amount: commission, Transaction: txn, NewBalance: newBalance}, nil
}
