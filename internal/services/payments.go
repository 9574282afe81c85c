package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/lifecycle"
	"github.com/taskmarket/backend/internal/models"
	"github.com/taskmarket/backend/internal/notify"
)

var oneHundred = decimal.NewFromInt(100)

// PaymentService escrows client funds for a task: it debits the client the
// evaluated amount plus platform markup, records the payment and ledger entry,
// and moves the task to paid — all in one transaction.
type PaymentService struct {
	begin    TxBeginner
	tasks    TaskStore
	users    UserStore
	payments PaymentStore
	settings SettingStore
	ledger   Ledger
	notify   Notify
}

func NewPaymentService(begin TxBeginner, tasks TaskStore, users UserStore, payments PaymentStore, settings SettingStore, l Ledger, n Notify) *PaymentService {
	return &PaymentService{begin: begin, tasks: tasks, users: users, payments: payments, settings: settings, ledger: l, notify: n}
}

// PaymentResult reports what a completed payment produced.
type PaymentResult struct {
	Payment     *models.Payment
	Transaction *models.Transaction
	NewBalance  decimal.Decimal
}

// ProcessTaskPayment charges the client for an evaluated task. amount is the
// pre-markup (specialist) value; the client is debited amount plus markup.
func (s *PaymentService) ProcessTaskPayment(ctx context.Context, taskID, clientID uuid.UUID, amount decimal.Decimal) (*PaymentResult, error) {
	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, clientID)
	}
	if client.Role != models.RoleClient {
		return nil, fmt.Errorf("%w: only the client pays for a task", ErrForbidden)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if task.ClientID != clientID {
		return nil, fmt.Errorf("%w: not the task owner", ErrForbidden)
	}
	if err := lifecycle.Check(task.Status, models.TaskStatusPaid, lifecycle.ActorEngine); err != nil {
		return nil, err
	}
	if task.TotalCost != nil && !amount.Equal(*task.TotalCost) {
		return nil, fmt.Errorf("amount %s does not match accepted task cost %s", amount, task.TotalCost)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result, err := s.ProcessPaymentTx(ctx, tx, task, amount)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessPaymentTx runs the escrow sequence inside the caller's transaction
// (acceptEvaluation shares its transaction with the payment). Preconditions —
// ownership, role, amount — are the caller's responsibility; the evaluated→paid
// conditional update is re-checked here so only one payment can ever win.
func (s *PaymentService) ProcessPaymentTx(ctx context.Context, tx pgx.Tx, task *models.Task, amount decimal.Decimal) (*PaymentResult, error) {
	markup, err := s.markupAmount(ctx, amount)
	if err != nil {
		return nil, err
	}
	total := amount.Add(markup)

	ok, err := s.tasks.TransitionStatus(ctx, tx, task.ID, models.TaskStatusEvaluated, models.TaskStatusPaid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: task %s is not awaiting payment", lifecycle.ErrInvalidTransition, task.ID)
	}

	newBalance, txn, err := s.ledger.Debit(ctx, tx, task.ClientID, total, ledger.Entry{
		Type:        models.TransactionPayment,
		Description: fmt.Sprintf("payment for task %q", task.Title),
		TaskID:      &task.ID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &models.Payment{
		ID:               uuid.New(),
		TaskID:           task.ID,
		FromUserID:       task.ClientID,
		ToUserID:         task.SpecialistID,
		Amount:           total,
		MarkupAmount:     markup,
		SpecialistAmount: amount,
		Status:           models.PaymentCompleted,
		PaidAt:           &now,
	}
	if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	if task.SpecialistID != nil {
		if err := s.notify(ctx, tx, notify.DeliverArgs{
			UserID:  *task.SpecialistID,
			TaskID:  &task.ID,
			Event:   models.NotifyTaskPaid,
			Message: fmt.Sprintf("task %q has been paid and is ready to start", task.Title),
		}); err != nil {
			return nil, err
		}
	}

	return &PaymentResult{Payment: payment, Transaction: txn, NewBalance: newBalance}, nil
}

// markupAmount computes the platform's share: amount * markup% / 100, rounded
// to cents. The default of 100% halves the client's total for the specialist,
// matching the documented "specialist earns 50%" rule.
func (s *PaymentService) markupAmount(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	raw, err := s.settings.Get(ctx, models.SettingMarkupPercent, models.DefaultMarkupPercent)
	if err != nil {
		return decimal.Zero, err
	}
	pct, err := decimal.NewFromString(raw)
	if err != nil || pct.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("invalid %s setting %q", models.SettingMarkupPercent, raw)
	}
	return amount.Mul(pct).Div(oneHundred).Round(2), nil
}
