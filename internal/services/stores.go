package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/models"
	"github.com/taskmarket/backend/internal/notify"
)

// The services consume narrow store interfaces instead of the concrete pgx
// repositories. Unit tests substitute in-memory doubles; main wires the real
// ones once at process start.

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	List(ctx context.Context) ([]*models.User, error)
}

type TaskStore interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	TransitionStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to models.TaskStatus) (bool, error)
	TransitionStatusWithSpecialist(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to models.TaskStatus, specialistID uuid.UUID) (bool, error)
	SetAcceptedTerms(ctx context.Context, tx pgx.Tx, id uuid.UUID, ev *models.Evaluation) (bool, error)
	SetSpecialist(ctx context.Context, tx pgx.Tx, id, specialistID uuid.UUID) error
	ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.Task, error)
	ListBySpecialistID(ctx context.Context, specialistID uuid.UUID) ([]*models.Task, error)
	ListPending(ctx context.Context) ([]*models.Task, error)
}

type EvaluationStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.Evaluation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Evaluation, error)
	MarkAccepted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	RejectSiblings(ctx context.Context, tx pgx.Tx, taskID, acceptedID uuid.UUID) error
	ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]*models.Evaluation, error)
}

type PaymentStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error
	GetCompletedByTaskID(ctx context.Context, taskID uuid.UUID) (*models.Payment, error)
}

type AdjustmentStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, a *models.BalanceAdjustment) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.BalanceAdjustment, error)
}

type AssignmentStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, a *models.TaskAssignment) error
	MarkReassigned(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error
	ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]*models.TaskAssignment, error)
}

// SettingStore is the key→string configuration lookup (markup percentage etc).
type SettingStore interface {
	Get(ctx context.Context, key, fallback string) (string, error)
}

// SettingAdmin adds the write side, used only by the admin tools.
type SettingAdmin interface {
	SettingStore
	Set(ctx context.Context, key, value string) error
}

// Ledger is the balance+transaction subsystem (see internal/ledger).
type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e ledger.Entry) (decimal.Decimal, *models.Transaction, error)
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e ledger.Entry) (decimal.Decimal, *models.Transaction, error)
}

// Notify enqueues a notification job inside the operation's transaction.
type Notify = notify.EnqueueTxFunc
