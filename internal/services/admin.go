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

// AdminService holds the out-of-band ledger tools: manual balance corrections
// and direct task assignment. Both bypass the client/specialist flow but obey
// the same ledger invariants, and both leave an audit record.
type AdminService struct {
	begin       TxBeginner
	users       UserStore
	tasks       TaskStore
	ledger      Ledger
	adjustments AdjustmentStore
	assignments AssignmentStore
	settings    SettingAdmin
	notify      Notify
}

func NewAdminService(begin TxBeginner, users UserStore, tasks TaskStore, l Ledger, adjustments AdjustmentStore, assignments AssignmentStore, settings SettingAdmin, n Notify) *AdminService {
	return &AdminService{begin: begin, users: users, tasks: tasks, ledger: l, adjustments: adjustments, assignments: assignments, settings: settings, notify: n}
}

// AdjustUserBalance credits or debits a user's balance directly. The user row
// is locked for the read-modify-write so the captured previous/new balances
// cannot be interleaved with a racing payment.
func (s *AdminService) AdjustUserBalance(ctx context.Context, adminID, userID uuid.UUID, amount decimal.Decimal, reason, adjType string) (*models.BalanceAdjustment, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if adjType != models.AdjustmentCredit && adjType != models.AdjustmentDebit {
		return nil, fmt.Errorf("invalid adjustment type %q", adjType)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("adjustment amount must be positive")
	}
	if reason == "" {
		return nil, fmt.Errorf("adjustment reason is required")
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user, err := s.users.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	entry := ledger.Entry{Description: fmt.Sprintf("admin adjustment: %s", reason)}
	var newBalance decimal.Decimal
	if adjType == models.AdjustmentCredit {
		entry.Type = models.TransactionTopup
		newBalance, _, err = s.ledger.Credit(ctx, tx, userID, amount, entry)
	} else {
		entry.Type = models.TransactionDebit
		newBalance, _, err = s.ledger.Debit(ctx, tx, userID, amount, entry)
	}
	if err != nil {
		return nil, err
	}

	adj := &models.BalanceAdjustment{
		ID:              uuid.New(),
		UserID:          userID,
		AdminID:         adminID,
		Type:            adjType,
		Amount:          amount,
		PreviousBalance: user.Balance,
		NewBalance:      newBalance,
		Reason:          reason,
	}
	if err := s.adjustments.CreateTx(ctx, tx, adj); err != nil {
		return nil, err
	}

	if err := s.notify(ctx, tx, notify.DeliverArgs{
		UserID:  userID,
		Event:   models.NotifyBalanceAdjusted,
		Message: fmt.Sprintf("your balance was adjusted by an administrator: %s", reason),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return adj, nil
}

// AssignTaskToSpecialist sets the task's specialist directly, bypassing the
// evaluation workflow. The assignment history is append-only: a pre-existing
// active assignment is marked reassigned, never deleted.
func (s *AdminService) AssignTaskToSpecialist(ctx context.Context, adminID, taskID, specialistID uuid.UUID, notes string) (*models.TaskAssignment, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	specialist, err := s.users.GetByID(ctx, specialistID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, specialistID)
	}
	if specialist.Role != models.RoleSpecialist {
		return nil, fmt.Errorf("%w: %s is not a specialist", ErrForbidden, specialistID)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if task.Status.Terminal() {
		return nil, fmt.Errorf("cannot assign a %s task", task.Status)
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.assignments.MarkReassigned(ctx, tx, taskID); err != nil {
		return nil, err
	}
	assignment := &models.TaskAssignment{
		ID:           uuid.New(),
		TaskID:       taskID,
		SpecialistID: specialistID,
		AdminID:      adminID,
		Notes:        notes,
		Status:       models.AssignmentActive,
	}
	if err := s.assignments.CreateTx(ctx, tx, assignment); err != nil {
		return nil, err
	}
	if err := s.tasks.SetSpecialist(ctx, tx, taskID, specialistID); err != nil {
		return nil, err
	}

	if err := s.notify(ctx, tx, notify.DeliverArgs{
		UserID:  specialistID,
		TaskID:  &taskID,
		Event:   models.NotifyTaskAssigned,
		Message: fmt.Sprintf("you were assigned to task %q", task.Title),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return assignment, nil
}

// ListUsers returns every account, for the admin user directory.
func (s *AdminService) ListUsers(ctx context.Context, adminID uuid.UUID) ([]*models.User, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// SetUserRole changes a user's role; setting it to blocked suspends the
// account without touching its balance or history.
func (s *AdminService) SetUserRole(ctx context.Context, adminID, userID uuid.UUID, role string) (*models.User, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if adminID == userID {
		return nil, fmt.Errorf("%w: admins cannot change their own role", ErrForbidden)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// ListUserAdjustments returns the manual adjustment audit trail for a user.
func (s *AdminService) ListUserAdjustments(ctx context.Context, adminID, userID uuid.UUID) ([]*models.BalanceAdjustment, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.adjustments.ListByUserID(ctx, userID)
}

// ListTaskAssignments returns a task's assignment history, newest first.
func (s *AdminService) ListTaskAssignments(ctx context.Context, adminID, taskID uuid.UUID) ([]*models.TaskAssignment, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	return s.assignments.ListByTaskID(ctx, taskID)
}

// UpdateSetting writes a platform setting. Only known keys are accepted, and
// percentage values must parse as non-negative decimals.
func (s *AdminService) UpdateSetting(ctx context.Context, adminID uuid.UUID, key, value string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	switch key {
	case models.SettingMarkupPercent, models.SettingInvoiceTaxPercent:
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	pct, err := decimal.NewFromString(value)
	if err != nil || pct.Sign() < 0 {
		return fmt.Errorf("setting %s must be a non-negative decimal, got %q", key, value)
	}
	return s.settings.Set(ctx, key, value)
}

func (s *AdminService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, adminID)
	}
	if admin.Role != models.RoleAdmin {
		return fmt.Errorf("%w: administrator role required", ErrForbidden)
	}
	return nil
}
