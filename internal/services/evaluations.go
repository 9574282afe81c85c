package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/lifecycle"
	"github.com/taskmarket/backend/internal/models"
)

// EvaluationTerms is a specialist's proposed costing for a task.
type EvaluationTerms struct {
	EstimatedHours decimal.Decimal
	HourlyRate     decimal.Decimal
	TotalCost      decimal.Decimal
	Comment        string
}

// EvaluationService runs the propose/accept workflow. Accepting an evaluation
// fixes the task's commercial terms and triggers the escrow payment in the
// same database transaction.
type EvaluationService struct {
	begin    TxBeginner
	tasks    TaskStore
	users    UserStore
	evals    EvaluationStore
	payments *PaymentService
}

func NewEvaluationService(begin TxBeginner, tasks TaskStore, users UserStore, evals EvaluationStore, payments *PaymentService) *EvaluationService {
	return &EvaluationService{begin: begin, tasks: tasks, users: users, evals: evals, payments: payments}
}

// SubmitEvaluation records a specialist's proposal. The first submission moves
// the task out of created; competing specialists may keep submitting until the
// client accepts one (terms still unset).
func (s *EvaluationService) SubmitEvaluation(ctx context.Context, taskID, specialistID uuid.UUID, terms EvaluationTerms) (*models.Evaluation, error) {
	specialist, err := s.users.GetByID(ctx, specialistID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, specialistID)
	}
	if specialist.Role != models.RoleSpecialist {
		return nil, fmt.Errorf("%w: only specialists evaluate tasks", ErrForbidden)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if !openForEvaluation(task) {
		return nil, fmt.Errorf("%w: task %s is not open for evaluation (%s)", lifecycle.ErrInvalidTransition, taskID, task.Status)
	}
	if terms.TotalCost.Sign() <= 0 || terms.HourlyRate.Sign() <= 0 || terms.EstimatedHours.Sign() <= 0 {
		return nil, fmt.Errorf("evaluation terms must be positive")
	}

	ev := &models.Evaluation{
		ID:             uuid.New(),
		TaskID:         taskID,
		SpecialistID:   specialistID,
		EstimatedHours: terms.EstimatedHours,
		HourlyRate:     terms.HourlyRate,
		TotalCost:      terms.TotalCost.Round(2),
		Comment:        terms.Comment,
		Status:         models.EvaluationPending,
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.evals.CreateTx(ctx, tx, ev); err != nil {
		return nil, err
	}
	if task.Status == models.TaskStatusCreated {
		// First evaluation: status and specialist change together. Losing this
		// race is fine, the task just already moved on.
		if _, err := s.tasks.TransitionStatusWithSpecialist(ctx, tx, taskID, models.TaskStatusCreated, models.TaskStatusEvaluated, specialistID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListEvaluationsForTask returns the task's evaluations: the owning client and
// admins see all of them, a specialist sees only their own proposals.
func (s *EvaluationService) ListEvaluationsForTask(ctx context.Context, taskID, actingUserID uuid.UUID) ([]*models.Evaluation, error) {
	actor, err := s.users.GetByID(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actingUserID)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	all, err := s.evals.ListByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RoleAdmin:
		return all, nil
	case models.RoleClient:
		if task.ClientID != actor.ID {
			return nil, fmt.Errorf("%w: not the task owner", ErrForbidden)
		}
		return all, nil
	case models.RoleSpecialist:
		var own []*models.Evaluation
		for _, ev := range all {
			if ev.SpecialistID == actor.ID {
				own = append(own, ev)
			}
		}
		return own, nil
	}
	return nil, fmt.Errorf("%w: blocked user", ErrForbidden)
}

// AcceptEvaluation is the client choosing a proposal: the evaluation is marked
// accepted, its siblings rejected, the terms copied onto the task, and the
// escrow payment processed — one transaction, so either the client is charged
// and the task is paid, or nothing happened at all.
func (s *EvaluationService) AcceptEvaluation(ctx context.Context, taskID, evaluationID, actingUserID uuid.UUID) (*PaymentResult, error) {
	actor, err := s.users.GetByID(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actingUserID)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if task.ClientID != actor.ID {
		return nil, fmt.Errorf("%w: only the task's client accepts evaluations", ErrForbidden)
	}
	ev, err := s.evals.GetByID(ctx, evaluationID)
	if err != nil || ev.TaskID != taskID {
		return nil, fmt.Errorf("%w: evaluation %s", ErrNotFound, evaluationID)
	}
	if err := lifecycle.Check(task.Status, models.TaskStatusPaid, lifecycle.ActorEngine); err != nil {
		return nil, err
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.evals.MarkAccepted(ctx, tx, evaluationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: evaluation %s", ErrEvaluationDecided, evaluationID)
	}
	if err := s.evals.RejectSiblings(ctx, tx, taskID, evaluationID); err != nil {
		return nil, err
	}
	// Accept-once gate: terms can only be written while the task is still
	// evaluated with no cost fixed. A concurrent acceptance lost here.
	ok, err = s.tasks.SetAcceptedTerms(ctx, tx, taskID, ev)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: task %s already has accepted terms", lifecycle.ErrInvalidTransition, taskID)
	}

	// The payment sees the task as it now stands: terms fixed, evaluation's
	// author assigned.
	task.SpecialistID = &ev.SpecialistID
	task.TotalCost = &ev.TotalCost

	result, err := s.payments.ProcessPaymentTx(ctx, tx, task, ev.TotalCost)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// openForEvaluation: any status before acceptance. Terms being set means an
// evaluation was already accepted even if the status race is still settling.
func openForEvaluation(task *models.Task) bool {
	if task.TotalCost != nil {
		return false
	}
	switch task.Status {
	case models.TaskStatusCreated, models.TaskStatusEvaluating, models.TaskStatusEvaluated:
		return true
	}
	return false
}
