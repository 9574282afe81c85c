package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmarket/backend/internal/lifecycle"
	"github.com/taskmarket/backend/internal/models"
)

// TaskService owns task CRUD and the role-gated status transitions.
type TaskService struct {
	begin TxBeginner
	tasks TaskStore
	users UserStore
}

func NewTaskService(begin TxBeginner, tasks TaskStore, users UserStore) *TaskService {
	return &TaskService{begin: begin, tasks: tasks, users: users}
}

// CreateTask registers a new work request for the client. Only clients open
// tasks; admins use the assignment tools instead.
func (s *TaskService) CreateTask(ctx context.Context, clientID uuid.UUID, title, description, category, priority string) (*models.Task, error) {
	client, err := s.requireUser(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Role != models.RoleClient {
		return nil, fmt.Errorf("%w: only clients create tasks", ErrForbidden)
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if priority == "" {
		priority = models.PriorityMedium
	}
	task := &models.Task{
		ID:          uuid.New(),
		ClientID:    clientID,
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      models.TaskStatusCreated,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask returns the task if the caller may see it: the owning client, the
// assigned specialist, any specialist while the task is open for evaluation,
// or an admin.
func (s *TaskService) GetTask(ctx context.Context, taskID, actingUserID uuid.UUID) (*models.Task, error) {
	actor, err := s.requireUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if !canViewTask(actor, task) {
		return nil, fmt.Errorf("%w: not a participant of task %s", ErrForbidden, taskID)
	}
	return task, nil
}

func (s *TaskService) ListTasksByClient(ctx context.Context, clientID, actingUserID uuid.UUID) ([]*models.Task, error) {
	actor, err := s.requireUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actingUserID != clientID {
		return nil, fmt.Errorf("%w: cannot list another client's tasks", ErrForbidden)
	}
	return s.tasks.ListByClientID(ctx, clientID)
}

func (s *TaskService) ListTasksBySpecialist(ctx context.Context, specialistID, actingUserID uuid.UUID) ([]*models.Task, error) {
	actor, err := s.requireUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actingUserID != specialistID {
		return nil, fmt.Errorf("%w: cannot list another specialist's tasks", ErrForbidden)
	}
	return s.tasks.ListBySpecialistID(ctx, specialistID)
}

// ListPendingTasks returns tasks open for evaluation, for specialists browsing
// for work.
func (s *TaskService) ListPendingTasks(ctx context.Context, actingUserID uuid.UUID) ([]*models.Task, error) {
	actor, err := s.requireUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSpecialist && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: pending tasks are for specialists", ErrForbidden)
	}
	return s.tasks.ListPending(ctx)
}

// UpdateTaskStatus applies one edge of the lifecycle on behalf of the acting
// user. The conditional store update keyed on the current status makes racing
// transitions single-winner; the loser gets ErrInvalidTransition.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, target models.TaskStatus, actingUserID uuid.UUID) (*models.Task, error) {
	actor, err := s.requireUser(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	if err := lifecycle.Check(task.Status, target, actor.Role); err != nil {
		return nil, err
	}
	if err := checkOwnership(actor, task, target); err != nil {
		return nil, err
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.tasks.TransitionStatus(ctx, tx, taskID, task.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: task %s is no longer %s", lifecycle.ErrInvalidTransition, taskID, task.Status)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, taskID)
}

func (s *TaskService) requireUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if u.Role == models.RoleBlocked {
		return nil, fmt.Errorf("%w: user is blocked", ErrForbidden)
	}
	return u, nil
}

// checkOwnership enforces the "who" column of the transition table against the
// concrete task: clients act on their own tasks, execution-state edges belong
// to the assigned specialist.
func checkOwnership(actor *models.User, task *models.Task, target models.TaskStatus) error {
	switch actor.Role {
	case models.RoleClient:
		if task.ClientID != actor.ID {
			return fmt.Errorf("%w: not the task owner", ErrForbidden)
		}
	case models.RoleSpecialist:
		if lifecycle.RequiresAssignedSpecialist(task.Status, target) {
			if task.SpecialistID == nil || *task.SpecialistID != actor.ID {
				return fmt.Errorf("%w: not the assigned specialist", ErrForbidden)
			}
		}
	}
	return nil
}

func canViewTask(actor *models.User, task *models.Task) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleClient:
		return task.ClientID == actor.ID
	case models.RoleSpecialist:
		if task.SpecialistID != nil && *task.SpecialistID == actor.ID {
			return true
		}
		// Open tasks are visible so specialists can evaluate them.
		switch task.Status {
		case models.TaskStatusCreated, models.TaskStatusEvaluating, models.TaskStatusEvaluated:
			return true
		}
	}
	return false
}
