package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/taskmarket/backend/internal/lifecycle"
	"github.com/taskmarket/backend/internal/models"
)

func newTaskFixture() (*TaskService, *mockUsers, *mockTasks) {
	users := newMockUsers()
	tasks := newMockTasks()
	return NewTaskService(mockPool{}, tasks, users), users, tasks
}

func TestCreateTask(t *testing.T) {
	svc, users, _ := newTaskFixture()
	client := user(models.RoleClient, "0")
	specialist := user(models.RoleSpecialist, "0")
	users.users[client.ID] = client
	users.users[specialist.ID] = specialist

	task, err := svc.CreateTask(context.Background(), client.ID, "landing page", "three sections", "web", "")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != models.TaskStatusCreated {
		t.Errorf("status: got %s, want created", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("priority default: got %s, want medium", task.Priority)
	}

	if _, err := svc.CreateTask(context.Background(), specialist.ID, "x", "", "", ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("specialist: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.CreateTask(context.Background(), client.ID, "", "", "", ""); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestGetTask_Visibility(t *testing.T) {
	svc, users, tasks := newTaskFixture()
	client := user(models.RoleClient, "0")
	otherClient := user(models.RoleClient, "0")
	assigned := user(models.RoleSpecialist, "0")
	browsing := user(models.RoleSpecialist, "0")
	admin := user(models.RoleAdmin, "0")
	for _, u := range []*models.User{client, otherClient, assigned, browsing, admin} {
		users.users[u.ID] = u
	}

	open := openTask(client.ID)
	tasks.Create(context.Background(), open)
	working := evaluatedTask(client.ID, assigned.ID, "100")
	working.Status = models.TaskStatusInProgress
	tasks.Create(context.Background(), working)

	if _, err := svc.GetTask(context.Background(), open.ID, client.ID); err != nil {
		t.Errorf("owner: %v", err)
	}
	if _, err := svc.GetTask(context.Background(), open.ID, admin.ID); err != nil {
		t.Errorf("admin: %v", err)
	}
	if _, err := svc.GetTask(context.Background(), open.ID, browsing.ID); err != nil {
		t.Errorf("open tasks are browsable by specialists: %v", err)
	}
	if _, err := svc.GetTask(context.Background(), open.ID, otherClient.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other client: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetTask(context.Background(), working.ID, assigned.ID); err != nil {
		t.Errorf("assigned specialist: %v", err)
	}
	if _, err := svc.GetTask(context.Background(), working.ID, browsing.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("unassigned specialist on in_progress task: expected ErrForbidden, got %v", err)
	}
}

func TestUpdateTaskStatus_SpecialistExecutionPath(t *testing.T) {
	svc, users, tasks := newTaskFixture()
	client := user(models.RoleClient, "0")
	specialist := user(models.RoleSpecialist, "0")
	users.users[client.ID] = client
	users.users[specialist.ID] = specialist

	task := evaluatedTask(client.ID, specialist.ID, "100")
	task.Status = models.TaskStatusPaid
	tasks.Create(context.Background(), task)

	got, err := svc.UpdateTaskStatus(context.Background(), task.ID, models.TaskStatusInProgress, specialist.ID)
	if err != nil {
		t.Fatalf("paid -> in_progress: %v", err)
	}
	if got.Status != models.TaskStatusInProgress {
		t.Errorf("status: got %s, want in_progress", got.Status)
	}

	got, err = svc.UpdateTaskStatus(context.Background(), task.ID, models.TaskStatusCompleted, specialist.ID)
	if err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("status: got %s, want completed", got.Status)
	}
}

func TestUpdateTaskStatus_WrongActor(t *testing.T) {
	svc, users, tasks := newTaskFixture()
	client := user(models.RoleClient, "0")
	assigned := user(models.RoleSpecialist, "0")
	other := user(models.RoleSpecialist, "0")
	users.users[client.ID] = client
	users.users[assigned.ID] = assigned
	users.users[other.ID] = other

	task := evaluatedTask(client.ID, assigned.ID, "100")
	task.Status = models.TaskStatusPaid
	tasks.Create(context.Background(), task)

	if _, err := svc.UpdateTaskStatus(context.Background(), task.ID, models.TaskStatusInProgress, other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("unassigned specialist: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateTaskStatus(context.Background(), task.ID, models.TaskStatusInProgress, client.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("client cannot start execution: expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateTaskStatus_CannotReachMoneyStates(t *testing.T) {
	svc, users, tasks := newTaskFixture()
	client := user(models.RoleClient, "0")
	specialist := user(models.RoleSpecialist, "0")
	admin := user(models.RoleAdmin, "0")
	for _, u := range []*models.User{client, specialist, admin} {
		users.users[u.ID] = u
	}

	// A bare status write to paid would escrow nothing; the edge belongs to
	// the payment processor.
	evaluated := evaluatedTask(client.ID, specialist.ID, "100")
	tasks.Create(context.Background(), evaluated)
	if _, err := svc.UpdateTaskStatus(context.Background(), evaluated.ID, models.TaskStatusPaid, client.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("client to paid: expected ErrInvalidTransition, got %v", err)
	}
	got, _ := tasks.GetByID(context.Background(), evaluated.ID)
	if got.Status != models.TaskStatusEvaluated {
		t.Errorf("task must stay evaluated, got %s", got.Status)
	}

	// Likewise paid_out: writing it directly would burn the payout engine's
	// one-shot guard with no commission credited.
	completed := evaluatedTask(client.ID, specialist.ID, "100")
	completed.Status = models.TaskStatusCompleted
	tasks.Create(context.Background(), completed)
	for _, actor := range []*models.User{specialist, admin} {
		if _, err := svc.UpdateTaskStatus(context.Background(), completed.ID, models.TaskStatusPaidOut, actor.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
			t.Errorf("%s to paid_out: expected ErrInvalidTransition, got %v", actor.Role, err)
		}
	}
	got, _ = tasks.GetByID(context.Background(), completed.ID)
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("task must stay completed, got %s", got.Status)
	}
}

func TestUpdateTaskStatus_ClientCancel(t *testing.T) {
	svc, users, tasks := newTaskFixture()
	client := user(models.RoleClient, "0")
	users.users[client.ID] = client

	task := openTask(client.ID)
	tasks.Create(context.Background(), task)

	got, err := svc.UpdateTaskStatus(context.Background(), task.ID, models.TaskStatusCancelled, client.ID)
	if err != nil {
		t.Fatalf("created -> cancelled: %v", err)
	}
	if got.Status != models.TaskStatusCancelled {
		t.Errorf("status: got %s, want cancelled", got.Status)
	}
	// Terminal: nothing moves out of cancelled.
	if _, err := svc.UpdateTaskStatus(context.Background(), task.ID, models.TaskStatusCreated, client.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateTaskStatus_BlockedUser(t *testing.T) {
	svc, users, tasks := newTaskFixture()
	client := user(models.RoleClient, "0")
	blocked := user(models.RoleBlocked, "0")
	users.users[client.ID] = client
	users.users[blocked.ID] = blocked

	task := openTask(client.ID)
	tasks.Create(context.Background(), task)

	if _, err := svc.UpdateTaskStatus(context.Background(), task.ID, models.TaskStatusCancelled, blocked.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListPendingTasks(t *testing.T) {
	svc, users, tasks := newTaskFixture()
	client := user(models.RoleClient, "0")
	specialist := user(models.RoleSpecialist, "0")
	users.users[client.ID] = client
	users.users[specialist.ID] = specialist

	open := openTask(client.ID)
	tasks.Create(context.Background(), open)
	// A task with a first proposal in stays open for competing specialists
	// until the client fixes terms.
	proposed := openTask(client.ID)
	proposed.Status = models.TaskStatusEvaluated
	sid := specialist.ID
	proposed.SpecialistID = &sid
	tasks.Create(context.Background(), proposed)
	accepted := evaluatedTask(client.ID, specialist.ID, "100")
	tasks.Create(context.Background(), accepted)
	done := evaluatedTask(client.ID, specialist.ID, "100")
	done.Status = models.TaskStatusPaidOut
	tasks.Create(context.Background(), done)

	list, err := svc.ListPendingTasks(context.Background(), specialist.ID)
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	ids := make(map[uuid.UUID]bool, len(list))
	for _, task := range list {
		ids[task.ID] = true
	}
	if len(list) != 2 || !ids[open.ID] || !ids[proposed.ID] {
		t.Errorf("pending list: got %d, want the open task and the terms-unset evaluated task", len(list))
	}

	if _, err := svc.ListPendingTasks(context.Background(), client.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("client: expected ErrForbidden, got %v", err)
	}
}
