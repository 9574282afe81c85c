package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/taskmarket/backend/internal/models"
)

// TestEscrowLifecycle walks the whole happy path through the real services —
// evaluate, accept+pay, execute, pay out — and then checks the ledger
// invariant: every balance equals its starting value plus the signed sum of
// the user's transactions, and the platform retains charge minus commission.
func TestEscrowLifecycle(t *testing.T) {
	users := newMockUsers()
	tasks := newMockTasks()
	evals := newMockEvals()
	payments := &mockPayments{}
	ledgerMock := newFakeLedger(users)
	recorder := &notifyRecorder{}

	paymentSvc := NewPaymentService(mockPool{}, tasks, users, payments, &mockSettings{}, ledgerMock, recorder.fn())
	evaluationSvc := NewEvaluationService(mockPool{}, tasks, users, evals, paymentSvc)
	payoutSvc := NewPayoutService(mockPool{}, tasks, users, payments, ledgerMock, recorder.fn())
	taskSvc := NewTaskService(mockPool{}, tasks, users)

	client := user(models.RoleClient, "1000")
	specialist := user(models.RoleSpecialist, "0")
	users.users[client.ID] = client
	users.users[specialist.ID] = specialist
	start := map[uuid.UUID]string{client.ID: "1000", specialist.ID: "0"}

	ctx := context.Background()
	task, err := taskSvc.CreateTask(ctx, client.ID, "company site", "five pages", "web", models.PriorityHigh)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ev, err := evaluationSvc.SubmitEvaluation(ctx, task.ID, specialist.ID, terms("100"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := evaluationSvc.AcceptEvaluation(ctx, task.ID, ev.ID, client.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := taskSvc.UpdateTaskStatus(ctx, task.ID, models.TaskStatusInProgress, specialist.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := taskSvc.UpdateTaskStatus(ctx, task.ID, models.TaskStatusCompleted, specialist.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	payout, err := payoutSvc.ProcessSpecialistPayout(ctx, task.ID, specialist.ID)
	if err != nil {
		t.Fatalf("payout: %v", err)
	}

	final, _ := tasks.GetByID(ctx, task.ID)
	if final.Status != models.TaskStatusPaidOut {
		t.Errorf("final status: got %s, want paid_out", final.Status)
	}

	c, _ := users.GetByID(ctx, client.ID)
	s, _ := users.GetByID(ctx, specialist.ID)
	if !c.Balance.Equal(dec("800")) {
		t.Errorf("client balance: got %s, want 800", c.Balance)
	}
	if !s.Balance.Equal(dec("50")) {
		t.Errorf("specialist balance: got %s, want 50", s.Balance)
	}
	// Client paid 200, specialist received 50: the platform retained 150.
	retained := dec("200").Sub(payout.Amount)
	if !retained.Equal(dec("150")) {
		t.Errorf("platform retention arithmetic is off: %s", retained)
	}

	// Ledger conservation per user.
	for id, s0 := range start {
		sum := dec(s0)
		for _, txn := range ledgerMock.entries {
			if txn.UserID == id {
				sum = sum.Add(txn.SignedAmount())
			}
		}
		u, _ := users.GetByID(ctx, id)
		if !sum.Equal(u.Balance) {
			t.Errorf("user %s: start + signed transactions = %s, balance = %s", id, sum, u.Balance)
		}
	}
}
