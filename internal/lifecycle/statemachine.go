// Package lifecycle owns the task status transition table. Every status change
// in the system goes through Check; repositories additionally key their UPDATE
// on the expected prior status so concurrent transitions have a single winner.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/taskmarket/backend/internal/models"
)

// ErrInvalidTransition is returned when the requested edge does not exist from
// the current status, or exists but not for the caller's role.
var ErrInvalidTransition = errors.New("invalid status transition")

// ActorEngine is the internal actor owning the money-moving edges. No user
// role ever equals it, so the generic status update cannot reach paid or
// paid_out; only the payment processor and the payout engine pass it.
const ActorEngine = "engine"

// edge is one legal transition and the single role allowed to trigger it.
type edge struct {
	to   models.TaskStatus
	role string
}

// transitions is the whole lifecycle. created→evaluating/evaluated happen when
// a specialist submits an evaluation; evaluated→paid and completed→paid_out
// move money, so they belong to ActorEngine — the payment processor charges the
// client, the payout engine credits the specialist, and neither edge is
// reachable through the generic status update. rejected/cancelled are early
// terminal exits (client withdraws an unpaid task, admin rejects one).
var transitions = map[models.TaskStatus][]edge{
	models.TaskStatusCreated: {
		{models.TaskStatusEvaluating, models.RoleSpecialist},
		{models.TaskStatusEvaluated, models.RoleSpecialist},
		{models.TaskStatusCancelled, models.RoleClient},
		{models.TaskStatusRejected, models.RoleAdmin},
	},
	models.TaskStatusEvaluating: {
		{models.TaskStatusEvaluated, models.RoleSpecialist},
		{models.TaskStatusCancelled, models.RoleClient},
		{models.TaskStatusRejected, models.RoleAdmin},
	},
	models.TaskStatusEvaluated: {
		{models.TaskStatusPaid, ActorEngine},
		{models.TaskStatusCancelled, models.RoleClient},
	},
	models.TaskStatusPaid: {
		{models.TaskStatusInProgress, models.RoleSpecialist},
	},
	models.TaskStatusInProgress: {
		{models.TaskStatusCompleted, models.RoleSpecialist},
	},
	models.TaskStatusCompleted: {
		{models.TaskStatusPaidOut, ActorEngine},
	},
}

// Check validates the edge from→to for the given role. It reports only whether
// the edge exists in the table; ownership (is this the assigned specialist, is
// this the owning client) is checked by the services against the loaded task.
func Check(from, to models.TaskStatus, role string) error {
	for _, e := range transitions[from] {
		if e.to == to && e.role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s as %s", ErrInvalidTransition, from, to, role)
}

// Allowed lists the statuses role may move a task in status from into.
func Allowed(from models.TaskStatus, role string) []models.TaskStatus {
	var out []models.TaskStatus
	for _, e := range transitions[from] {
		if e.role == role {
			out = append(out, e.to)
		}
	}
	return out
}

// RequiresAssignedSpecialist reports whether the edge may only be taken by the
// specialist already assigned to the task (as opposed to any specialist
// evaluating an open task).
func RequiresAssignedSpecialist(from, to models.TaskStatus) bool {
	switch {
	case from == models.TaskStatusPaid && to == models.TaskStatusInProgress:
		return true
	case from == models.TaskStatusInProgress && to == models.TaskStatusCompleted:
		return true
	case from == models.TaskStatusCompleted && to == models.TaskStatusPaidOut:
		return true
	}
	return false
}
