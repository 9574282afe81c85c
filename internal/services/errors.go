package services

import "errors"

var (
	// ErrNotFound covers absent tasks, evaluations, payments, and users.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller's role or ownership does not permit the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrPayoutPrecondition means payout was attempted before the task was
	// completed or before a completed payment exists.
	ErrPayoutPrecondition = errors.New("payout preconditions not met")
	// ErrAlreadyPaidOut guards against a second payout for the same task.
	ErrAlreadyPaidOut = errors.New("task already paid out")
	// ErrEvaluationDecided means the chosen evaluation was already accepted or rejected.
	ErrEvaluationDecided = errors.New("evaluation already decided")
)
