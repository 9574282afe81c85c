package models

// TaskStatus is the closed task lifecycle enumeration. The legal edges between
// statuses live in internal/lifecycle; nothing else may flip a task's status.
type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "created"
	TaskStatusEvaluating TaskStatus = "evaluating"
	TaskStatusEvaluated  TaskStatus = "evaluated"
	TaskStatusPaid       TaskStatus = "paid"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusPaidOut    TaskStatus = "paid_out"
	TaskStatusRejected   TaskStatus = "rejected"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) String() string { return string(s) }

// Terminal reports whether no edge leaves the status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusPaidOut, TaskStatusRejected, TaskStatusCancelled:
		return true
	}
	return false
}
