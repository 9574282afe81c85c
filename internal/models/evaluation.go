package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Evaluation statuses. Accepting one evaluation rejects its siblings, so a
// reader never has to infer rejection from the absence of a flag.
const (
	EvaluationPending  = "pending"
	EvaluationAccepted = "accepted"
	EvaluationRejected = "rejected"
)

// Evaluation is a specialist's cost/time proposal for a task. Immutable after
// creation except for Status.
type Evaluation struct {
	ID             uuid.UUID       `json:"id"`
	TaskID         uuid.UUID       `json:"task_id"`
	SpecialistID   uuid.UUID       `json:"specialist_id"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Comment        string          `json:"comment"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
