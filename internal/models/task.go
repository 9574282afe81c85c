package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Task priority labels (free-form in the DB, these are the ones the UI offers).
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a client's work request. Commercial terms (EstimatedHours, HourlyRate,
// TotalCost) stay nil until an evaluation has been accepted; SpecialistID stays
// nil until evaluation or admin assignment.
type Task struct {
	ID             uuid.UUID        `json:"id"`
	ClientID       uuid.UUID        `json:"client_id"`
	SpecialistID   *uuid.UUID       `json:"specialist_id,omitempty"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	Priority       string           `json:"priority"`
	Status         TaskStatus       `json:"status"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours,omitempty"`
	HourlyRate     *decimal.Decimal `json:"hourly_rate,omitempty"`
	TotalCost      *decimal.Decimal `json:"total_cost,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}
