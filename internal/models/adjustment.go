package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AdjustmentCredit = "credit"
	AdjustmentDebit  = "debit"
)

// BalanceAdjustment is the audit record for a manual, admin-issued balance
// change. Never written without the matching balance update, never mutated.
type BalanceAdjustment struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	AdminID         uuid.UUID       `json:"admin_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Reason          string          `json:"reason"`
	CreatedAt       time.Time       `json:"created_at"`
}

const (
	AssignmentActive     = "active"
	AssignmentReassigned = "reassigned"
)

// TaskAssignment is the append-only history of admin task assignments. A newer
// assignment marks the previous active one reassigned instead of deleting it.
type TaskAssignment struct {
	ID           uuid.UUID `json:"id"`
	TaskID       uuid.UUID `json:"task_id"`
	SpecialistID uuid.UUID `json:"specialist_id"`
	AdminID      uuid.UUID `json:"admin_id"`
	Notes        string    `json:"notes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
