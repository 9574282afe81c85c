package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// Payment records the escrowed charge for a task.
// Invariant: Amount = SpecialistAmount + MarkupAmount.
type Payment struct {
	ID               uuid.UUID       `json:"id"`
	TaskID           uuid.UUID       `json:"task_id"`
	FromUserID       uuid.UUID       `json:"from_user_id"`
	ToUserID         *uuid.UUID      `json:"to_user_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	MarkupAmount     decimal.Decimal `json:"markup_amount"`
	SpecialistAmount decimal.Decimal `json:"specialist_amount"`
	Status           string          `json:"status"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
