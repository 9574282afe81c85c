package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds produced by the core flows.
const (
	NotifyTaskAssigned    = "task_assigned"
	NotifyTaskPaid        = "task_paid"
	NotifyPayoutSent      = "payout_sent"
	NotifyBalanceAdjusted = "balance_adjusted"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
