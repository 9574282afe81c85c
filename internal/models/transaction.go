package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types. payment/debit/transfer reduce a balance, payout/topup
// increase it; SignedAmount encodes that convention.
const (
	TransactionPayment  = "payment"
	TransactionPayout   = "payout"
	TransactionTopup    = "topup"
	TransactionDebit    = "debit"
	TransactionTransfer = "transfer"
)

// Transaction is an append-only ledger entry. The signed sum of a user's
// transactions must always equal their current balance.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	TaskID      *uuid.UUID      `json:"task_id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SignedAmount returns the delta this entry applied to its user's balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case TransactionPayment, TransactionDebit, TransactionTransfer:
		return t.Amount.Neg()
	}
	return t.Amount
}
