// Package billing handles administrative invoices, separate from the task
// escrow flow. Paying an invoice debits the user's balance with a transfer
// transaction so the ledger still reconciles.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/models"
)

var (
	ErrNotFound    = errors.New("invoice not found")
	ErrForbidden   = errors.New("forbidden")
	ErrAlreadyPaid = errors.New("invoice already paid")
)

var oneHundred = decimal.NewFromInt(100)

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Invoice, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SettingStore interface {
	Get(ctx context.Context, key, fallback string) (string, error)
}

type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, e ledger.Entry) (decimal.Decimal, *models.Transaction, error)
}

type Service struct {
	begin    TxBeginner
	invoices InvoiceStore
	users    UserStore
	settings SettingStore
	ledger   Ledger
}

func NewService(begin TxBeginner, invoices InvoiceStore, users UserStore, settings SettingStore, l Ledger) *Service {
	return &Service{begin: begin, invoices: invoices, users: users, settings: settings, ledger: l}
}

// CreateInvoice issues a pending invoice to a user. Tax is computed from the
// invoice_tax_percent setting; total = amount + tax.
func (s *Service) CreateInvoice(ctx context.Context, adminID, userID uuid.UUID, amount decimal.Decimal, dueDate *time.Time) (*models.Invoice, error) {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil || admin.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: administrator role required", ErrForbidden)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("invoice recipient: %w", err)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("invoice amount must be positive")
	}

	raw, err := s.settings.Get(ctx, models.SettingInvoiceTaxPercent, models.DefaultInvoiceTaxPercent)
	if err != nil {
		return nil, err
	}
	pct, err := decimal.NewFromString(raw)
	if err != nil || pct.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s setting %q", models.SettingInvoiceTaxPercent, raw)
	}
	amount = amount.Round(2)
	tax := amount.Mul(pct).Div(oneHundred).Round(2)

	inv := &models.Invoice{
		ID:      uuid.New(),
		UserID:  userID,
		Number:  invoiceNumber(),
		Amount:  amount,
		Tax:     tax,
		Total:   amount.Add(tax),
		Status:  models.InvoicePending,
		DueDate: dueDate,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// PayInvoice settles a pending invoice from the user's balance. The
// conditional pending→paid update means paying twice cannot debit twice.
func (s *Service) PayInvoice(ctx context.Context, invoiceID, actingUserID uuid.UUID) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, invoiceID)
	}
	if inv.UserID != actingUserID {
		return nil, fmt.Errorf("%w: not the invoice recipient", ErrForbidden)
	}
	if inv.Status == models.InvoicePaid {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, inv.Number)
	}

	tx, err := s.begin.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.invoices.MarkPaid(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, inv.Number)
	}
	if _, _, err := s.ledger.Debit(ctx, tx, inv.UserID, inv.Total, ledger.Entry{
		Type:        models.TransactionTransfer,
		Description: fmt.Sprintf("invoice %s", inv.Number),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.invoices.GetByID(ctx, invoiceID)
}

// ListUserInvoices returns a user's invoices; admins may list anyone's.
func (s *Service) ListUserInvoices(ctx context.Context, userID, actingUserID uuid.UUID) ([]*models.Invoice, error) {
	if userID != actingUserID {
		actor, err := s.users.GetByID(ctx, actingUserID)
		if err != nil || actor.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: cannot list another user's invoices", ErrForbidden)
		}
	}
	return s.invoices.ListByUserID(ctx, userID)
}

// GetInvoice returns one invoice for its recipient or an admin.
func (s *Service) GetInvoice(ctx context.Context, invoiceID, actingUserID uuid.UUID) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, invoiceID)
	}
	if inv.UserID != actingUserID {
		actor, err := s.users.GetByID(ctx, actingUserID)
		if err != nil || actor.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: not the invoice recipient", ErrForbidden)
		}
	}
	return inv, nil
}

// invoiceNumber builds a human-readable unique number like INV-202608-1A2B3C4D.
func invoiceNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", time.Now().Format("200601"), suffix)
}
