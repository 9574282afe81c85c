package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/middleware"
	"github.com/taskmarket/backend/internal/models"
)

// NotificationReader is what the account endpoints need from the
// notification store.
type NotificationReader interface {
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID) error
}

// PaymentReader is what the account endpoints need from the payment store.
type PaymentReader interface {
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Payment, error)
}

// AccountHandler serves the authenticated user's own ledger view: balance,
// transaction history, payments, and notifications.
type AccountHandler struct {
	Ledger        ledger.Service
	Notifications NotificationReader
	Payments      PaymentReader
	Logger        *slog.Logger
}

// Balance handles GET /api/v1/account/balance.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	balance, err := h.Ledger.Balance(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// Transactions handles GET /api/v1/account/transactions.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	history, err := h.Ledger.History(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if history == nil {
		history = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, history)
}

// PaymentHistory handles GET /api/v1/account/payments.
func (h *AccountHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	payments, err := h.Payments.ListByUserID(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// ListNotifications handles GET /api/v1/account/notifications.
func (h *AccountHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	list, err := h.Notifications.ListByUserID(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkNotificationsRead handles POST /api/v1/account/notifications/read.
func (h *AccountHandler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if err := h.Notifications.MarkRead(r.Context(), user.ID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
