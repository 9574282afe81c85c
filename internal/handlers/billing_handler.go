package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskmarket/backend/internal/billing"
	"github.com/taskmarket/backend/internal/middleware"
	"github.com/taskmarket/backend/internal/models"
)

// RecipientLookup loads the invoice recipient for PDF rendering.
type RecipientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// BillingHandler serves the recipient-facing invoice endpoints.
type BillingHandler struct {
	Billing *billing.Service
	Users   RecipientLookup
	Logger  *slog.Logger
}

// ListInvoices handles GET /api/v1/invoices.
func (h *BillingHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	invoices, err := h.Billing.ListUserInvoices(r.Context(), user.ID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if invoices == nil {
		invoices = []*models.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice handles GET /api/v1/invoices/{id}.
func (h *BillingHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	invoiceID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid invoice id"}`, http.StatusBadRequest)
		return
	}
	inv, err := h.Billing.GetInvoice(r.Context(), invoiceID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// PayInvoice handles POST /api/v1/invoices/{id}/pay.
func (h *BillingHandler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	invoiceID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid invoice id"}`, http.StatusBadRequest)
		return
	}
	inv, err := h.Billing.PayInvoice(r.Context(), invoiceID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DownloadInvoicePDF handles GET /api/v1/invoices/{id}/pdf.
func (h *BillingHandler) DownloadInvoicePDF(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	invoiceID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid invoice id"}`, http.StatusBadRequest)
		return
	}
	inv, err := h.Billing.GetInvoice(r.Context(), invoiceID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	recipient, err := h.Users.GetByID(r.Context(), inv.UserID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	data, err := billing.RenderInvoicePDF(inv, recipient)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Number+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
