package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/billing"
	"github.com/taskmarket/backend/internal/middleware"
	"github.com/taskmarket/backend/internal/models"
	"github.com/taskmarket/backend/internal/services"
)

// AdminHandler serves the administrator tools. Routes are mounted behind
// RequireRole(admin); the services verify the acting role again.
type AdminHandler struct {
	Admin   *services.AdminService
	Billing *billing.Service
	Logger  *slog.Logger
}

type adjustBalanceRequest struct {
	UserID uuid.UUID       `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
	Reason string          `json:"reason"`
}

// AdjustBalance handles POST /api/v1/admin/balance-adjustments.
func (h *AdminHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	var req adjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Type != models.AdjustmentCredit && req.Type != models.AdjustmentDebit {
		http.Error(w, `{"error":"type must be credit or debit"}`, http.StatusBadRequest)
		return
	}
	if req.Amount.Sign() <= 0 || req.Reason == "" {
		http.Error(w, `{"error":"a positive amount and a reason are required"}`, http.StatusBadRequest)
		return
	}
	adj, err := h.Admin.AdjustUserBalance(r.Context(), admin.ID, req.UserID, req.Amount, req.Reason, req.Type)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, adj)
}

type assignTaskRequest struct {
	SpecialistID uuid.UUID `json:"specialist_id"`
	Notes        string    `json:"notes"`
}

// AssignTask handles POST /api/v1/admin/tasks/{id}/assign.
func (h *AdminHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	var req assignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	assignment, err := h.Admin.AssignTaskToSpecialist(r.Context(), admin.ID, taskID, req.SpecialistID, req.Notes)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	users, err := h.Admin.ListUsers(r.Context(), admin.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetUserRole handles PATCH /api/v1/admin/users/{id}/role. Setting the role
// to blocked suspends the account.
func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	userID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if !models.ValidRole(req.Role) {
		http.Error(w, `{"error":"unknown role"}`, http.StatusBadRequest)
		return
	}
	user, err := h.Admin.SetUserRole(r.Context(), admin.ID, userID, req.Role)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUserAdjustments handles GET /api/v1/admin/users/{id}/adjustments.
func (h *AdminHandler) ListUserAdjustments(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	userID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	list, err := h.Admin.ListUserAdjustments(r.Context(), admin.ID, userID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []*models.BalanceAdjustment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ListTaskAssignments handles GET /api/v1/admin/tasks/{id}/assignments.
func (h *AdminHandler) ListTaskAssignments(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	list, err := h.Admin.ListTaskAssignments(r.Context(), admin.ID, taskID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []*models.TaskAssignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

// UpdateSetting handles PUT /api/v1/admin/settings/{key}.
func (h *AdminHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	key := r.PathValue("key")
	var req updateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if key != models.SettingMarkupPercent && key != models.SettingInvoiceTaxPercent {
		http.Error(w, `{"error":"unknown setting"}`, http.StatusBadRequest)
		return
	}
	if pct, err := decimal.NewFromString(req.Value); err != nil || pct.Sign() < 0 {
		http.Error(w, `{"error":"value must be a non-negative decimal"}`, http.StatusBadRequest)
		return
	}
	if err := h.Admin.UpdateSetting(r.Context(), admin.ID, key, req.Value); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

type createInvoiceRequest struct {
	UserID  uuid.UUID       `json:"user_id"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate *time.Time      `json:"due_date,omitempty"`
}

// CreateInvoice handles POST /api/v1/admin/invoices.
func (h *AdminHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	admin := middleware.UserFromCtx(r.Context())
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	inv, err := h.Billing.CreateInvoice(r.Context(), admin.ID, req.UserID, req.Amount, req.DueDate)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}
