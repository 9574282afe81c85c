package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/taskmarket/backend/internal/middleware"
	"github.com/taskmarket/backend/internal/models"
	"github.com/taskmarket/backend/internal/services"
)

// TaskHandler serves the task lifecycle endpoints: CRUD, evaluations, status
// transitions, payment and payout. All role/ownership decisions live in the
// services; the handler only decodes, delegates, and maps errors.
type TaskHandler struct {
	Tasks       *services.TaskService
	Evaluations *services.EvaluationService
	Payments    *services.PaymentService
	Payouts     *services.PayoutService
	Logger      *slog.Logger
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// CreateTask handles POST /api/v1/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
		return
	}
	task, err := h.Tasks.CreateTask(r.Context(), user.ID, req.Title, req.Description, req.Category, req.Priority)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	task, err := h.Tasks.GetTask(r.Context(), taskID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListTasks handles GET /api/v1/tasks. Clients see their own tasks,
// specialists the ones assigned to them.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var (
		tasks []*models.Task
		err   error
	)
	switch user.Role {
	case models.RoleSpecialist:
		tasks, err = h.Tasks.ListTasksBySpecialist(r.Context(), user.ID, user.ID)
	default:
		tasks, err = h.Tasks.ListTasksByClient(r.Context(), user.ID, user.ID)
	}
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListPendingTasks handles GET /api/v1/tasks/pending.
func (h *TaskHandler) ListPendingTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	tasks, err := h.Tasks.ListPendingTasks(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/v1/tasks/{id}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, `{"error":"status is required"}`, http.StatusBadRequest)
		return
	}
	task, err := h.Tasks.UpdateTaskStatus(r.Context(), taskID, models.TaskStatus(req.Status), user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type submitEvaluationRequest struct {
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Comment        string          `json:"comment"`
}

// SubmitEvaluation handles POST /api/v1/tasks/{id}/evaluations.
func (h *TaskHandler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	var req submitEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	ev, err := h.Evaluations.SubmitEvaluation(r.Context(), taskID, user.ID, services.EvaluationTerms{
		EstimatedHours: req.EstimatedHours,
		HourlyRate:     req.HourlyRate,
		TotalCost:      req.TotalCost,
		Comment:        req.Comment,
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// ListEvaluations handles GET /api/v1/tasks/{id}/evaluations.
func (h *TaskHandler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	evs, err := h.Evaluations.ListEvaluationsForTask(r.Context(), taskID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

// AcceptEvaluation handles POST /api/v1/tasks/{id}/evaluations/{evaluationID}/accept.
// Acceptance fixes the task terms and charges the client in one step.
func (h *TaskHandler) AcceptEvaluation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	evaluationID, ok := pathUUID(r, "evaluationID")
	if !ok {
		http.Error(w, `{"error":"invalid evaluation id"}`, http.StatusBadRequest)
		return
	}
	result, err := h.Evaluations.AcceptEvaluation(r.Context(), taskID, evaluationID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type payTaskRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PayTask handles POST /api/v1/tasks/{id}/payment — the direct payment path
// for tasks whose terms are already fixed.
func (h *TaskHandler) PayTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	var req payTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	result, err := h.Payments.ProcessTaskPayment(r.Context(), taskID, user.ID, req.Amount)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Payout handles POST /api/v1/tasks/{id}/payout.
func (h *TaskHandler) Payout(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	taskID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	result, err := h.Payouts.ProcessSpecialistPayout(r.Context(), taskID, user.ID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
