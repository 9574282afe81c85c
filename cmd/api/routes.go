package main

import (
	"log/slog"
	"net/http"

	"github.com/taskmarket/backend/internal/auth"
	"github.com/taskmarket/backend/internal/billing"
	"github.com/taskmarket/backend/internal/handlers"
	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/middleware"
	"github.com/taskmarket/backend/internal/models"
	"github.com/taskmarket/backend/internal/repository"
	"github.com/taskmarket/backend/internal/services"
)

// RouteDeps bundles everything RegisterRoutes wires into the mux.
type RouteDeps struct {
	Auth           *auth.Handler
	AuthSvc        auth.Service
	Users          *repository.UserRepo
	Tasks          *services.TaskService
	Evaluations    *services.EvaluationService
	Payments       *services.PaymentService
	Payouts        *services.PayoutService
	Admin          *services.AdminService
	Billing        *billing.Service
	Ledger         ledger.Service
	Notifications  *repository.NotificationRepo
	PaymentHistory *repository.PaymentRepo
	Logger         *slog.Logger
}

// RegisterRoutes mounts the /api/v1/ endpoints. Middleware chain:
// BearerAuth -> (RequireRole where the route is role-specific) -> handler.
// The services re-check authorization; the middleware is the outer gate.
func RegisterRoutes(mux *http.ServeMux, d *RouteDeps) {
	taskHandler := &handlers.TaskHandler{
		Tasks:       d.Tasks,
		Evaluations: d.Evaluations,
		Payments:    d.Payments,
		Payouts:     d.Payouts,
		Logger:      d.Logger,
	}
	accountHandler := &handlers.AccountHandler{
		Ledger:        d.Ledger,
		Notifications: d.Notifications,
		Payments:      d.PaymentHistory,
		Logger:        d.Logger,
	}
	adminHandler := &handlers.AdminHandler{
		Admin:   d.Admin,
		Billing: d.Billing,
		Logger:  d.Logger,
	}
	billingHandler := &handlers.BillingHandler{
		Billing: d.Billing,
		Users:   d.Users,
		Logger:  d.Logger,
	}

	authed := middleware.BearerAuth(d.AuthSvc, d.Users)
	clientOnly := middleware.RequireRole(models.RoleClient)
	specialistOnly := middleware.RequireRole(models.RoleSpecialist)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	handle := func(pattern string, h http.HandlerFunc, gates ...func(http.Handler) http.Handler) {
		var wrapped http.Handler = h
		for i := len(gates) - 1; i >= 0; i-- {
			wrapped = gates[i](wrapped)
		}
		mux.Handle(pattern, authed(wrapped))
	}

	// Public
	mux.HandleFunc("POST /api/v1/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", d.Auth.Login)

	// Tasks
	handle("POST /api/v1/tasks", taskHandler.CreateTask, clientOnly)
	handle("GET /api/v1/tasks", taskHandler.ListTasks)
	handle("GET /api/v1/tasks/pending", taskHandler.ListPendingTasks, middleware.RequireRole(models.RoleSpecialist, models.RoleAdmin))
	handle("GET /api/v1/tasks/{id}", taskHandler.GetTask)
	handle("PATCH /api/v1/tasks/{id}/status", taskHandler.UpdateStatus)

	// Evaluations
	handle("POST /api/v1/tasks/{id}/evaluations", taskHandler.SubmitEvaluation, specialistOnly)
	handle("GET /api/v1/tasks/{id}/evaluations", taskHandler.ListEvaluations)
	handle("POST /api/v1/tasks/{id}/evaluations/{evaluationID}/accept", taskHandler.AcceptEvaluation, clientOnly)

	// Money movement
	handle("POST /api/v1/tasks/{id}/payment", taskHandler.PayTask, clientOnly)
	handle("POST /api/v1/tasks/{id}/payout", taskHandler.Payout, middleware.RequireRole(models.RoleSpecialist, models.RoleAdmin))

	// Account
	handle("GET /api/v1/account/balance", accountHandler.Balance)
	handle("GET /api/v1/account/transactions", accountHandler.Transactions)
	handle("GET /api/v1/account/payments", accountHandler.PaymentHistory)
	handle("GET /api/v1/account/notifications", accountHandler.ListNotifications)
	handle("POST /api/v1/account/notifications/read", accountHandler.MarkNotificationsRead)

	// Invoices
	handle("GET /api/v1/invoices", billingHandler.ListInvoices)
	handle("GET /api/v1/invoices/{id}", billingHandler.GetInvoice)
	handle("GET /api/v1/invoices/{id}/pdf", billingHandler.DownloadInvoicePDF)
	handle("POST /api/v1/invoices/{id}/pay", billingHandler.PayInvoice)

	// Admin
	handle("POST /api/v1/admin/balance-adjustments", adminHandler.AdjustBalance, adminOnly)
	handle("GET /api/v1/admin/users", adminHandler.ListUsers, adminOnly)
	handle("PATCH /api/v1/admin/users/{id}/role", adminHandler.SetUserRole, adminOnly)
	handle("GET /api/v1/admin/users/{id}/adjustments", adminHandler.ListUserAdjustments, adminOnly)
	handle("POST /api/v1/admin/tasks/{id}/assign", adminHandler.AssignTask, adminOnly)
	handle("GET /api/v1/admin/tasks/{id}/assignments", adminHandler.ListTaskAssignments, adminOnly)
	handle("PUT /api/v1/admin/settings/{key}", adminHandler.UpdateSetting, adminOnly)
	handle("POST /api/v1/admin/invoices", adminHandler.CreateInvoice, adminOnly)
}
