package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/taskmarket/backend/internal/auth"
	"github.com/taskmarket/backend/internal/billing"
	"github.com/taskmarket/backend/internal/config"
	"github.com/taskmarket/backend/internal/ledger"
	"github.com/taskmarket/backend/internal/notify"
	"github.com/taskmarket/backend/internal/repository"
	"github.com/taskmarket/backend/internal/services"
	"github.com/taskmarket/backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	// Schema migrations (goose, over the pool's stdlib adapter)
	sqlDB := stdlib.OpenDBFromPool(pool)
	if err := migrations.Up(sqlDB); err != nil {
		slog.Error("Schema migrations failed", "error", err)
		os.Exit(1)
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("Closing migration connection failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Schema migrations applied")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	evaluationRepo := repository.NewEvaluationRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	adjustmentRepo := repository.NewAdjustmentRepo(pool)
	assignmentRepo := repository.NewAssignmentRepo(pool)
	invoiceRepo := repository.NewInvoiceRepo(pool)
	settingRepo := repository.NewSettingRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)

	// Ledger
	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo)

	// Notification worker
	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewDeliverWorker(notificationRepo, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}
	enqueueNotification := func(ctx context.Context, tx pgx.Tx, args notify.DeliverArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}

	// Auth
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc, logger)

	// Core services
	taskSvc := services.NewTaskService(taskRepo, taskRepo, userRepo)
	paymentSvc := services.NewPaymentService(taskRepo, taskRepo, userRepo, paymentRepo, settingRepo, ledgerSvc, enqueueNotification)
	evaluationSvc := services.NewEvaluationService(taskRepo, taskRepo, userRepo, evaluationRepo, paymentSvc)
	payoutSvc := services.NewPayoutService(taskRepo, taskRepo, userRepo, paymentRepo, ledgerSvc, enqueueNotification)
	adminSvc := services.NewAdminService(taskRepo, userRepo, taskRepo, ledgerSvc, adjustmentRepo, assignmentRepo, settingRepo, enqueueNotification)
	billingSvc := billing.NewService(taskRepo, invoiceRepo, userRepo, settingRepo, ledgerSvc)

	mux := http.NewServeMux()
	RegisterRoutes(mux, &RouteDeps{
		Auth:           authHandler,
		AuthSvc:        authSvc,
		Users:          userRepo,
		Tasks:          taskSvc,
		Evaluations:    evaluationSvc,
		Payments:       paymentSvc,
		Payouts:        payoutSvc,
		Admin:          adminSvc,
		Billing:        billingSvc,
		Ledger:         ledgerSvc,
		Notifications:  notificationRepo,
		PaymentHistory: paymentRepo,
		Logger:         logger,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (delivers notifications)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
