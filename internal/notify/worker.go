// Package notify delivers user notifications for ledger and lifecycle events.
// Jobs are enqueued transactionally (river InsertTx) by the services, so a
// rolled-back payment never produces a "task paid" notification.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/taskmarket/backend/internal/models"
)

type DeliverArgs struct {
	UserID  uuid.UUID  `json:"user_id"`
	TaskID  *uuid.UUID `json:"task_id,omitempty"`
	Event   string     `json:"kind"`
	Message string     `json:"message"`
}

func (DeliverArgs) Kind() string { return "notification_deliver" }

// EnqueueTxFunc enqueues a notification job within the given transaction.
// Provided by main using river.Client.InsertTx.
type EnqueueTxFunc func(ctx context.Context, tx pgx.Tx, args DeliverArgs) error

// NotificationStore is the subset of the notification repository the worker needs.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type DeliverWorker struct {
	river.WorkerDefaults[DeliverArgs]
	store  NotificationStore
	logger *slog.Logger
}

func NewDeliverWorker(store NotificationStore, logger *slog.Logger) *DeliverWorker {
	return &DeliverWorker{store: store, logger: logger}
}

func (w *DeliverWorker) Work(ctx context.Context, job *river.Job[DeliverArgs]) error {
	args := job.Args
	n := &models.Notification{
		ID:      uuid.New(),
		UserID:  args.UserID,
		TaskID:  args.TaskID,
		Kind:    args.Event,
		Message: args.Message,
	}
	if err := w.store.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	w.logger.Info("notification delivered", "user_id", args.UserID, "kind", args.Event)
	return nil
}
