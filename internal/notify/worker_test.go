package notify

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/taskmarket/backend/internal/models"
)

type memStore struct {
	created []*models.Notification
}

func (m *memStore) Create(_ context.Context, n *models.Notification) error {
	m.created = append(m.created, n)
	return nil
}

func TestDeliverArgsJobKind(t *testing.T) {
	// The river job kind is fixed; the per-notification event travels in the
	// Event field.
	if got := (DeliverArgs{Event: models.NotifyTaskPaid}).Kind(); got != "notification_deliver" {
		t.Errorf("job kind: got %q, want notification_deliver", got)
	}
}

func TestDeliverWorker(t *testing.T) {
	store := &memStore{}
	w := NewDeliverWorker(store, slog.Default())

	userID := uuid.New()
	taskID := uuid.New()
	job := &river.Job[DeliverArgs]{Args: DeliverArgs{
		UserID:  userID,
		TaskID:  &taskID,
		Event:   models.NotifyTaskPaid,
		Message: "task paid",
	}}

	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("notifications created: got %d, want 1", len(store.created))
	}
	n := store.created[0]
	if n.UserID != userID || n.Kind != models.NotifyTaskPaid || n.TaskID == nil || *n.TaskID != taskID {
		t.Errorf("notification fields: %+v", n)
	}
	if n.Read {
		t.Error("new notifications start unread")
	}
}
