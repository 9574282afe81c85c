package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmarket/backend/internal/models"
)

const taskColumns = `id, client_id, specialist_id, title, description, category, priority, status,
	estimated_hours, hourly_rate, total_cost, created_at, updated_at, completed_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, client_id, title, description, category, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, t.ID, t.ClientID, t.Title, t.Description, t.Category, t.Priority, t.Status).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// GetByIDForUpdate locks the task row. Call within a transaction.
func (r *TaskRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
}

// TransitionStatus moves the task from one status to another only if it is
// still in the expected prior status. Returns false when another caller won
// the race (or the task is gone). completed_at is stamped on completion.
func (r *TaskRepo) TransitionStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to models.TaskStatus) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $3,
			completed_at = CASE WHEN $3 = 'completed' THEN now() ELSE completed_at END,
			updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TransitionStatusWithSpecialist is TransitionStatus plus specialist
// assignment, applied atomically (a specialist "taking" an open task).
func (r *TaskRepo) TransitionStatusWithSpecialist(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to models.TaskStatus, specialistID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $3, specialist_id = $4, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to, specialistID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetAcceptedTerms copies an accepted evaluation's terms and author onto the
// task. Conditional on the task still being evaluated with no terms set, so a
// second acceptance can never overwrite the first.
func (r *TaskRepo) SetAcceptedTerms(ctx context.Context, tx pgx.Tx, id uuid.UUID, ev *models.Evaluation) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET estimated_hours = $2, hourly_rate = $3, total_cost = $4, specialist_id = $5, updated_at = now()
		WHERE id = $1 AND status = 'evaluated' AND total_cost IS NULL
	`, id, ev.EstimatedHours, ev.HourlyRate, ev.TotalCost, ev.SpecialistID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetSpecialist is the admin override path; it bypasses the evaluation flow.
func (r *TaskRepo) SetSpecialist(ctx context.Context, tx pgx.Tx, id, specialistID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE tasks SET specialist_id = $2, updated_at = now() WHERE id = $1
	`, id, specialistID)
	return err
}

func (r *TaskRepo) ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*models.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

func (r *TaskRepo) ListBySpecialistID(ctx context.Context, specialistID uuid.UUID) ([]*models.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE specialist_id = $1 ORDER BY created_at DESC`, specialistID)
}

// ListPending returns tasks still open for evaluation. An evaluated task stays
// open for competing proposals until the client accepts one and its terms are
// fixed.
func (r *TaskRepo) ListPending(ctx context.Context) ([]*models.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE status IN ('created', 'evaluating') OR (status = 'evaluated' AND total_cost IS NULL)
		ORDER BY created_at ASC`)
}

func (r *TaskRepo) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ClientID, &t.SpecialistID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Status,
		&t.EstimatedHours, &t.HourlyRate, &t.TotalCost, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
