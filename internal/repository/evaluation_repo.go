package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmarket/backend/internal/models"
)

type EvaluationRepo struct {
	pool *pgxpool.Pool
}

func NewEvaluationRepo(pool *pgxpool.Pool) *EvaluationRepo {
	return &EvaluationRepo{pool: pool}
}

func (r *EvaluationRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.Evaluation) error {
	return tx.QueryRow(ctx, `
		INSERT INTO evaluations (id, task_id, specialist_id, estimated_hours, hourly_rate, total_cost, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, e.ID, e.TaskID, e.SpecialistID, e.EstimatedHours, e.HourlyRate, e.TotalCost, e.Comment, e.Status).Scan(&e.CreatedAt)
}

func (r *EvaluationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	var e models.Evaluation
	err := r.pool.QueryRow(ctx, `
		SELECT id, task_id, specialist_id, estimated_hours, hourly_rate, total_cost, comment, status, created_at
		FROM evaluations WHERE id = $1
	`, id).Scan(&e.ID, &e.TaskID, &e.SpecialistID, &e.EstimatedHours, &e.HourlyRate, &e.TotalCost, &e.Comment, &e.Status, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MarkAccepted flips the chosen evaluation to accepted only while it is still
// pending. Returns false if it was already decided.
func (r *EvaluationRepo) MarkAccepted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE evaluations SET status = 'accepted' WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RejectSiblings marks every other pending evaluation of the task rejected, so
// competing specialists see an explicit outcome.
func (r *EvaluationRepo) RejectSiblings(ctx context.Context, tx pgx.Tx, taskID, acceptedID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE evaluations SET status = 'rejected' WHERE task_id = $1 AND id <> $2 AND status = 'pending'
	`, taskID, acceptedID)
	return err
}

func (r *EvaluationRepo) ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]*models.Evaluation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, specialist_id, estimated_hours, hourly_rate, total_cost, comment, status, created_at
		FROM evaluations WHERE task_id = $1 ORDER BY created_at ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Evaluation
	for rows.Next() {
		var e models.Evaluation
		if err := rows.Scan(&e.ID, &e.TaskID, &e.SpecialistID, &e.EstimatedHours, &e.HourlyRate, &e.TotalCost, &e.Comment, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
