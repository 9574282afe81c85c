package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmarket/backend/internal/models"
)

type AssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

func (r *AssignmentRepo) CreateTx(ctx context.Context, tx pgx.Tx, a *models.TaskAssignment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO task_assignments (id, task_id, specialist_id, admin_id, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, a.ID, a.TaskID, a.SpecialistID, a.AdminID, a.Notes, a.Status).Scan(&a.CreatedAt)
}

// MarkReassigned closes any active assignment for the task. History is
// append-only; nothing is deleted.
func (r *AssignmentRepo) MarkReassigned(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE task_assignments SET status = 'reassigned' WHERE task_id = $1 AND status = 'active'
	`, taskID)
	return err
}

func (r *AssignmentRepo) ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]*models.TaskAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, specialist_id, admin_id, notes, status, created_at
		FROM task_assignments WHERE task_id = $1 ORDER BY created_at DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.TaskAssignment
	for rows.Next() {
		var a models.TaskAssignment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.SpecialistID, &a.AdminID, &a.Notes, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
