package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/opentally/tasklist/internal/tasklist/domain"
	"github.com/opentally/tasklist/internal/tasklist/store"
)

type tasksRepo struct {
	q querier
}

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tasks (id, creator_id, text, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CreatorID, t.Text, t.Completed, optionalTime(t.CompletedAt), t.CreatedAt, t.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *tasksRepo) GetTaskByID(ctx context.Context, creatorID, id string) (domain.Task, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, creator_id, text, completed, completed_at, created_at, updated_at
		FROM tasks WHERE id = ? AND creator_id = ?`, id, creatorID)
	return scanTask(row)
}

func (r *tasksRepo) ListTasksByCreator(ctx context.Context, creatorID string) ([]domain.Task, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, creator_id, text, completed, completed_at, created_at, updated_at
		FROM tasks WHERE creator_id = ?
		ORDER BY id`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE tasks
		SET text = ?, completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND creator_id = ?`,
		t.Text, t.Completed, optionalTime(t.CompletedAt), t.UpdatedAt, t.ID, t.CreatorID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *tasksRepo) DeleteTask(ctx context.Context, creatorID, id string) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM tasks WHERE id = ? AND creator_id = ?`, id, creatorID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t           domain.Task
		completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.CreatorID, &t.Text, &t.Completed, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	return t, nil
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
