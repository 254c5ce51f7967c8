package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/opentally/tasklist/internal/tasklist/domain"
)

type sessionTokensRepo struct {
	q querier
}

func (r *sessionTokensRepo) Add(ctx context.Context, t domain.SessionToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO session_tokens (user_id, token, purpose, created_at)
		VALUES (?, ?, ?, ?)`,
		t.UserID, t.Token, t.Purpose, t.CreatedAt,
	)
	return mapConflict(err)
}

func (r *sessionTokensRepo) Remove(ctx context.Context, userID, token string) error {
	// Deleting zero rows is fine; logout is idempotent.
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM session_tokens WHERE user_id = ? AND token = ?`,
		userID, token,
	)
	return err
}

func (r *sessionTokensRepo) Has(ctx context.Context, userID, token string) (bool, error) {
	// Probe on the (user_id, token) primary key.
	var one int
	err := r.q.QueryRowContext(ctx, `
		SELECT 1 FROM session_tokens WHERE user_id = ? AND token = ?`,
		userID, token,
	).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}

func (r *sessionTokensRepo) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM session_tokens WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionTokensRepo) ListByUser(ctx context.Context, userID string) ([]domain.SessionToken, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT user_id, token, purpose, created_at
		FROM session_tokens WHERE user_id = ?
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.SessionToken
	for rows.Next() {
		var t domain.SessionToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Purpose, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
