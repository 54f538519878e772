// Package session implements the Session repository using PostgreSQL.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Repo provides session persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new session repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const createSQL = `
INSERT INTO sessions (id, user_id, expires_at, created_at)
VALUES ($1, $2, $3, $4)`

const getSQL = `
SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = $1`

const deleteSQL = `DELETE FROM sessions WHERE id = $1`

const deleteByUserSQL = `DELETE FROM sessions WHERE user_id = $1`

const deleteExpiredSQL = `DELETE FROM sessions WHERE expires_at <= $1`

// Create inserts a session. The id is the opaque token itself.
func (r *Repo) Create(ctx context.Context, session *domain.Session) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := querier.Exec(ctx, createSQL,
		session.ID, session.UserID, session.ExpiresAt, createdAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns a session by token.
func (r *Repo) Get(ctx context.Context, id string) (*domain.Session, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var s domain.Session
	err := querier.QueryRow(ctx, getSQL, id).
		Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Delete removes a session by token. Deleting a missing session is
// domain.ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByUser removes all of a user's sessions.
func (r *Repo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, deleteByUserSQL, userID); err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now and
// returns the number of rows deleted.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteExpiredSQL, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
