// Package syncmeta implements the per-user sync cursor repository
// using PostgreSQL.
package syncmeta

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

// Repo provides sync metadata persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new sync metadata repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSQL = `
SELECT user_id, last_event_at, updated_at
FROM sync_metadata WHERE user_id = $1`

// GREATEST keeps the cursor monotone under out-of-order appends.
const advanceSQL = `
INSERT INTO sync_metadata (user_id, last_event_at, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET
	last_event_at = GREATEST(sync_metadata.last_event_at, EXCLUDED.last_event_at),
	updated_at = EXCLUDED.updated_at`

// Get returns the user's cursor, or domain.ErrNotFound for a user who
// never appended an event.
func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (*domain.SyncMetadata, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var m domain.SyncMetadata
	err := querier.QueryRow(ctx, getSQL, userID).
		Scan(&m.UserID, &m.LastEventAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sync metadata %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get sync metadata: %w", err)
	}
	return &m, nil
}

// Advance moves the cursor forward, never backward.
func (r *Repo) Advance(ctx context.Context, userID uuid.UUID, lastEventAt time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := querier.Exec(ctx, advanceSQL, userID, lastEventAt, now); err != nil {
		return fmt.Errorf("advance sync cursor: %w", err)
	}
	return nil
}
