// Package dailycount implements the per-day new card counter using
// PostgreSQL.
package dailycount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
)

// Repo provides daily count persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new daily count repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSQL = `
SELECT count FROM daily_counts
WHERE user_id = $1 AND deck_id = $2 AND day = $3`

const incrementSQL = `
INSERT INTO daily_counts (user_id, deck_id, day, count)
VALUES ($1, $2, $3, 1)
ON CONFLICT (user_id, deck_id, day)
DO UPDATE SET count = daily_counts.count + 1`

// Get returns the number of new cards introduced for the (user, deck)
// on the given UTC day. A missing row reads as zero.
func (r *Repo) Get(ctx context.Context, userID, deckID uuid.UUID, day time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	err := querier.QueryRow(ctx, getSQL, userID, deckID, day).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get daily count: %w", err)
	}
	return count, nil
}

// Increment upserts count = count + 1 for the (user, deck, day) row.
func (r *Repo) Increment(ctx context.Context, userID, deckID uuid.UUID, day time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, incrementSQL, userID, deckID, day); err != nil {
		return fmt.Errorf("increment daily count: %w", err)
	}
	return nil
}
