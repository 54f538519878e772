// Package cardstate implements the projection cache repository using
// PostgreSQL. Rows are disposable; the event log is the source of truth.
package cardstate

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

// Repo provides projection cache persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new card state repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const stateColumns = `card_id, queue, step, stability, difficulty, scheduled_days,
reps, lapses, last_reviewed, due, event_count, last_event_at, algo_version, updated_at`

const getSQL = `
SELECT ` + stateColumns + `
FROM card_states WHERE card_id = $1`

const getManySQL = `
SELECT ` + stateColumns + `
FROM card_states WHERE card_id = ANY($1::uuid[])`

const upsertSQL = `
INSERT INTO card_states (card_id, queue, step, stability, difficulty, scheduled_days,
	reps, lapses, last_reviewed, due, event_count, last_event_at, algo_version, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (card_id) DO UPDATE SET
	queue = EXCLUDED.queue,
	step = EXCLUDED.step,
	stability = EXCLUDED.stability,
	difficulty = EXCLUDED.difficulty,
	scheduled_days = EXCLUDED.scheduled_days,
	reps = EXCLUDED.reps,
	lapses = EXCLUDED.lapses,
	last_reviewed = EXCLUDED.last_reviewed,
	due = EXCLUDED.due,
	event_count = EXCLUDED.event_count,
	last_event_at = EXCLUDED.last_event_at,
	algo_version = EXCLUDED.algo_version,
	updated_at = EXCLUDED.updated_at`

const listNotVersionSQL = `
SELECT card_id FROM card_states
WHERE algo_version != $1
ORDER BY card_id
LIMIT $2`

// Get returns one projection row, or domain.ErrNotFound when the card
// was never projected.
func (r *Repo) Get(ctx context.Context, cardID uuid.UUID) (*domain.CachedCardState, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	state, err := scanState(querier.QueryRow(ctx, getSQL, cardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("card state %s: %w", cardID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get card state: %w", err)
	}
	return state, nil
}

// GetMany returns the projection rows for the given cards keyed by card
// id. Never-projected cards are absent from the result.
func (r *Repo) GetMany(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.CachedCardState, error) {
	states := make(map[uuid.UUID]domain.CachedCardState, len(cardIDs))
	if len(cardIDs) == 0 {
		return states, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getManySQL, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("get card states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card state: %w", err)
		}
		states[state.CardID] = *state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card states: %w", err)
	}
	return states, nil
}

// Upsert writes a projection row, replacing any previous one.
func (r *Repo) Upsert(ctx context.Context, state domain.CachedCardState) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := querier.Exec(ctx, upsertSQL,
		state.CardID, state.Queue.String(), state.Step, state.Stability,
		state.Difficulty, state.ScheduledDays, state.Reps, state.Lapses,
		state.LastReviewed, state.Due, state.EventCount, state.LastEventAt,
		state.AlgoVersion, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert card state: %w", err)
	}
	return nil
}

// ListCardIDsNotVersion returns up to limit card ids whose projection
// was written by a different algorithm version.
func (r *Repo) ListCardIDsNotVersion(ctx context.Context, version string, limit int) ([]uuid.UUID, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listNotVersionSQL, version, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale card states: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card ids: %w", err)
	}
	return ids, nil
}

func scanState(row pgx.Row) (*domain.CachedCardState, error) {
	var s domain.CachedCardState
	var queue string
	if err := row.Scan(&s.CardID, &queue, &s.Step, &s.Stability, &s.Difficulty,
		&s.ScheduledDays, &s.Reps, &s.Lapses, &s.LastReviewed, &s.Due,
		&s.EventCount, &s.LastEventAt, &s.AlgoVersion, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Queue = domain.Queue(queue)
	return &s, nil
}
