// Package reviewevent implements the ReviewEvent repository using
// PostgreSQL. Events are append-only; there is no update or delete.
package reviewevent

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Repo provides review event persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new review event repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const eventColumns = `id, card_id, user_id, rating, reviewed_at, time_spent_ms, user_answer, recording_key`

const listSinceSQL = `
SELECT ` + eventColumns + `
FROM review_events
WHERE user_id = $1 AND reviewed_at > $2
ORDER BY reviewed_at, id
LIMIT $3`

const listByCardSQL = `
SELECT ` + eventColumns + `
FROM review_events
WHERE card_id = $1
ORDER BY reviewed_at, id`

const listByCardsSQL = `
SELECT ` + eventColumns + `
FROM review_events
WHERE card_id = ANY($1::uuid[])
ORDER BY card_id, reviewed_at, id`

const statsByCardsSQL = `
SELECT card_id, count(*), max(reviewed_at)
FROM review_events
WHERE card_id = ANY($1::uuid[])
GROUP BY card_id`

const countSinceSQL = `
SELECT count(*) FROM review_events
WHERE user_id = $1 AND reviewed_at > $2`

// InsertBatch appends events with ON CONFLICT (id) DO NOTHING and
// returns the ids that were actually written. Replayed ids are skipped
// silently; that is what makes client retries idempotent.
func (r *Repo) InsertBatch(ctx context.Context, events []domain.ReviewEvent) ([]uuid.UUID, error) {
	if len(events) == 0 {
		return nil, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	builder := psql.Insert("review_events").
		Columns("id", "card_id", "user_id", "rating", "reviewed_at",
			"time_spent_ms", "user_answer", "recording_key")
	for _, e := range events {
		builder = builder.Values(e.ID, e.CardID, e.UserID, int(e.Rating),
			e.ReviewedAt, e.TimeSpentMs, e.UserAnswer, e.RecordingKey)
	}
	sql, args, err := builder.
		Suffix("ON CONFLICT (id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert events: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("insert events: %w", err)
	}
	defer rows.Close()

	var inserted []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan inserted id: %w", err)
		}
		inserted = append(inserted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inserted ids: %w", err)
	}
	return inserted, nil
}

// ListSince returns a user's events with reviewed_at strictly after
// since, ordered by (reviewed_at, id).
func (r *Repo) ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.ReviewEvent, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listSinceSQL, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list events since: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("list events since: %w", err)
	}
	return events, nil
}

// ListByCard returns a card's full event stream in (reviewed_at, id)
// order.
func (r *Repo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByCardSQL, cardID)
	if err != nil {
		return nil, fmt.Errorf("list events by card: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("list events by card: %w", err)
	}
	return events, nil
}

// ListByCards returns the event streams of multiple cards keyed by card
// id, each in (reviewed_at, id) order.
func (r *Repo) ListByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error) {
	streams := make(map[uuid.UUID][]domain.ReviewEvent, len(cardIDs))
	if len(cardIDs) == 0 {
		return streams, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByCardsSQL, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("list events by cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		streams[e.CardID] = append(streams[e.CardID], *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return streams, nil
}

// StatsByCards returns the per-card event count and newest timestamp.
// Cards with no events are absent from the result.
func (r *Repo) StatsByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
	stats := make(map[uuid.UUID]domain.EventStats, len(cardIDs))
	if len(cardIDs) == 0 {
		return stats, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, statsByCardsSQL, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("event stats by cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cardID uuid.UUID
		var st domain.EventStats
		if err := rows.Scan(&cardID, &st.Count, &st.LastEventAt); err != nil {
			return nil, fmt.Errorf("scan event stats: %w", err)
		}
		stats[cardID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event stats: %w", err)
	}
	return stats, nil
}

// CountSince returns the number of a user's events with reviewed_at
// strictly after since.
func (r *Repo) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countSinceSQL, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events since: %w", err)
	}
	return count, nil
}

func scanEvent(rows pgx.Rows) (*domain.ReviewEvent, error) {
	var e domain.ReviewEvent
	var rating int
	if err := rows.Scan(&e.ID, &e.CardID, &e.UserID, &rating, &e.ReviewedAt,
		&e.TimeSpentMs, &e.UserAnswer, &e.RecordingKey); err != nil {
		return nil, err
	}
	e.Rating = domain.Rating(rating)
	return &e, nil
}

func scanEvents(rows pgx.Rows) ([]domain.ReviewEvent, error) {
	var events []domain.ReviewEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		events = []domain.ReviewEvent{}
	}
	return events, nil
}
