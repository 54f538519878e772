// Package deck implements the Deck repository using PostgreSQL.
package deck

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Repo provides deck persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new deck repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const deckColumns = `id, owner_id, name, description, weights, request_retention, new_cards_per_day, created_at, updated_at`

const createSQL = `
INSERT INTO decks (id, owner_id, name, description, weights, request_retention, new_cards_per_day, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING ` + deckColumns

const getByIDSQL = `
SELECT ` + deckColumns + `
FROM decks WHERE id = $1 AND owner_id = $2`

const listSQL = `
SELECT ` + deckColumns + `
FROM decks WHERE owner_id = $1
ORDER BY created_at, id`

const deleteSQL = `DELETE FROM decks WHERE id = $1 AND owner_id = $2`

const listByIDsSQL = `
SELECT ` + deckColumns + `
FROM decks WHERE id = ANY($1::uuid[])`

// Create inserts a new deck and returns the persisted row.
func (r *Repo) Create(ctx context.Context, deck *domain.Deck) (*domain.Deck, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := deck.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, createSQL,
		id, deck.OwnerID, deck.Name, deck.Description,
		deck.Params.Weights, deck.Params.RequestRetention, deck.Params.NewCardsPerDay, now)

	created, err := scanDeck(row)
	if err != nil {
		return nil, mapError(err, "deck", id)
	}
	return created, nil
}

// GetByID returns a deck by primary key filtered by owner.
func (r *Repo) GetByID(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	deck, err := scanDeck(querier.QueryRow(ctx, getByIDSQL, deckID, ownerID))
	if err != nil {
		return nil, mapError(err, "deck", deckID)
	}
	return deck, nil
}

// List returns all of an owner's decks, oldest first.
func (r *Repo) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Deck, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		decks = append(decks, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decks: %w", err)
	}

	if decks == nil {
		decks = []domain.Deck{}
	}
	return decks, nil
}

// ListByIDs resolves decks by id across all owners, keyed by deck id.
// Maintenance paths (projection rebuild) need deck scheduling params
// without an owner in hand.
func (r *Repo) ListByIDs(ctx context.Context, deckIDs []uuid.UUID) (map[uuid.UUID]domain.Deck, error) {
	decks := make(map[uuid.UUID]domain.Deck, len(deckIDs))
	if len(deckIDs) == 0 {
		return decks, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByIDsSQL, deckIDs)
	if err != nil {
		return nil, fmt.Errorf("list decks by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		decks[d.ID] = *d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decks: %w", err)
	}
	return decks, nil
}

// Update writes the deck's mutable fields. The service merges partial
// input into a loaded deck before calling this.
func (r *Repo) Update(ctx context.Context, deck *domain.Deck) (*domain.Deck, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Update("decks").
		Set("name", deck.Name).
		Set("description", deck.Description).
		Set("weights", deck.Params.Weights).
		Set("request_retention", deck.Params.RequestRetention).
		Set("new_cards_per_day", deck.Params.NewCardsPerDay).
		Set("updated_at", time.Now().UTC().Truncate(time.Microsecond)).
		Where(sq.Eq{"id": deck.ID, "owner_id": deck.OwnerID}).
		Suffix("RETURNING " + deckColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update deck: %w", err)
	}

	updated, err := scanDeck(querier.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapError(err, "deck", deck.ID)
	}
	return updated, nil
}

// Delete removes a deck and, via cascading foreign keys, its notes and
// cards. Returns domain.ErrNotFound when the deck does not exist or
// belongs to another user.
func (r *Repo) Delete(ctx context.Context, ownerID, deckID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, deckID, ownerID)
	if err != nil {
		return mapError(err, "deck", deckID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deck %s: %w", deckID, domain.ErrNotFound)
	}
	return nil
}

func scanDeck(row pgx.Row) (*domain.Deck, error) {
	var d domain.Deck
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Description,
		&d.Params.Weights, &d.Params.RequestRetention, &d.Params.NewCardsPerDay,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
