// Package card implements the Card repository using PostgreSQL.
// Cards carry no owner column; ownership resolves through the
// note-deck join, which also denormalizes deck_id onto the read model.
package card

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Repo provides card persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new card repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const cardColumns = `c.id, c.note_id, n.deck_id, c.type, c.created_at`

const getForOwnerSQL = `
SELECT ` + cardColumns + `
FROM cards c
JOIN notes n ON c.note_id = n.id
JOIN decks d ON n.deck_id = d.id
WHERE c.id = $1 AND d.owner_id = $2`

const listByDeckSQL = `
SELECT ` + cardColumns + `
FROM cards c
JOIN notes n ON c.note_id = n.id
JOIN decks d ON n.deck_id = d.id
WHERE n.deck_id = $1 AND d.owner_id = $2
ORDER BY c.created_at, c.id`

const listOwnedSQL = `
SELECT ` + cardColumns + `
FROM cards c
JOIN notes n ON c.note_id = n.id
JOIN decks d ON n.deck_id = d.id
WHERE c.id = ANY($1::uuid[]) AND d.owner_id = $2`

const listByIDsSQL = `
SELECT ` + cardColumns + `
FROM cards c
JOIN notes n ON c.note_id = n.id
WHERE c.id = ANY($1::uuid[])`

// GetForOwner returns a card by primary key, restricted to the owner of
// its deck. A card in another user's deck is domain.ErrNotFound.
func (r *Repo) GetForOwner(ctx context.Context, ownerID, cardID uuid.UUID) (*domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	card, err := scanCard(querier.QueryRow(ctx, getForOwnerSQL, cardID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get card %s: %w", cardID, err)
	}
	return card, nil
}

// ListByDeck returns a deck's cards, oldest first.
func (r *Repo) ListByDeck(ctx context.Context, ownerID, deckID uuid.UUID) ([]domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByDeckSQL, deckID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// ListOwned resolves the subset of cardIDs owned by the user, keyed by
// card id. Missing and foreign ids are simply absent from the result.
func (r *Repo) ListOwned(ctx context.Context, ownerID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error) {
	owned := make(map[uuid.UUID]domain.Card, len(cardIDs))
	if len(cardIDs) == 0 {
		return owned, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listOwnedSQL, cardIDs, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owned cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		owned[c.ID] = *c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return owned, nil
}

// ListByIDs resolves cards by id across all owners, keyed by card id.
// Maintenance paths (projection rebuild) use it; request paths go
// through the owner-scoped lookups above.
func (r *Repo) ListByIDs(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error) {
	cards := make(map[uuid.UUID]domain.Card, len(cardIDs))
	if len(cardIDs) == 0 {
		return cards, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByIDsSQL, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("list cards by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards[c.ID] = *c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var c domain.Card
	var cardType string
	if err := row.Scan(&c.ID, &c.NoteID, &c.DeckID, &cardType, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Type = domain.CardType(cardType)
	return &c, nil
}

func scanCards(rows pgx.Rows) ([]domain.Card, error) {
	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}
