// Package note implements the Note repository using PostgreSQL.
// Ownership checks go through the deck join; notes have no owner column.
package note

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Repo provides note persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new note repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const noteColumns = `n.id, n.deck_id, n.form, n.phonetic, n.gloss, n.annotations, n.audio_key, n.created_at`

const insertNoteSQL = `
INSERT INTO notes (id, deck_id, form, phonetic, gloss, annotations, audio_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertCardSQL = `
INSERT INTO cards (id, note_id, type, created_at)
VALUES ($1, $2, $3, $4)`

const getByIDSQL = `
SELECT ` + noteColumns + `
FROM notes n
JOIN decks d ON n.deck_id = d.id
WHERE n.id = $1 AND d.owner_id = $2`

const listByDeckSQL = `
SELECT ` + noteColumns + `
FROM notes n
JOIN decks d ON n.deck_id = d.id
WHERE n.deck_id = $1 AND d.owner_id = $2
ORDER BY n.created_at, n.id`

const setAudioKeySQL = `
UPDATE notes SET audio_key = $2 WHERE id = $1
RETURNING id, deck_id, form, phonetic, gloss, annotations, audio_key, created_at`

const deleteSQL = `
DELETE FROM notes n
USING decks d
WHERE n.id = $1 AND n.deck_id = d.id AND d.owner_id = $2`

// CreateWithCards inserts the note and its cards in one statement
// batch. Callers run it inside a transaction so the insert is all or
// nothing.
func (r *Repo) CreateWithCards(ctx context.Context, note *domain.Note, cards []domain.Card) (*domain.Note, []domain.Card, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	created := *note
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = now

	batch := &pgx.Batch{}
	batch.Queue(insertNoteSQL,
		created.ID, created.DeckID, created.Form, created.Phonetic,
		created.Gloss, created.Annotations, created.AudioKey, now)

	createdCards := make([]domain.Card, len(cards))
	for i, c := range cards {
		cp := c
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		cp.NoteID = created.ID
		cp.DeckID = created.DeckID
		cp.CreatedAt = now
		createdCards[i] = cp
		batch.Queue(insertCardSQL, cp.ID, cp.NoteID, cp.Type.String(), now)
	}

	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return nil, nil, mapError(err, "note", created.ID)
		}
	}

	return &created, createdCards, nil
}

// GetByID returns a note by primary key filtered by deck owner.
func (r *Repo) GetByID(ctx context.Context, ownerID, noteID uuid.UUID) (*domain.Note, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	note, err := scanNote(querier.QueryRow(ctx, getByIDSQL, noteID, ownerID))
	if err != nil {
		return nil, mapError(err, "note", noteID)
	}
	return note, nil
}

// ListByDeck returns a deck's notes, oldest first.
func (r *Repo) ListByDeck(ctx context.Context, ownerID, deckID uuid.UUID) ([]domain.Note, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByDeckSQL, deckID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	if notes == nil {
		notes = []domain.Note{}
	}
	return notes, nil
}

// SetAudioKey stores the opaque blob key on a note. Ownership is the
// caller's responsibility.
func (r *Repo) SetAudioKey(ctx context.Context, noteID uuid.UUID, key string) (*domain.Note, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	note, err := scanNote(querier.QueryRow(ctx, setAudioKeySQL, noteID, key))
	if err != nil {
		return nil, mapError(err, "note", noteID)
	}
	return note, nil
}

// Delete removes a note and, via cascade, its cards. Returns
// domain.ErrNotFound when the note does not exist or the deck belongs
// to another user.
func (r *Repo) Delete(ctx context.Context, ownerID, noteID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, noteID, ownerID)
	if err != nil {
		return mapError(err, "note", noteID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("note %s: %w", noteID, domain.ErrNotFound)
	}
	return nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	if err := row.Scan(&n.ID, &n.DeckID, &n.Form, &n.Phonetic,
		&n.Gloss, &n.Annotations, &n.AudioKey, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
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
