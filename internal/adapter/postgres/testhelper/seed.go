package testhelper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// SeedUser inserts a user with a unique email and returns it.
func SeedUser(t *testing.T, pool *pgxpool.Pool) *domain.User {
	t.Helper()

	u := &domain.User{
		ID:           uuid.New(),
		Name:         "Seed User",
		PasswordHash: "$2a$04$seedseedseedseedseedsexxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	u.Email = fmt.Sprintf("seed-%s@example.com", u.ID.String()[:8])

	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, name, password_hash, is_admin, role_tag, created_at)
		VALUES ($1, $2, $3, $4, false, '', $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedDeck inserts a deck for the owner and returns it.
func SeedDeck(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID) *domain.Deck {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	d := &domain.Deck{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      "seed deck",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO decks (id, owner_id, name, description, weights, request_retention, new_cards_per_day, created_at, updated_at)
		VALUES ($1, $2, $3, '', NULL, 0, 0, $4, $4)`,
		d.ID, d.OwnerID, d.Name, now)
	if err != nil {
		t.Fatalf("seed deck: %v", err)
	}
	return d
}

// SeedNoteWithCards inserts a note and its three cards and returns
// them. Card DeckID is populated the way the card repository reads it.
func SeedNoteWithCards(t *testing.T, pool *pgxpool.Pool, deckID uuid.UUID) (*domain.Note, []domain.Card) {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	n := &domain.Note{
		ID:        uuid.New(),
		DeckID:    deckID,
		Form:      "seed form",
		Gloss:     "seed gloss",
		CreatedAt: now,
	}

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO notes (id, deck_id, form, phonetic, gloss, annotations, audio_key, created_at)
		VALUES ($1, $2, $3, '', $4, '', '', $5)`,
		n.ID, n.DeckID, n.Form, n.Gloss, now)
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}

	var cards []domain.Card
	for _, ct := range domain.AllCardTypes() {
		c := domain.Card{
			ID:        uuid.New(),
			NoteID:    n.ID,
			DeckID:    deckID,
			Type:      ct,
			CreatedAt: now,
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO cards (id, note_id, type, created_at)
			VALUES ($1, $2, $3, $4)`,
			c.ID, c.NoteID, c.Type.String(), now)
		if err != nil {
			t.Fatalf("seed card: %v", err)
		}
		cards = append(cards, c)
	}
	return n, cards
}
