// Package deck manages the content tree: decks, notes and the three
// cards every note is born with.
package deck

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type deckRepo interface {
	Create(ctx context.Context, deck *domain.Deck) (*domain.Deck, error)
	GetByID(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Deck, error)
	Update(ctx context.Context, deck *domain.Deck) (*domain.Deck, error)
	Delete(ctx context.Context, ownerID, deckID uuid.UUID) error
}

type noteRepo interface {
	// CreateWithCards persists the note and its cards in one statement
	// batch; all or nothing.
	CreateWithCards(ctx context.Context, note *domain.Note, cards []domain.Card) (*domain.Note, []domain.Card, error)
	GetByID(ctx context.Context, ownerID, noteID uuid.UUID) (*domain.Note, error)
	ListByDeck(ctx context.Context, ownerID, deckID uuid.UUID) ([]domain.Note, error)
	SetAudioKey(ctx context.Context, noteID uuid.UUID, key string) (*domain.Note, error)
	Delete(ctx context.Context, ownerID, noteID uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the deck and note business logic.
type Service struct {
	decks deckRepo
	notes noteRepo
	tx    txManager
	log   *slog.Logger

	now func() time.Time
}

// NewService creates a new deck service.
func NewService(log *slog.Logger, decks deckRepo, notes noteRepo, tx txManager) *Service {
	return &Service{
		decks: decks,
		notes: notes,
		tx:    tx,
		log:   log.With("service", "deck"),
		now:   time.Now,
	}
}
