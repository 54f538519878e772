package deck

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// CreateDeck creates an empty deck owned by the calling user.
func (s *Service) CreateDeck(ctx context.Context, input CreateDeckInput) (*domain.Deck, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	deck, err := s.decks.Create(ctx, &domain.Deck{
		OwnerID:     userID,
		Name:        input.Name,
		Description: input.Description,
		Params:      input.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("create deck: %w", err)
	}

	s.log.InfoContext(ctx, "deck created", "deck_id", deck.ID.String())
	return deck, nil
}

// GetDeck returns an owned deck.
func (s *Service) GetDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if deckID == uuid.Nil {
		return nil, domain.NewValidationError("deck_id", "required")
	}

	deck, err := s.decks.GetByID(ctx, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	return deck, nil
}

// ListDecks returns all decks of the calling user.
func (s *Service) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	decks, err := s.decks.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	return decks, nil
}

// UpdateDeck applies a partial update to an owned deck.
func (s *Service) UpdateDeck(ctx context.Context, input UpdateDeckInput) (*domain.Deck, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	deck, err := s.decks.GetByID(ctx, userID, input.DeckID)
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}

	if input.Name != nil {
		deck.Name = *input.Name
	}
	if input.Description != nil {
		deck.Description = *input.Description
	}
	if input.Params != nil {
		deck.Params = *input.Params
	}

	updated, err := s.decks.Update(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("update deck: %w", err)
	}

	s.log.InfoContext(ctx, "deck updated", "deck_id", deck.ID.String())
	return updated, nil
}

// DeleteDeck removes an owned deck with its notes, cards and events.
func (s *Service) DeleteDeck(ctx context.Context, deckID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if deckID == uuid.Nil {
		return domain.NewValidationError("deck_id", "required")
	}

	if err := s.decks.Delete(ctx, userID, deckID); err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}

	s.log.InfoContext(ctx, "deck deleted", "deck_id", deckID.String())
	return nil
}
