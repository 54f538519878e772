package study

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// NextCardOutput is the payload for one step of a review session.
type NextCardOutput struct {
	// Card is nil when the session is done for today.
	Card            *domain.Card
	State           domain.ComputedCardState
	Counts          QueueCounts
	Previews        [4]scheduler.IntervalPreview
	HasMoreNewCards bool
}

// NextCard picks the card the user should study next in a deck.
func (s *Service) NextCard(ctx context.Context, input NextCardInput) (*NextCardOutput, error) {
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
	params := s.deckParameters(deck)

	cards, err := s.cards.ListByDeck(ctx, userID, input.DeckID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	cardIDs := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		cardIDs[i] = c.ID
	}
	states, err := s.projectMany(ctx, params, cardIDs)
	if err != nil {
		return nil, err
	}

	cands := make([]candidate, len(cards))
	for i, c := range cards {
		cands[i] = candidate{card: c, state: states[c.ID]}
	}

	now := s.now()
	introduced, err := s.daily.Get(ctx, userID, input.DeckID, domain.DayStartUTC(now))
	if err != nil {
		return nil, fmt.Errorf("get daily count: %w", err)
	}

	exclude := make(map[uuid.UUID]bool, len(input.ExcludeNoteIDs))
	for _, id := range input.ExcludeNoteIDs {
		exclude[id] = true
	}

	sel := s.pick(cands, selectOptions{
		excludeNotes:     exclude,
		newBudget:        s.newCardsPerDay(deck) - introduced,
		ignoreDailyLimit: input.IgnoreDailyLimit,
	}, now)

	out := &NextCardOutput{
		Counts:          sel.counts,
		HasMoreNewCards: sel.hasMoreNewCards,
	}
	if sel.card != nil {
		card := sel.card.card
		out.Card = &card
		out.State = sel.card.state
		out.Previews = scheduler.Preview(params, sel.card.state, now)
	}
	return out, nil
}

// CardState returns the projected state of one owned card.
func (s *Service) CardState(ctx context.Context, input CardStateInput) (domain.ComputedCardState, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ComputedCardState{}, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return domain.ComputedCardState{}, err
	}

	card, err := s.cards.GetForOwner(ctx, userID, input.CardID)
	if err != nil {
		return domain.ComputedCardState{}, fmt.Errorf("get card: %w", err)
	}

	deck, err := s.decks.GetByID(ctx, userID, card.DeckID)
	if err != nil {
		return domain.ComputedCardState{}, fmt.Errorf("get deck: %w", err)
	}

	return s.ProjectCard(ctx, s.deckParameters(deck), card.ID)
}
