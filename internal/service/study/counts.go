package study

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// DeckCountsFor computes a student's queue counts for one deck. Callers
// prove their access by holding the tutor-side capability handle; the
// student id comes from the handle, never from the request.
func (s *Service) DeckCountsFor(ctx context.Context, view domain.TutorView, deckID uuid.UUID) (QueueCounts, error) {
	return s.countsForUser(ctx, view.StudentID, deckID)
}

// DeckCounts computes the calling user's own queue counts for a deck.
func (s *Service) DeckCounts(ctx context.Context, userID, deckID uuid.UUID) (QueueCounts, error) {
	return s.countsForUser(ctx, userID, deckID)
}

func (s *Service) countsForUser(ctx context.Context, userID, deckID uuid.UUID) (QueueCounts, error) {
	deck, err := s.decks.GetByID(ctx, userID, deckID)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("get deck: %w", err)
	}
	params := s.deckParameters(deck)

	cards, err := s.cards.ListByDeck(ctx, userID, deckID)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("list cards: %w", err)
	}

	cardIDs := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		cardIDs[i] = c.ID
	}
	states, err := s.projectMany(ctx, params, cardIDs)
	if err != nil {
		return QueueCounts{}, err
	}

	now := s.now()
	introduced, err := s.daily.Get(ctx, userID, deckID, domain.DayStartUTC(now))
	if err != nil {
		return QueueCounts{}, fmt.Errorf("get daily count: %w", err)
	}

	counts := tallyCounts(cards, states, now)
	counts.New = min(counts.New, max(0, s.newCardsPerDay(deck)-introduced))
	return counts, nil
}

// tallyCounts buckets cards the same way the selector does, without
// consuming randomness.
func tallyCounts(cards []domain.Card, states map[uuid.UUID]domain.ComputedCardState, now time.Time) QueueCounts {
	dayEnd := domain.DayEndUTC(now)

	var counts QueueCounts
	for _, c := range cards {
		st := states[c.ID]
		switch {
		case st.Queue == domain.QueueNew:
			counts.New++
		case st.Queue.IsLearning():
			if st.Due.Before(dayEnd) {
				counts.Learning++
			}
		case st.Queue == domain.QueueReview:
			if st.IsDue(now) || st.Due.Before(dayEnd) {
				counts.Review++
			}
		}
	}
	return counts
}
