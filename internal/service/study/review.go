package study

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// ReviewOutput is the state after a recorded review, with previews for
// the next answer.
type ReviewOutput struct {
	Event    domain.ReviewEvent
	State    domain.ComputedCardState
	Previews [4]scheduler.IntervalPreview
}

// Review records a server-side review. The event gets a server-minted
// id and timestamp and flows through the same append path as synced
// batches, so idempotency, daily counts and the projection refresh
// behave identically for both origins.
func (s *Service) Review(ctx context.Context, input ReviewInput) (*ReviewOutput, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	card, err := s.cards.GetForOwner(ctx, userID, input.CardID)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	deck, err := s.decks.GetByID(ctx, userID, card.DeckID)
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	params := s.deckParameters(deck)

	now := s.now()
	event := domain.ReviewEvent{
		ID:          uuid.New(),
		CardID:      card.ID,
		UserID:      userID,
		Rating:      input.Rating,
		ReviewedAt:  now,
		TimeSpentMs: input.TimeSpentMs,
		UserAnswer:  input.UserAnswer,
	}

	created, _, err := s.appender.AppendBatch(ctx, userID, []domain.ReviewEvent{event})
	if err != nil {
		return nil, fmt.Errorf("append review: %w", err)
	}
	if created != 1 {
		// A fresh uuid cannot collide; a zero insert means the append
		// path silently dropped the event.
		return nil, fmt.Errorf("review event %s not persisted: %w", event.ID, domain.ErrConflict)
	}

	state, err := s.ProjectCard(ctx, params, card.ID)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "review recorded",
		"card_id", card.ID.String(),
		"rating", input.Rating.String(),
		"queue", string(state.Queue),
	)

	return &ReviewOutput{
		Event:    event,
		State:    state,
		Previews: scheduler.Preview(params, state, now),
	}, nil
}
