package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
	"github.com/heartmarshall/lingocards-backend/internal/service/study"
)

// AppendBatch atomically persists a batch of review events. Events whose
// id already exists are skipped, so a retried upload converges to the
// same state. A single bad event (foreign card, corrupt rating, missing
// id) rejects the whole batch; the client fixes and resends.
//
// Everything downstream of the insert happens in the same transaction:
// the sync cursor advance, the daily introduction counters and the
// projection refresh.
func (s *Service) AppendBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (created, skipped int, err error) {
	if userID == uuid.Nil {
		return 0, 0, domain.ErrUnauthorized
	}
	if len(events) == 0 {
		return 0, 0, nil
	}

	if err := validateBatch(userID, events); err != nil {
		return 0, 0, err
	}

	cardIDs := distinctCardIDs(events)

	owned, err := s.cards.ListOwned(ctx, userID, cardIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve cards: %w", err)
	}
	for _, id := range cardIDs {
		if _, ok := owned[id]; !ok {
			return 0, 0, fmt.Errorf("card %s: %w", id, domain.ErrForbidden)
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		// Pre-insert counts decide which cards are introduced today.
		before, err := s.events.StatsByCards(txCtx, cardIDs)
		if err != nil {
			return fmt.Errorf("event stats: %w", err)
		}

		insertedIDs, err := s.events.InsertBatch(txCtx, events)
		if err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
		created = len(insertedIDs)
		skipped = len(events) - created

		if created == 0 {
			return nil
		}

		insertedSet := make(map[uuid.UUID]bool, len(insertedIDs))
		for _, id := range insertedIDs {
			insertedSet[id] = true
		}

		var maxAt time.Time
		firstReview := map[uuid.UUID]time.Time{}
		touched := map[uuid.UUID]bool{}
		for _, e := range events {
			if !insertedSet[e.ID] {
				continue
			}
			touched[e.CardID] = true
			if e.ReviewedAt.After(maxAt) {
				maxAt = e.ReviewedAt
			}
			if before[e.CardID].Count == 0 {
				if t, ok := firstReview[e.CardID]; !ok || e.ReviewedAt.Before(t) {
					firstReview[e.CardID] = e.ReviewedAt
				}
			}
		}

		for cardID, at := range firstReview {
			deckID := owned[cardID].DeckID
			if err := s.daily.Increment(txCtx, userID, deckID, domain.DayStartUTC(at)); err != nil {
				return fmt.Errorf("increment daily count: %w", err)
			}
		}

		if err := s.syncMeta.Advance(txCtx, userID, maxAt); err != nil {
			return fmt.Errorf("advance sync cursor: %w", err)
		}

		return s.refreshProjections(txCtx, userID, owned, touched)
	})
	if err != nil {
		return 0, 0, err
	}

	s.log.InfoContext(ctx, "batch appended",
		slog.Int("created", created), slog.Int("skipped", skipped))
	return created, skipped, nil
}

// refreshProjections re-folds every touched card and writes the cache
// row through, inside the append transaction.
func (s *Service) refreshProjections(ctx context.Context, userID uuid.UUID, owned map[uuid.UUID]domain.Card, touched map[uuid.UUID]bool) error {
	deckParams := map[uuid.UUID]scheduler.Parameters{}

	now := s.now()
	for cardID := range touched {
		deckID := owned[cardID].DeckID
		params, ok := deckParams[deckID]
		if !ok {
			deck, err := s.decks.GetByID(ctx, userID, deckID)
			if err != nil {
				return fmt.Errorf("get deck %s: %w", deckID, err)
			}
			params = s.deckParameters(deck)
			deckParams[deckID] = params
		}

		stream, err := s.events.ListByCard(ctx, cardID)
		if err != nil {
			return fmt.Errorf("list events for %s: %w", cardID, err)
		}

		state, err := study.ProjectState(params, stream)
		if err != nil {
			return err
		}
		state.CardID = cardID

		var lastAt time.Time
		for _, e := range stream {
			if e.ReviewedAt.After(lastAt) {
				lastAt = e.ReviewedAt
			}
		}

		row := domain.CachedCardState{
			ComputedCardState: state,
			EventCount:        len(stream),
			LastEventAt:       lastAt,
			AlgoVersion:       s.version,
			UpdatedAt:         now,
		}
		if err := s.states.Upsert(ctx, row); err != nil {
			return fmt.Errorf("upsert projection %s: %w", cardID, err)
		}
	}
	return nil
}

func validateBatch(userID uuid.UUID, events []domain.ReviewEvent) error {
	var errs []domain.FieldError
	for i, e := range events {
		switch {
		case e.ID == uuid.Nil:
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("events[%d].id", i),
				Message: "required",
			})
		case !e.Rating.IsValid():
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("events[%d].rating", i),
				Message: "must be 0, 1, 2, or 3",
			})
		case e.ReviewedAt.IsZero():
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("events[%d].reviewed_at", i),
				Message: "required",
			})
		case e.UserID != uuid.Nil && e.UserID != userID:
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("events[%d].user_id", i),
				Message: "must match the authenticated user",
			})
		case e.CardID == uuid.Nil:
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("events[%d].card_id", i),
				Message: "required",
			})
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func distinctCardIDs(events []domain.ReviewEvent) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(events))
	var ids []uuid.UUID
	for _, e := range events {
		if !seen[e.CardID] {
			seen[e.CardID] = true
			ids = append(ids, e.CardID)
		}
	}
	return ids
}
