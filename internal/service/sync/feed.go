package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Feed is one page of the change feed.
type Feed struct {
	Events     []domain.ReviewEvent
	HasMore    bool
	ServerTime time.Time
}

// EventsSince returns the user's events with reviewed_at strictly after
// since, ordered by (reviewed_at, id). ServerTime lets the client set
// its next cursor without trusting its own clock.
func (s *Service) EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) (*Feed, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > DefaultFeedLimit {
		limit = DefaultFeedLimit
	}

	// One extra row decides hasMore without a count query.
	events, err := s.events.ListSince(ctx, userID, since, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	feed := &Feed{ServerTime: s.now()}
	if len(events) > limit {
		feed.Events = events[:limit]
		feed.HasMore = true
	} else {
		feed.Events = events
	}
	return feed, nil
}

// EventsForCard returns the full ascending event stream of one owned card.
func (s *Service) EventsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	if cardID == uuid.Nil {
		return nil, domain.NewValidationError("card_id", "required")
	}

	owned, err := s.cards.ListOwned(ctx, userID, []uuid.UUID{cardID})
	if err != nil {
		return nil, fmt.Errorf("resolve card: %w", err)
	}
	if _, ok := owned[cardID]; !ok {
		return nil, domain.ErrNotFound
	}

	events, err := s.events.ListByCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Cursor returns the user's sync metadata; a user who never synced gets
// a zero cursor rather than an error.
func (s *Service) Cursor(ctx context.Context, userID uuid.UUID) (*domain.SyncMetadata, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}

	meta, err := s.syncMeta.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.SyncMetadata{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get sync metadata: %w", err)
	}
	return meta, nil
}
