// Package sync owns the review-event log: the idempotent batch append
// used by both offline clients and the server-side review path, and the
// change feed clients poll to catch up.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
)

// DefaultFeedLimit caps a single EventsSince page. Requests asking for
// more are clamped, not rejected.
const DefaultFeedLimit = 1000

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type eventRepo interface {
	// InsertBatch inserts with ON CONFLICT (id) DO NOTHING and returns
	// the ids that were actually written.
	InsertBatch(ctx context.Context, events []domain.ReviewEvent) ([]uuid.UUID, error)
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.ReviewEvent, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error)
	StatsByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.EventStats, error)
}

type cardRepo interface {
	// ListOwned resolves the subset of cardIDs owned by the user,
	// keyed by card id.
	ListOwned(ctx context.Context, ownerID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error)
}

type deckRepo interface {
	GetByID(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error)
}

type stateRepo interface {
	Upsert(ctx context.Context, state domain.CachedCardState) error
}

type dailyRepo interface {
	// Increment upserts count = count + 1 for the (user, deck, day) row.
	Increment(ctx context.Context, userID, deckID uuid.UUID, day time.Time) error
}

type syncMetaRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.SyncMetadata, error)
	// Advance moves LastEventAt forward, never backward.
	Advance(ctx context.Context, userID uuid.UUID, lastEventAt time.Time) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the event-log business logic.
type Service struct {
	events   eventRepo
	cards    cardRepo
	decks    deckRepo
	states   stateRepo
	daily    dailyRepo
	syncMeta syncMetaRepo
	tx       txManager
	log      *slog.Logger

	defaults scheduler.Parameters
	version  string

	now func() time.Time
}

// NewService creates a new sync service.
func NewService(
	log *slog.Logger,
	events eventRepo,
	cards cardRepo,
	decks deckRepo,
	states stateRepo,
	daily dailyRepo,
	syncMeta syncMetaRepo,
	tx txManager,
	defaults scheduler.Parameters,
) *Service {
	return &Service{
		events:   events,
		cards:    cards,
		decks:    decks,
		states:   states,
		daily:    daily,
		syncMeta: syncMeta,
		tx:       tx,
		log:      log.With("service", "sync"),
		defaults: defaults,
		version:  scheduler.Version,
		now:      time.Now,
	}
}

func (s *Service) deckParameters(deck *domain.Deck) scheduler.Parameters {
	params := s.defaults
	if len(deck.Params.Weights) == scheduler.WeightCount {
		params.W = deck.Params.Weights
	}
	if deck.Params.RequestRetention > 0 {
		params.RequestRetention = deck.Params.RequestRetention
	}
	return params
}
