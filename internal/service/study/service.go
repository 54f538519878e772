// Package study implements the review-session business logic: projecting
// card states from the event log, picking the next card to show, and
// recording server-side reviews.
package study

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type deckRepo interface {
	GetByID(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error)
	ListByIDs(ctx context.Context, deckIDs []uuid.UUID) (map[uuid.UUID]domain.Deck, error)
}

type cardRepo interface {
	GetForOwner(ctx context.Context, ownerID, cardID uuid.UUID) (*domain.Card, error)
	ListByDeck(ctx context.Context, ownerID, deckID uuid.UUID) ([]domain.Card, error)
	ListByIDs(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error)
}

type eventRepo interface {
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error)
	ListByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error)
	StatsByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.EventStats, error)
}

type stateRepo interface {
	Get(ctx context.Context, cardID uuid.UUID) (*domain.CachedCardState, error)
	GetMany(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.CachedCardState, error)
	Upsert(ctx context.Context, state domain.CachedCardState) error
	ListCardIDsNotVersion(ctx context.Context, version string, limit int) ([]uuid.UUID, error)
}

type dailyRepo interface {
	Get(ctx context.Context, userID, deckID uuid.UUID, day time.Time) (int, error)
}

// eventAppender is the single write path for review events. The sync
// service implements it; routing server-side reviews through it keeps
// idempotency, daily counts and the projection refresh in one place.
type eventAppender interface {
	AppendBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (created, skipped int, err error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the study business logic.
type Service struct {
	decks    deckRepo
	cards    cardRepo
	events   eventRepo
	states   stateRepo
	daily    dailyRepo
	appender eventAppender
	log      *slog.Logger

	defaults      scheduler.Parameters
	version       string
	defaultNewDay int

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time
}

// NewService creates a new study service. rng drives the selector's
// weighted choice; pass a seeded source for reproducible tests. A zero
// defaultNewCardsPerDay falls back to domain.DefaultNewCardsPerDay.
func NewService(
	log *slog.Logger,
	decks deckRepo,
	cards cardRepo,
	events eventRepo,
	states stateRepo,
	daily dailyRepo,
	appender eventAppender,
	defaults scheduler.Parameters,
	defaultNewCardsPerDay int,
	rng *rand.Rand,
) (*Service, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler parameters: %w", err)
	}
	if defaultNewCardsPerDay <= 0 {
		defaultNewCardsPerDay = domain.DefaultNewCardsPerDay
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		decks:         decks,
		cards:         cards,
		events:        events,
		states:        states,
		daily:         daily,
		appender:      appender,
		log:           log.With("service", "study"),
		defaults:      defaults,
		version:       scheduler.Version,
		defaultNewDay: defaultNewCardsPerDay,
		rng:           rng,
		now:           time.Now,
	}, nil
}

// deckParameters merges a deck's scheduling overrides onto the server
// defaults. Zero values mean "use the default".
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

func (s *Service) newCardsPerDay(deck *domain.Deck) int {
	if deck.Params.NewCardsPerDay > 0 {
		return deck.Params.NewCardsPerDay
	}
	return s.defaultNewDay
}

// pick runs the selector under the rng lock; rand.Rand is not safe for
// concurrent use.
func (s *Service) pick(cands []candidate, opts selectOptions, now time.Time) selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selectNext(cands, opts, s.rng, now)
}
