package sync

// Hand-rolled mocks in the moq style.

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

type eventRepoMock struct {
	InsertBatchFunc  func(ctx context.Context, events []domain.ReviewEvent) ([]uuid.UUID, error)
	ListSinceFunc    func(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.ReviewEvent, error)
	ListByCardFunc   func(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error)
	StatsByCardsFunc func(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.EventStats, error)
}

func (m *eventRepoMock) InsertBatch(ctx context.Context, events []domain.ReviewEvent) ([]uuid.UUID, error) {
	return m.InsertBatchFunc(ctx, events)
}

func (m *eventRepoMock) ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.ReviewEvent, error) {
	return m.ListSinceFunc(ctx, userID, since, limit)
}

func (m *eventRepoMock) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	return m.ListByCardFunc(ctx, cardID)
}

func (m *eventRepoMock) StatsByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
	return m.StatsByCardsFunc(ctx, cardIDs)
}

type cardRepoMock struct {
	ListOwnedFunc func(ctx context.Context, ownerID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error)
}

func (m *cardRepoMock) ListOwned(ctx context.Context, ownerID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error) {
	return m.ListOwnedFunc(ctx, ownerID, cardIDs)
}

type deckRepoMock struct {
	GetByIDFunc func(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error)
}

func (m *deckRepoMock) GetByID(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error) {
	return m.GetByIDFunc(ctx, ownerID, deckID)
}

type stateRepoMock struct {
	UpsertFunc func(ctx context.Context, state domain.CachedCardState) error

	upserts []domain.CachedCardState
}

func (m *stateRepoMock) Upsert(ctx context.Context, state domain.CachedCardState) error {
	m.upserts = append(m.upserts, state)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, state)
	}
	return nil
}

type dailyRepoMock struct {
	IncrementFunc func(ctx context.Context, userID, deckID uuid.UUID, day time.Time) error

	increments []time.Time
}

func (m *dailyRepoMock) Increment(ctx context.Context, userID, deckID uuid.UUID, day time.Time) error {
	m.increments = append(m.increments, day)
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, userID, deckID, day)
	}
	return nil
}

type syncMetaRepoMock struct {
	GetFunc     func(ctx context.Context, userID uuid.UUID) (*domain.SyncMetadata, error)
	AdvanceFunc func(ctx context.Context, userID uuid.UUID, lastEventAt time.Time) error

	advances []time.Time
}

func (m *syncMetaRepoMock) Get(ctx context.Context, userID uuid.UUID) (*domain.SyncMetadata, error) {
	return m.GetFunc(ctx, userID)
}

func (m *syncMetaRepoMock) Advance(ctx context.Context, userID uuid.UUID, lastEventAt time.Time) error {
	m.advances = append(m.advances, lastEventAt)
	if m.AdvanceFunc != nil {
		return m.AdvanceFunc(ctx, userID, lastEventAt)
	}
	return nil
}

// txManagerMock runs the function directly; transactionality is covered
// by the repository integration tests.
type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
