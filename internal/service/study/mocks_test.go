package study

// Hand-rolled mocks in the moq style: one struct per consumer interface,
// behavior injected through exported Func fields.

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

type deckRepoMock struct {
	GetByIDFunc   func(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error)
	ListByIDsFunc func(ctx context.Context, deckIDs []uuid.UUID) (map[uuid.UUID]domain.Deck, error)
}

func (m *deckRepoMock) GetByID(ctx context.Context, ownerID, deckID uuid.UUID) (*domain.Deck, error) {
	return m.GetByIDFunc(ctx, ownerID, deckID)
}

func (m *deckRepoMock) ListByIDs(ctx context.Context, deckIDs []uuid.UUID) (map[uuid.UUID]domain.Deck, error) {
	return m.ListByIDsFunc(ctx, deckIDs)
}

type cardRepoMock struct {
	GetForOwnerFunc func(ctx context.Context, ownerID, cardID uuid.UUID) (*domain.Card, error)
	ListByDeckFunc  func(ctx context.Context, ownerID, deckID uuid.UUID) ([]domain.Card, error)
	ListByIDsFunc   func(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error)
}

func (m *cardRepoMock) GetForOwner(ctx context.Context, ownerID, cardID uuid.UUID) (*domain.Card, error) {
	return m.GetForOwnerFunc(ctx, ownerID, cardID)
}

func (m *cardRepoMock) ListByDeck(ctx context.Context, ownerID, deckID uuid.UUID) ([]domain.Card, error) {
	return m.ListByDeckFunc(ctx, ownerID, deckID)
}

func (m *cardRepoMock) ListByIDs(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error) {
	return m.ListByIDsFunc(ctx, cardIDs)
}

type eventRepoMock struct {
	ListByCardFunc   func(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error)
	ListByCardsFunc  func(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error)
	StatsByCardsFunc func(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.EventStats, error)
}

func (m *eventRepoMock) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
	return m.ListByCardFunc(ctx, cardID)
}

func (m *eventRepoMock) ListByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error) {
	return m.ListByCardsFunc(ctx, cardIDs)
}

func (m *eventRepoMock) StatsByCards(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
	return m.StatsByCardsFunc(ctx, cardIDs)
}

type stateRepoMock struct {
	GetFunc                   func(ctx context.Context, cardID uuid.UUID) (*domain.CachedCardState, error)
	GetManyFunc               func(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.CachedCardState, error)
	UpsertFunc                func(ctx context.Context, state domain.CachedCardState) error
	ListCardIDsNotVersionFunc func(ctx context.Context, version string, limit int) ([]uuid.UUID, error)

	upserts []domain.CachedCardState
}

func (m *stateRepoMock) Get(ctx context.Context, cardID uuid.UUID) (*domain.CachedCardState, error) {
	return m.GetFunc(ctx, cardID)
}

func (m *stateRepoMock) GetMany(ctx context.Context, cardIDs []uuid.UUID) (map[uuid.UUID]domain.CachedCardState, error) {
	return m.GetManyFunc(ctx, cardIDs)
}

func (m *stateRepoMock) Upsert(ctx context.Context, state domain.CachedCardState) error {
	m.upserts = append(m.upserts, state)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, state)
	}
	return nil
}

func (m *stateRepoMock) ListCardIDsNotVersion(ctx context.Context, version string, limit int) ([]uuid.UUID, error) {
	return m.ListCardIDsNotVersionFunc(ctx, version, limit)
}

type dailyRepoMock struct {
	GetFunc func(ctx context.Context, userID, deckID uuid.UUID, day time.Time) (int, error)
}

func (m *dailyRepoMock) Get(ctx context.Context, userID, deckID uuid.UUID, day time.Time) (int, error) {
	return m.GetFunc(ctx, userID, deckID, day)
}

type eventAppenderMock struct {
	AppendBatchFunc func(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (int, int, error)

	appended []domain.ReviewEvent
}

func (m *eventAppenderMock) AppendBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (int, int, error) {
	m.appended = append(m.appended, events...)
	if m.AppendBatchFunc != nil {
		return m.AppendBatchFunc(ctx, userID, events)
	}
	return len(events), 0, nil
}
