package sync

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
)

var syncNow = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	userID uuid.UUID
	deck   *domain.Deck
	card   domain.Card

	events   *eventRepoMock
	cards    *cardRepoMock
	decks    *deckRepoMock
	states   *stateRepoMock
	daily    *dailyRepoMock
	syncMeta *syncMetaRepoMock

	inserted []domain.ReviewEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{userID: uuid.New()}
	f.deck = &domain.Deck{ID: uuid.New(), OwnerID: f.userID, Name: "verbs"}
	f.card = domain.Card{ID: uuid.New(), NoteID: uuid.New(), DeckID: f.deck.ID}

	f.events = &eventRepoMock{
		InsertBatchFunc: func(_ context.Context, events []domain.ReviewEvent) ([]uuid.UUID, error) {
			var ids []uuid.UUID
			for _, e := range events {
				f.inserted = append(f.inserted, e)
				ids = append(ids, e.ID)
			}
			return ids, nil
		},
		StatsByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
			return map[uuid.UUID]domain.EventStats{}, nil
		},
		ListByCardFunc: func(_ context.Context, cardID uuid.UUID) ([]domain.ReviewEvent, error) {
			var out []domain.ReviewEvent
			for _, e := range f.inserted {
				if e.CardID == cardID {
					out = append(out, e)
				}
			}
			return out, nil
		},
	}
	f.cards = &cardRepoMock{
		ListOwnedFunc: func(_ context.Context, ownerID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]domain.Card, error) {
			out := map[uuid.UUID]domain.Card{}
			if ownerID != f.userID {
				return out, nil
			}
			for _, id := range cardIDs {
				if id == f.card.ID {
					out[id] = f.card
				}
			}
			return out, nil
		},
	}
	f.decks = &deckRepoMock{
		GetByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Deck, error) {
			return f.deck, nil
		},
	}
	f.states = &stateRepoMock{}
	f.daily = &dailyRepoMock{}
	f.syncMeta = &syncMetaRepoMock{
		GetFunc: func(_ context.Context, _ uuid.UUID) (*domain.SyncMetadata, error) {
			return nil, domain.ErrNotFound
		},
	}
	return f
}

func (f *fixture) service(t *testing.T) *Service {
	t.Helper()
	svc := NewService(
		slog.New(slog.DiscardHandler),
		f.events, f.cards, f.decks, f.states, f.daily, f.syncMeta,
		txManagerMock{},
		scheduler.DefaultParameters(),
	)
	svc.now = func() time.Time { return syncNow }
	return svc
}

func (f *fixture) event(at time.Time, rating domain.Rating) domain.ReviewEvent {
	return domain.ReviewEvent{
		ID:         uuid.New(),
		CardID:     f.card.ID,
		UserID:     f.userID,
		Rating:     rating,
		ReviewedAt: at,
	}
}

func TestAppendBatch_Empty(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	created, skipped, err := svc.AppendBatch(context.Background(), f.userID, nil)
	if err != nil || created != 0 || skipped != 0 {
		t.Fatalf("got (%d, %d, %v), want (0, 0, nil)", created, skipped, err)
	}
}

func TestAppendBatch_CreatesAndRefreshes(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	at := syncNow.Add(-time.Hour)
	created, skipped, err := svc.AppendBatch(context.Background(), f.userID, []domain.ReviewEvent{
		f.event(at, domain.RatingGood),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 1 || skipped != 0 {
		t.Errorf("got (%d, %d), want (1, 0)", created, skipped)
	}

	if len(f.syncMeta.advances) != 1 || !f.syncMeta.advances[0].Equal(at) {
		t.Errorf("sync cursor advances = %v, want [%v]", f.syncMeta.advances, at)
	}
	if len(f.daily.increments) != 1 || !f.daily.increments[0].Equal(domain.DayStartUTC(at)) {
		t.Errorf("daily increments = %v, want day of %v", f.daily.increments, at)
	}
	if len(f.states.upserts) != 1 {
		t.Fatalf("projection upserts = %d, want 1", len(f.states.upserts))
	}
	row := f.states.upserts[0]
	if row.CardID != f.card.ID || row.EventCount != 1 || row.AlgoVersion != scheduler.Version {
		t.Errorf("unexpected projection row: %+v", row)
	}
	if row.Queue != domain.QueueLearning {
		t.Errorf("queue = %s, want LEARNING after first Good", row.Queue)
	}
}

func TestAppendBatch_DuplicatesSkipped(t *testing.T) {
	f := newFixture(t)
	// Simulate ON CONFLICT DO NOTHING: nothing gets written.
	f.events.InsertBatchFunc = func(_ context.Context, _ []domain.ReviewEvent) ([]uuid.UUID, error) {
		return nil, nil
	}
	svc := f.service(t)

	created, skipped, err := svc.AppendBatch(context.Background(), f.userID, []domain.ReviewEvent{
		f.event(syncNow.Add(-time.Hour), domain.RatingGood),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 0 || skipped != 1 {
		t.Errorf("got (%d, %d), want (0, 1)", created, skipped)
	}
	if len(f.syncMeta.advances) != 0 {
		t.Error("all-duplicate batch must not move the cursor")
	}
	if len(f.daily.increments) != 0 {
		t.Error("all-duplicate batch must not touch daily counts")
	}
	if len(f.states.upserts) != 0 {
		t.Error("all-duplicate batch must not refresh projections")
	}
}

func TestAppendBatch_ForeignCardRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	good := f.event(syncNow.Add(-time.Hour), domain.RatingGood)
	foreign := good
	foreign.ID = uuid.New()
	foreign.CardID = uuid.New()

	_, _, err := svc.AppendBatch(context.Background(), f.userID, []domain.ReviewEvent{good, foreign})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if len(f.inserted) != 0 {
		t.Error("a rejected batch must not write any events")
	}
}

func TestAppendBatch_ValidationRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	bad := f.event(syncNow, domain.Rating(11))
	_, _, err := svc.AppendBatch(context.Background(), f.userID, []domain.ReviewEvent{bad})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestAppendBatch_MissingIDRejected(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	e := f.event(syncNow, domain.RatingGood)
	e.ID = uuid.Nil
	_, _, err := svc.AppendBatch(context.Background(), f.userID, []domain.ReviewEvent{e})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestAppendBatch_DailyCountOnlyForFirstReview(t *testing.T) {
	f := newFixture(t)
	// The card already has history; this batch is not an introduction.
	f.events.StatsByCardsFunc = func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
		return map[uuid.UUID]domain.EventStats{
			f.card.ID: {Count: 4, LastEventAt: syncNow.Add(-48 * time.Hour)},
		}, nil
	}
	svc := f.service(t)

	_, _, err := svc.AppendBatch(context.Background(), f.userID, []domain.ReviewEvent{
		f.event(syncNow.Add(-time.Hour), domain.RatingGood),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.daily.increments) != 0 {
		t.Error("reviewing a known card must not consume new-card budget")
	}
}

func TestAppendBatch_CursorTakesMaxTimestamp(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	early := f.event(syncNow.Add(-3*time.Hour), domain.RatingGood)
	late := f.event(syncNow.Add(-time.Hour), domain.RatingAgain)

	_, _, err := svc.AppendBatch(context.Background(), f.userID, []domain.ReviewEvent{late, early})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.syncMeta.advances) != 1 || !f.syncMeta.advances[0].Equal(late.ReviewedAt) {
		t.Errorf("cursor advanced to %v, want %v", f.syncMeta.advances, late.ReviewedAt)
	}
}

func TestEventsSince_Paging(t *testing.T) {
	f := newFixture(t)
	var stream []domain.ReviewEvent
	for i := range 5 {
		stream = append(stream, f.event(syncNow.Add(time.Duration(i)*time.Minute), domain.RatingGood))
	}
	f.events.ListSinceFunc = func(_ context.Context, _ uuid.UUID, _ time.Time, limit int) ([]domain.ReviewEvent, error) {
		if limit > len(stream) {
			limit = len(stream)
		}
		return stream[:limit], nil
	}
	svc := f.service(t)

	feed, err := svc.EventsSince(context.Background(), f.userID, time.Time{}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed.Events) != 3 {
		t.Errorf("page size = %d, want 3", len(feed.Events))
	}
	if !feed.HasMore {
		t.Error("expected hasMore with a longer stream")
	}
	if !feed.ServerTime.Equal(syncNow) {
		t.Errorf("serverTime = %v, want %v", feed.ServerTime, syncNow)
	}

	feed, err = svc.EventsSince(context.Background(), f.userID, time.Time{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.HasMore {
		t.Error("exhausted stream must report hasMore=false")
	}
}

func TestEventsForCard_OwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	_, err := svc.EventsForCard(context.Background(), f.userID, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCursor_NeverSyncedIsZero(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	meta, err := svc.Cursor(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !meta.LastEventAt.IsZero() {
		t.Errorf("LastEventAt = %v, want zero", meta.LastEventAt)
	}
}
