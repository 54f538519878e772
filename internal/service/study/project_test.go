package study

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
)

var projNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func testService(t *testing.T, decks deckRepo, cards cardRepo, events eventRepo, states stateRepo, daily dailyRepo, appender eventAppender) *Service {
	t.Helper()
	svc, err := NewService(
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
		decks, cards, events, states, daily, appender,
		scheduler.DefaultParameters(),
		0,
		rand.New(rand.NewSource(1)),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return projNow }
	return svc
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func mkEvent(cardID uuid.UUID, rating domain.Rating, at time.Time) domain.ReviewEvent {
	return domain.ReviewEvent{
		ID:         uuid.New(),
		CardID:     cardID,
		UserID:     uuid.New(),
		Rating:     rating,
		ReviewedAt: at,
	}
}

func TestProjectState_Empty(t *testing.T) {
	state, err := ProjectState(scheduler.DefaultParameters(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Queue != domain.QueueNew {
		t.Errorf("queue = %s, want NEW", state.Queue)
	}
}

func TestProjectState_OrderIndependentInput(t *testing.T) {
	params := scheduler.DefaultParameters()
	cardID := uuid.New()

	base := projNow.Add(-72 * time.Hour)
	events := []domain.ReviewEvent{
		mkEvent(cardID, domain.RatingGood, base),
		mkEvent(cardID, domain.RatingGood, base.Add(10*time.Minute)),
		mkEvent(cardID, domain.RatingAgain, base.Add(48*time.Hour)),
	}

	forward, err := ProjectState(params, events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reversed := []domain.ReviewEvent{events[2], events[0], events[1]}
	backward, err := ProjectState(params, reversed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Errorf("projection depends on input order (-forward +backward):\n%s", diff)
	}
}

func TestProjectState_TimestampTiesBreakByID(t *testing.T) {
	params := scheduler.DefaultParameters()
	cardID := uuid.New()
	at := projNow.Add(-time.Hour)

	a := mkEvent(cardID, domain.RatingGood, at)
	b := mkEvent(cardID, domain.RatingAgain, at)

	s1, err := ProjectState(params, []domain.ReviewEvent{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2, err := ProjectState(params, []domain.ReviewEvent{b, a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s1.Stability != s2.Stability || s1.Queue != s2.Queue {
		t.Error("tied timestamps must resolve by id, independent of input order")
	}
}

func TestProjectState_RejectsCorruptRating(t *testing.T) {
	cardID := uuid.New()
	bad := mkEvent(cardID, domain.Rating(9), projNow.Add(-time.Hour))
	if _, err := ProjectState(scheduler.DefaultParameters(), []domain.ReviewEvent{bad}); err == nil {
		t.Fatal("expected error for corrupt rating")
	}
}

func TestProjectionIsALeftFold(t *testing.T) {
	// Folding all events at once must equal folding incrementally. This
	// is the law that makes the projection cache sound.
	params := scheduler.DefaultParameters()

	cfg := gopter.DefaultTestParameters()
	cfg.MinSuccessfulTests = 100
	cfg.Rng.Seed(7)
	properties := gopter.NewProperties(cfg)

	properties.Property("whole-stream fold equals incremental fold", prop.ForAll(
		func(raw []int) bool {
			cardID := uuid.New()
			at := projNow.Add(-time.Duration(len(raw)+1) * 24 * time.Hour)

			var events []domain.ReviewEvent
			for _, r := range raw {
				events = append(events, mkEvent(cardID, domain.Rating(r), at))
				at = at.Add(24 * time.Hour)
			}

			whole, err := ProjectState(params, events)
			if err != nil {
				return false
			}

			incremental := scheduler.InitialState(params)
			for _, e := range events {
				next, err := scheduler.Apply(params, incremental, e.Rating, e.ReviewedAt)
				if err != nil {
					return false
				}
				incremental = next
			}

			return cmp.Equal(whole, incremental)
		},
		gen.SliceOfN(10, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}

func TestProjectMany_ServesValidCache(t *testing.T) {
	cardID := uuid.New()
	lastAt := projNow.Add(-time.Hour)

	cachedRow := domain.CachedCardState{
		ComputedCardState: domain.ComputedCardState{
			CardID: cardID,
			Queue:  domain.QueueReview,
			Due:    projNow.Add(48 * time.Hour),
		},
		EventCount:  3,
		LastEventAt: lastAt,
		AlgoVersion: scheduler.Version,
	}

	events := &eventRepoMock{
		StatsByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
			return map[uuid.UUID]domain.EventStats{cardID: {Count: 3, LastEventAt: lastAt}}, nil
		},
		ListByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error) {
			t.Fatal("valid cache must not trigger an event read")
			return nil, nil
		},
	}
	states := &stateRepoMock{
		GetManyFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.CachedCardState, error) {
			return map[uuid.UUID]domain.CachedCardState{cardID: cachedRow}, nil
		},
	}

	svc := testService(t, nil, nil, events, states, nil, nil)

	got, err := svc.projectMany(context.Background(), scheduler.DefaultParameters(), []uuid.UUID{cardID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[cardID].Queue != domain.QueueReview {
		t.Errorf("queue = %s, want cached REVIEW", got[cardID].Queue)
	}
	if len(states.upserts) != 0 {
		t.Errorf("valid cache caused %d write-throughs", len(states.upserts))
	}
}

func TestProjectMany_ReprojectsStaleVersion(t *testing.T) {
	cardID := uuid.New()
	lastAt := projNow.Add(-time.Hour)
	stream := []domain.ReviewEvent{mkEvent(cardID, domain.RatingGood, lastAt)}

	staleRow := domain.CachedCardState{
		ComputedCardState: domain.ComputedCardState{CardID: cardID, Queue: domain.QueueReview},
		EventCount:        1,
		LastEventAt:       lastAt,
		AlgoVersion:       "fsrs-obsolete",
	}

	events := &eventRepoMock{
		StatsByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
			return map[uuid.UUID]domain.EventStats{cardID: {Count: 1, LastEventAt: lastAt}}, nil
		},
		ListByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error) {
			return map[uuid.UUID][]domain.ReviewEvent{cardID: stream}, nil
		},
	}
	states := &stateRepoMock{
		GetManyFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.CachedCardState, error) {
			return map[uuid.UUID]domain.CachedCardState{cardID: staleRow}, nil
		},
	}

	svc := testService(t, nil, nil, events, states, nil, nil)

	got, err := svc.projectMany(context.Background(), scheduler.DefaultParameters(), []uuid.UUID{cardID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[cardID].Queue != domain.QueueLearning {
		t.Errorf("queue = %s, want re-projected LEARNING", got[cardID].Queue)
	}
	if len(states.upserts) != 1 {
		t.Fatalf("expected one write-through, got %d", len(states.upserts))
	}
	if v := states.upserts[0].AlgoVersion; v != scheduler.Version {
		t.Errorf("write-through version = %q, want %q", v, scheduler.Version)
	}
}

func TestRebuildProjections_UsesDeckParameters(t *testing.T) {
	cardID := uuid.New()
	deckID := uuid.New()
	lastAt := projNow.Add(-time.Hour)
	stream := []domain.ReviewEvent{mkEvent(cardID, domain.RatingEasy, lastAt)}

	weights := append([]float64(nil), scheduler.DefaultWeights...)
	weights[3] = 30 // initial stability for Easy
	deck := domain.Deck{
		ID: deckID,
		Params: domain.SchedulingParams{
			Weights:          weights,
			RequestRetention: 0.8,
		},
	}

	events := &eventRepoMock{
		StatsByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
			return map[uuid.UUID]domain.EventStats{cardID: {Count: 1, LastEventAt: lastAt}}, nil
		},
		ListByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]domain.ReviewEvent, error) {
			return map[uuid.UUID][]domain.ReviewEvent{cardID: stream}, nil
		},
	}
	calls := 0
	states := &stateRepoMock{
		ListCardIDsNotVersionFunc: func(_ context.Context, _ string, _ int) ([]uuid.UUID, error) {
			calls++
			if calls == 1 {
				return []uuid.UUID{cardID}, nil
			}
			return nil, nil
		},
	}
	cards := &cardRepoMock{
		ListByIDsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.Card, error) {
			return map[uuid.UUID]domain.Card{cardID: {ID: cardID, DeckID: deckID}}, nil
		},
	}
	decks := &deckRepoMock{
		ListByIDsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.Deck, error) {
			return map[uuid.UUID]domain.Deck{deckID: deck}, nil
		},
	}

	svc := testService(t, decks, cards, events, states, nil, nil)

	n, err := svc.RebuildProjections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("reprojected = %d, want 1", n)
	}
	if len(states.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(states.upserts))
	}

	fresh, err := ProjectState(svc.deckParameters(&deck), stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fresh.CardID = cardID

	// The rebuilt row must match a fresh projection under the deck's own
	// parameters, never the server defaults.
	if diff := cmp.Diff(fresh, states.upserts[0].ComputedCardState); diff != "" {
		t.Errorf("rebuilt state diverges from fresh projection (-fresh +cached):\n%s", diff)
	}
	underDefaults, err := ProjectState(scheduler.DefaultParameters(), stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if states.upserts[0].Stability == underDefaults.Stability {
		t.Error("deck weight override had no effect on the rebuild")
	}
}

func TestProjectMany_NeverReviewedIsNew(t *testing.T) {
	cardID := uuid.New()

	events := &eventRepoMock{
		StatsByCardsFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.EventStats, error) {
			return map[uuid.UUID]domain.EventStats{}, nil
		},
	}
	states := &stateRepoMock{
		GetManyFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]domain.CachedCardState, error) {
			return map[uuid.UUID]domain.CachedCardState{}, nil
		},
	}

	svc := testService(t, nil, nil, events, states, nil, nil)

	got, err := svc.projectMany(context.Background(), scheduler.DefaultParameters(), []uuid.UUID{cardID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[cardID].Queue != domain.QueueNew {
		t.Errorf("queue = %s, want NEW", got[cardID].Queue)
	}
	if len(states.upserts) != 0 {
		t.Error("never-reviewed cards must not allocate cache rows")
	}
}
