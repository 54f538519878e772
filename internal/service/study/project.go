package study

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
)

// ProjectState folds a card's review events into its current state.
// Events are ordered by (reviewedAt, id) before folding; each event's
// own timestamp is the scheduling instant. The result depends only on
// the parameters and the event set, never on the wall clock.
func ProjectState(params scheduler.Parameters, events []domain.ReviewEvent) (domain.ComputedCardState, error) {
	sorted := make([]domain.ReviewEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ReviewedAt.Equal(sorted[j].ReviewedAt) {
			return sorted[i].ReviewedAt.Before(sorted[j].ReviewedAt)
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	state := scheduler.InitialState(params)
	for _, e := range sorted {
		next, err := scheduler.Apply(params, state, e.Rating, e.ReviewedAt)
		if err != nil {
			return domain.ComputedCardState{}, fmt.Errorf("replay event %s: %w", e.ID, err)
		}
		state = next
	}
	return state, nil
}

// ProjectCard returns the current state of one card, serving from the
// projection cache when it is still valid and re-projecting (with a
// write-through) when it is not.
func (s *Service) ProjectCard(ctx context.Context, params scheduler.Parameters, cardID uuid.UUID) (domain.ComputedCardState, error) {
	states, err := s.projectMany(ctx, params, []uuid.UUID{cardID})
	if err != nil {
		return domain.ComputedCardState{}, err
	}
	return states[cardID], nil
}

// projectMany resolves current states for a card set with one stats
// query, one cache query and one event query for the stale subset.
func (s *Service) projectMany(ctx context.Context, params scheduler.Parameters, cardIDs []uuid.UUID) (map[uuid.UUID]domain.ComputedCardState, error) {
	out := make(map[uuid.UUID]domain.ComputedCardState, len(cardIDs))
	if len(cardIDs) == 0 {
		return out, nil
	}

	stats, err := s.events.StatsByCards(ctx, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("event stats: %w", err)
	}

	cached, err := s.states.GetMany(ctx, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("get cached states: %w", err)
	}

	var stale []uuid.UUID
	for _, id := range cardIDs {
		st, reviewed := stats[id]
		if !reviewed {
			// Never reviewed: the initial state needs no cache row.
			out[id] = scheduler.InitialState(params)
			continue
		}
		if row, ok := cached[id]; ok && s.cacheValid(row, st) {
			out[id] = row.ComputedCardState
			continue
		}
		stale = append(stale, id)
	}

	if len(stale) == 0 {
		return out, nil
	}

	eventsByCard, err := s.events.ListByCards(ctx, stale)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	now := s.now()
	for _, id := range stale {
		events := eventsByCard[id]
		state, err := ProjectState(params, events)
		if err != nil {
			return nil, err
		}
		state.CardID = id
		out[id] = state

		row := domain.CachedCardState{
			ComputedCardState: state,
			EventCount:        stats[id].Count,
			LastEventAt:       stats[id].LastEventAt,
			AlgoVersion:       s.version,
			UpdatedAt:         now,
		}
		if err := s.states.Upsert(ctx, row); err != nil {
			// The cache is rebuildable; a failed write-through must not
			// fail the read.
			s.log.ErrorContext(ctx, "projection write-through failed",
				slog.String("card_id", id.String()), slog.Any("error", err))
		}
	}

	return out, nil
}

func (s *Service) cacheValid(row domain.CachedCardState, stats domain.EventStats) bool {
	return row.AlgoVersion == s.version &&
		row.EventCount == stats.Count &&
		row.LastEventAt.Equal(stats.LastEventAt)
}

// RebuildProjections re-projects every cached row written under a
// different algorithm revision. Used after a scheduler upgrade; safe to
// run repeatedly.
func (s *Service) RebuildProjections(ctx context.Context) (int, error) {
	const batchSize = 500

	total := 0
	for {
		ids, err := s.states.ListCardIDsNotVersion(ctx, s.version, batchSize)
		if err != nil {
			return total, fmt.Errorf("list stale projections: %w", err)
		}
		if len(ids) == 0 {
			return total, nil
		}

		if err := s.reprojectBatch(ctx, ids); err != nil {
			return total, err
		}
		total += len(ids)

		s.log.InfoContext(ctx, "reprojected batch",
			slog.Int("cards", len(ids)), slog.Int("total", total))
	}
}

func (s *Service) reprojectBatch(ctx context.Context, ids []uuid.UUID) error {
	stats, err := s.events.StatsByCards(ctx, ids)
	if err != nil {
		return fmt.Errorf("event stats: %w", err)
	}
	eventsByCard, err := s.events.ListByCards(ctx, ids)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	// Each card folds under its own deck's parameters; rebuilding under
	// the server defaults would leave rows that disagree with a fresh
	// projection wherever a deck overrides weights or retention.
	cards, err := s.cards.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve cards: %w", err)
	}
	deckIDs := make([]uuid.UUID, 0, len(cards))
	seen := map[uuid.UUID]bool{}
	for _, c := range cards {
		if !seen[c.DeckID] {
			seen[c.DeckID] = true
			deckIDs = append(deckIDs, c.DeckID)
		}
	}
	decks, err := s.decks.ListByIDs(ctx, deckIDs)
	if err != nil {
		return fmt.Errorf("resolve decks: %w", err)
	}

	now := s.now()
	for _, id := range ids {
		card, ok := cards[id]
		if !ok {
			// Card deleted since the listing; its cache row goes with it.
			continue
		}
		deck, ok := decks[card.DeckID]
		if !ok {
			continue
		}

		state, err := ProjectState(s.deckParameters(&deck), eventsByCard[id])
		if err != nil {
			return err
		}
		state.CardID = id

		row := domain.CachedCardState{
			ComputedCardState: state,
			EventCount:        stats[id].Count,
			LastEventAt:       stats[id].LastEventAt,
			AlgoVersion:       s.version,
			UpdatedAt:         now,
		}
		if err := s.states.Upsert(ctx, row); err != nil {
			return fmt.Errorf("upsert projection %s: %w", id, err)
		}
	}
	return nil
}
