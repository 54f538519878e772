package study

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// candidate pairs a card with its projected state for selection.
type candidate struct {
	card  domain.Card
	state domain.ComputedCardState
}

// QueueCounts is the session headline: how many cards each queue holds
// for the rest of the day. New is already clamped to the daily budget.
type QueueCounts struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
}

type selectOptions struct {
	// excludeNotes removes a note's cards from the NEW and REVIEW pools,
	// so a session never introduces two prompts for the same word
	// back to back. Cards already in a learning phase are always shown.
	excludeNotes map[uuid.UUID]bool
	// newBudget is new_cards_per_day minus today's introductions.
	newBudget int
	// ignoreDailyLimit lifts the budget (explicit user override).
	ignoreDailyLimit bool
}

type selection struct {
	card            *candidate
	counts          QueueCounts
	hasMoreNewCards bool
}

// selectNext picks the next card to show. Priority:
//
//  1. LEARNING/RELEARNING cards due now, weighted random by overdue
//     seconds so the longest-waiting cards surface first.
//  2. A mix of NEW and REVIEW cards due today, with
//     P(NEW) = |NEW| / (|NEW| + |REVIEW|), uniform inside each pool.
//  3. LEARNING/RELEARNING cards due later today, earliest first.
//  4. Nothing: the session is done for today. hasMoreNewCards reports
//     whether lifting the daily limit would surface more NEW cards.
//
// Deterministic given the rng: the caller owns the seed.
func selectNext(cands []candidate, opts selectOptions, rng *rand.Rand, now time.Time) selection {
	dayEnd := domain.DayEndUTC(now)

	var (
		learningDueNow   []candidate
		learningDueLater []candidate
		newPool          []candidate
		reviewPool       []candidate
	)

	for _, c := range cands {
		switch {
		case c.state.Queue.IsLearning():
			if !c.state.Due.After(now) {
				learningDueNow = append(learningDueNow, c)
			} else if c.state.Due.Before(dayEnd) {
				learningDueLater = append(learningDueLater, c)
			}
		case c.state.Queue == domain.QueueNew:
			if !opts.excludeNotes[c.card.NoteID] {
				newPool = append(newPool, c)
			}
		case c.state.Queue == domain.QueueReview:
			if c.state.IsDue(now) || c.state.Due.Before(dayEnd) {
				if !opts.excludeNotes[c.card.NoteID] {
					reviewPool = append(reviewPool, c)
				}
			}
		}
	}

	sortByDueThenID(learningDueNow)
	sortByDueThenID(learningDueLater)
	sortByDueThenID(newPool)
	sortByDueThenID(reviewPool)

	newAvail := len(newPool)
	if !opts.ignoreDailyLimit {
		newAvail = min(newAvail, max(0, opts.newBudget))
	}

	counts := QueueCounts{
		New:      newAvail,
		Learning: len(learningDueNow) + len(learningDueLater),
		Review:   len(reviewPool),
	}

	// Rule 1: learning cards due now, overdue-weighted.
	if len(learningDueNow) > 0 {
		picked := pickOverdueWeighted(learningDueNow, rng, now)
		return selection{card: &picked, counts: counts}
	}

	// Rule 2: introduce or review.
	if newAvail > 0 || len(reviewPool) > 0 {
		pNew := float64(newAvail) / float64(newAvail+len(reviewPool))
		if newAvail > 0 && (len(reviewPool) == 0 || rng.Float64() < pNew) {
			picked := newPool[rng.Intn(newAvail)]
			return selection{card: &picked, counts: counts}
		}
		picked := reviewPool[rng.Intn(len(reviewPool))]
		return selection{card: &picked, counts: counts}
	}

	// Rule 3: learning cards due later today, earliest first.
	if len(learningDueLater) > 0 {
		picked := learningDueLater[0]
		return selection{card: &picked, counts: counts}
	}

	// Rule 4: nothing left today. Reaching here means newAvail == 0, so
	// any card left in the NEW pool is one the daily limit is holding back.
	return selection{
		counts:          counts,
		hasMoreNewCards: len(newPool) > 0,
	}
}

// pickOverdueWeighted draws one candidate with probability proportional
// to how long it has been waiting, floored at one second.
func pickOverdueWeighted(cands []candidate, rng *rand.Rand, now time.Time) candidate {
	var total int64
	weights := make([]int64, len(cands))
	for i, c := range cands {
		w := int64(now.Sub(c.state.Due).Seconds())
		if w < 1 {
			w = 1
		}
		weights[i] = w
		total += w
	}

	target := rng.Int63n(total)
	for i, w := range weights {
		target -= w
		if target < 0 {
			return cands[i]
		}
	}
	return cands[len(cands)-1]
}

// sortByDueThenID gives every pool a stable order so selection is a
// function of the rng stream alone.
func sortByDueThenID(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if !cands[i].state.Due.Equal(cands[j].state.Due) {
			return cands[i].state.Due.Before(cands[j].state.Due)
		}
		return cands[i].card.ID.String() < cands[j].card.ID.String()
	})
}
