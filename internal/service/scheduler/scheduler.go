package scheduler

import (
	"fmt"
	"time"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// InitialState returns the state of a card that has never been reviewed.
func InitialState(params Parameters) domain.ComputedCardState {
	return domain.ComputedCardState{
		Queue:      domain.QueueNew,
		Stability:  0,
		Difficulty: InitialDifficulty(params.W, domain.RatingGood),
	}
}

// Apply computes the next card state for a rating at the given instant.
// It is total for every valid rating and deterministic: same inputs,
// same outputs.
func Apply(params Parameters, state domain.ComputedCardState, rating domain.Rating, now time.Time) (domain.ComputedCardState, error) {
	if !rating.IsValid() {
		return domain.ComputedCardState{}, fmt.Errorf("rating %d: %w", rating, domain.ErrValidation)
	}

	switch state.Queue {
	case domain.QueueNew:
		return applyNew(params, state, rating, now), nil
	case domain.QueueLearning:
		return applyLearning(params, state, rating, now, false), nil
	case domain.QueueRelearning:
		return applyLearning(params, state, rating, now, true), nil
	case domain.QueueReview:
		return applyReview(params, state, rating, now), nil
	default:
		return domain.ComputedCardState{}, fmt.Errorf("unknown queue %q: %w", state.Queue, domain.ErrValidation)
	}
}

// applyNew handles a card's first review. Whatever the rating, the card
// leaves NEW.
func applyNew(params Parameters, state domain.ComputedCardState, rating domain.Rating, now time.Time) domain.ComputedCardState {
	t := now
	state.LastReviewed = &t
	state.Stability = InitialStability(params.W, rating)
	state.Difficulty = InitialDifficulty(params.W, rating)

	steps := params.learningSteps(false)

	switch rating {
	case domain.RatingAgain:
		state.Queue = domain.QueueLearning
		state.Step = 0
		state.ScheduledDays = 0
		state.Due = now.Add(steps[0])

	case domain.RatingHard:
		state.Queue = domain.QueueLearning
		state.Step = 0
		state.ScheduledDays = 0
		delay := steps[0]
		if len(steps) > 1 {
			delay = (steps[0] + steps[1]) / 2
		}
		state.Due = now.Add(delay)

	case domain.RatingGood:
		state.Reps++
		if len(steps) > 1 {
			state.Queue = domain.QueueLearning
			state.Step = 1
			state.ScheduledDays = 0
			state.Due = now.Add(steps[1])
		} else {
			state = graduate(params, state, now)
		}

	case domain.RatingEasy:
		// Easy skips the learning steps entirely.
		state.Reps++
		state = graduate(params, state, now)
	}

	return state
}

// applyLearning handles LEARNING and RELEARNING cards.
func applyLearning(params Parameters, state domain.ComputedCardState, rating domain.Rating, now time.Time, relearning bool) domain.ComputedCardState {
	t := now
	state.LastReviewed = &t

	steps := params.learningSteps(relearning)

	// Short-term stability and difficulty move on every rating.
	state.Stability = ShortTermStability(params.W, state.Stability, rating)
	state.Difficulty = NextDifficulty(params.W, state.Difficulty, rating)

	switch rating {
	case domain.RatingAgain:
		// Back to step 0. Lapses count only the REVIEW -> RELEARNING
		// transition, not repeats inside a learning phase.
		state.Step = 0
		state.ScheduledDays = 0
		state.Due = now.Add(steps[0])

	case domain.RatingHard:
		step := min(state.Step, len(steps)-1)
		state.ScheduledDays = 0
		state.Due = now.Add(steps[step])

	case domain.RatingGood:
		state.Reps++
		next := state.Step + 1
		if next >= len(steps) {
			state = graduate(params, state, now)
		} else {
			state.Step = next
			state.ScheduledDays = 0
			state.Due = now.Add(steps[next])
		}

	case domain.RatingEasy:
		state.Reps++
		state = graduate(params, state, now)
	}

	return state
}

// applyReview handles cards in the day-granular REVIEW queue. All three
// recall intervals are computed so their ordering (Hard <= Good < Easy)
// can be enforced regardless of the weight vector.
func applyReview(params Parameters, state domain.ComputedCardState, rating domain.Rating, now time.Time) domain.ComputedCardState {
	elapsed := 1.0
	if state.LastReviewed != nil {
		elapsed = now.Sub(*state.LastReviewed).Hours() / 24
		if elapsed < 0 {
			elapsed = 0
		}
	}
	r := Retrievability(elapsed, state.Stability)
	preD := state.Difficulty

	t := now
	state.LastReviewed = &t
	state.Difficulty = NextDifficulty(params.W, preD, rating)

	if rating == domain.RatingAgain {
		state.Lapses++
		state.Queue = domain.QueueRelearning
		state.Step = 0
		state.ScheduledDays = 0
		state.Stability = StabilityAfterForgettingCapped(params.W, state.Stability, preD, r)
		state.Due = now.Add(params.learningSteps(true)[0])
		return state
	}

	state.Reps++

	// Pre-update difficulty feeds all stability formulas.
	hardS := StabilityAfterRecall(params.W, state.Stability, preD, r, domain.RatingHard)
	goodS := StabilityAfterRecall(params.W, state.Stability, preD, r, domain.RatingGood)
	easyS := StabilityAfterRecall(params.W, state.Stability, preD, r, domain.RatingEasy)

	hardIvl := clampInterval(NextInterval(hardS, params.RequestRetention), params.MaxIntervalDays)
	goodIvl := clampInterval(NextInterval(goodS, params.RequestRetention), params.MaxIntervalDays)
	easyIvl := clampInterval(NextInterval(easyS, params.RequestRetention), params.MaxIntervalDays)

	if hardIvl > goodIvl {
		hardIvl = goodIvl
	}
	if goodIvl <= hardIvl {
		goodIvl = hardIvl + 1
	}
	if easyIvl <= goodIvl {
		easyIvl = goodIvl + 1
	}
	goodIvl = clampInterval(goodIvl, params.MaxIntervalDays)
	easyIvl = clampInterval(easyIvl, params.MaxIntervalDays)

	var ivl int
	switch rating {
	case domain.RatingHard:
		ivl = hardIvl
		state.Stability = hardS
	case domain.RatingGood:
		ivl = goodIvl
		state.Stability = goodS
	case domain.RatingEasy:
		ivl = easyIvl
		state.Stability = easyS
	}

	state.Queue = domain.QueueReview
	state.Step = 0
	state.ScheduledDays = ivl
	state.Due = now.Add(time.Duration(ivl) * 24 * time.Hour)
	return state
}

// graduate moves a card into the REVIEW queue with a day-granular interval.
func graduate(params Parameters, state domain.ComputedCardState, now time.Time) domain.ComputedCardState {
	state.Queue = domain.QueueReview
	state.Step = 0

	ivl := clampInterval(NextInterval(state.Stability, params.RequestRetention), params.MaxIntervalDays)
	state.ScheduledDays = ivl
	state.Due = now.Add(time.Duration(ivl) * 24 * time.Hour)
	return state
}

func clampInterval(interval, maxDays int) int {
	if interval < 1 {
		return 1
	}
	if interval > maxDays {
		return maxDays
	}
	return interval
}
