package study

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// NextCardInput holds the parameters for picking the next card.
type NextCardInput struct {
	DeckID           uuid.UUID
	ExcludeNoteIDs   []uuid.UUID
	IgnoreDailyLimit bool
}

// Validate checks all fields and collects all errors.
func (i *NextCardInput) Validate() error {
	var errs []domain.FieldError

	if i.DeckID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "deck_id", Message: "required"})
	}
	if len(i.ExcludeNoteIDs) > 500 {
		errs = append(errs, domain.FieldError{Field: "exclude_note_ids", Message: "max 500 entries"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ReviewInput holds the parameters for a server-side review.
type ReviewInput struct {
	CardID      uuid.UUID
	Rating      domain.Rating
	TimeSpentMs *int
	UserAnswer  *string
}

// Validate checks all fields and collects all errors.
func (i *ReviewInput) Validate() error {
	var errs []domain.FieldError

	if i.CardID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "card_id", Message: "required"})
	}
	if !i.Rating.IsValid() {
		errs = append(errs, domain.FieldError{Field: "rating", Message: "must be 0 (again), 1 (hard), 2 (good), or 3 (easy)"})
	}
	if i.TimeSpentMs != nil && *i.TimeSpentMs < 0 {
		errs = append(errs, domain.FieldError{Field: "time_spent_ms", Message: "must be non-negative"})
	}
	if i.UserAnswer != nil && len(*i.UserAnswer) > 2000 {
		errs = append(errs, domain.FieldError{Field: "user_answer", Message: "max 2000 characters"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// CardStateInput holds the parameters for reading one card's state.
type CardStateInput struct {
	CardID uuid.UUID
}

// Validate checks all fields.
func (i *CardStateInput) Validate() error {
	if i.CardID == uuid.Nil {
		return domain.NewValidationError("card_id", "required")
	}
	return nil
}
