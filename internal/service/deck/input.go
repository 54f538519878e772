package deck

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
)

// CreateDeckInput holds the parameters for creating a deck.
type CreateDeckInput struct {
	Name        string
	Description string
	Params      domain.SchedulingParams
}

// Validate checks all fields and collects all errors.
func (i *CreateDeckInput) Validate() error {
	errs := validateDeckFields(i.Name, i.Description, i.Params)
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateDeckInput holds the parameters for updating a deck. Nil fields
// keep their current value.
type UpdateDeckInput struct {
	DeckID      uuid.UUID
	Name        *string
	Description *string
	Params      *domain.SchedulingParams
}

// Validate checks all fields and collects all errors.
func (i *UpdateDeckInput) Validate() error {
	var errs []domain.FieldError
	if i.DeckID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "deck_id", Message: "required"})
	}
	name := "unchanged"
	if i.Name != nil {
		name = *i.Name
	}
	desc := ""
	if i.Description != nil {
		desc = *i.Description
	}
	params := domain.SchedulingParams{}
	if i.Params != nil {
		params = *i.Params
	}
	errs = append(errs, validateDeckFields(name, desc, params)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateDeckFields(name, description string, params domain.SchedulingParams) []domain.FieldError {
	var errs []domain.FieldError

	if strings.TrimSpace(name) == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	} else if len(name) > 200 {
		errs = append(errs, domain.FieldError{Field: "name", Message: "max 200 characters"})
	}
	if len(description) > 2000 {
		errs = append(errs, domain.FieldError{Field: "description", Message: "max 2000 characters"})
	}
	if n := len(params.Weights); n != 0 && n != scheduler.WeightCount {
		errs = append(errs, domain.FieldError{Field: "params.weights", Message: "must have exactly 21 elements or be omitted"})
	}
	if r := params.RequestRetention; r != 0 && (r < 0.70 || r > 0.97) {
		errs = append(errs, domain.FieldError{Field: "params.request_retention", Message: "must be between 0.70 and 0.97"})
	}
	if params.NewCardsPerDay < 0 {
		errs = append(errs, domain.FieldError{Field: "params.new_cards_per_day", Message: "must be non-negative"})
	}

	return errs
}

// CreateNoteInput holds the parameters for creating a note. The three
// cards are created implicitly.
type CreateNoteInput struct {
	DeckID      uuid.UUID
	Form        string
	Phonetic    string
	Gloss       string
	Annotations string
}

// Validate checks all fields and collects all errors.
func (i *CreateNoteInput) Validate() error {
	var errs []domain.FieldError

	if i.DeckID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "deck_id", Message: "required"})
	}
	if strings.TrimSpace(i.Form) == "" {
		errs = append(errs, domain.FieldError{Field: "form", Message: "required"})
	} else if len(i.Form) > 500 {
		errs = append(errs, domain.FieldError{Field: "form", Message: "max 500 characters"})
	}
	if strings.TrimSpace(i.Gloss) == "" {
		errs = append(errs, domain.FieldError{Field: "gloss", Message: "required"})
	} else if len(i.Gloss) > 2000 {
		errs = append(errs, domain.FieldError{Field: "gloss", Message: "max 2000 characters"})
	}
	if len(i.Phonetic) > 500 {
		errs = append(errs, domain.FieldError{Field: "phonetic", Message: "max 500 characters"})
	}
	if len(i.Annotations) > 5000 {
		errs = append(errs, domain.FieldError{Field: "annotations", Message: "max 5000 characters"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// AttachAudioInput holds the parameters for attaching a generated audio
// blob to a note. The key is opaque; the backend stores it verbatim.
type AttachAudioInput struct {
	NoteID   uuid.UUID
	AudioKey string
}

// Validate checks all fields and collects all errors.
func (i *AttachAudioInput) Validate() error {
	var errs []domain.FieldError

	if i.NoteID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "note_id", Message: "required"})
	}
	if strings.TrimSpace(i.AudioKey) == "" {
		errs = append(errs, domain.FieldError{Field: "audio_key", Message: "required"})
	} else if len(i.AudioKey) > 500 {
		errs = append(errs, domain.FieldError{Field: "audio_key", Message: "max 500 characters"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
