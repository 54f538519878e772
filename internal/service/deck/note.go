package deck

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// NoteOutput is a note together with its cards.
type NoteOutput struct {
	Note  domain.Note
	Cards []domain.Card
}

// CreateNote creates a note and its three cards atomically. A note never
// exists with fewer or more than three cards.
func (s *Service) CreateNote(ctx context.Context, input CreateNoteInput) (*NoteOutput, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Ownership check before the write.
	if _, err := s.decks.GetByID(ctx, userID, input.DeckID); err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}

	note := &domain.Note{
		DeckID:      input.DeckID,
		Form:        input.Form,
		Phonetic:    input.Phonetic,
		Gloss:       input.Gloss,
		Annotations: input.Annotations,
	}
	cards := make([]domain.Card, 0, 3)
	for _, t := range domain.AllCardTypes() {
		cards = append(cards, domain.Card{Type: t})
	}

	var out *NoteOutput
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		created, createdCards, err := s.notes.CreateWithCards(txCtx, note, cards)
		if err != nil {
			return fmt.Errorf("create note: %w", err)
		}
		out = &NoteOutput{Note: *created, Cards: createdCards}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "note created",
		"note_id", out.Note.ID.String(), "deck_id", input.DeckID.String())
	return out, nil
}

// GetNote returns an owned note.
func (s *Service) GetNote(ctx context.Context, noteID uuid.UUID) (*domain.Note, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if noteID == uuid.Nil {
		return nil, domain.NewValidationError("note_id", "required")
	}

	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// ListNotes returns all notes in an owned deck.
func (s *Service) ListNotes(ctx context.Context, deckID uuid.UUID) ([]domain.Note, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if deckID == uuid.Nil {
		return nil, domain.NewValidationError("deck_id", "required")
	}

	if _, err := s.decks.GetByID(ctx, userID, deckID); err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}

	notes, err := s.notes.ListByDeck(ctx, userID, deckID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// AttachAudio stores an opaque audio blob key on a note, replacing any
// previous key.
func (s *Service) AttachAudio(ctx context.Context, input AttachAudioInput) (*domain.Note, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.notes.GetByID(ctx, userID, input.NoteID); err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	note, err := s.notes.SetAudioKey(ctx, input.NoteID, input.AudioKey)
	if err != nil {
		return nil, fmt.Errorf("set audio key: %w", err)
	}

	s.log.InfoContext(ctx, "audio attached", "note_id", note.ID.String())
	return note, nil
}

// DeleteNote removes an owned note and its cards.
func (s *Service) DeleteNote(ctx context.Context, noteID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if noteID == uuid.Nil {
		return domain.NewValidationError("note_id", "required")
	}

	if err := s.notes.Delete(ctx, userID, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	s.log.InfoContext(ctx, "note deleted", "note_id", noteID.String())
	return nil
}
