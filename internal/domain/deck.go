package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultNewCardsPerDay caps daily new-card introduction when a deck
// does not override it.
const DefaultNewCardsPerDay = 20

// SchedulingParams are the deck-level FSRS knobs. Weights is the full
// 21-element model weight vector; a zero-length slice means "use the
// server default".
type SchedulingParams struct {
	Weights          []float64
	RequestRetention float64
	NewCardsPerDay   int
}

// Deck is an owner-exclusive collection of notes.
type Deck struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Description string
	Params      SchedulingParams
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Note is a vocabulary item. Exactly three cards are created atomically
// with every note, one per CardType.
type Note struct {
	ID          uuid.UUID
	DeckID      uuid.UUID
	Form        string
	Phonetic    string
	Gloss       string
	Annotations string
	// AudioKey is an opaque blob key ("generated/<note-id>.mp3"); the
	// backend stores and propagates it but never parses it.
	AudioKey  string
	CreatedAt time.Time
}

// Card is a single prompt-answer unit derived from a note. DeckID is
// denormalized from the note so readers can resolve scheduling
// parameters without a second lookup.
type Card struct {
	ID        uuid.UUID
	NoteID    uuid.UUID
	DeckID    uuid.UUID
	Type      CardType
	CreatedAt time.Time
}
